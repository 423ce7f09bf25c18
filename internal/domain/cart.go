package domain

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// SelectedOption is the snapshot of one chosen option, copied when the line
// is added so later catalog edits do not reprice the cart.
type SelectedOption struct {
	Name   string          `json:"name"`
	Choice string          `json:"choice"`
	Price  decimal.Decimal `json:"price"`
}

// LineItem is one cart row. Price is the resolved unit price.
type LineItem struct {
	ID        string           `json:"id"`
	ProductID string           `json:"productId"`
	Name      string           `json:"name"`
	Price     decimal.Decimal  `json:"price"`
	Quantity  int              `json:"quantity"`
	Options   []SelectedOption `json:"options,omitempty"`
	Image     string           `json:"image,omitempty"`
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// MergeKey identifies lines that must be merged: same product and the same
// set of (option, choice) pairs in any order. A line without options never
// shares a key with a line that has options.
func MergeKey(productID string, options []SelectedOption) string {
	if len(options) == 0 {
		return productID
	}
	pairs := make([]string, 0, len(options))
	for _, o := range options {
		pairs = append(pairs, o.Name+"="+o.Choice)
	}
	sort.Strings(pairs)
	return productID + "?" + strings.Join(pairs, "&")
}

type Cart struct {
	Items []LineItem `json:"items"`
}

// AddItem merges into an existing line with the same merge key or appends a
// new line with the given id. It returns the resulting line and whether a
// merge happened. Quantity is taken as given; callers clamp it.
func (c *Cart) AddItem(id string, p *Product, quantity int, options []SelectedOption) (LineItem, bool) {
	key := MergeKey(p.ID, options)
	for i := range c.Items {
		if MergeKey(c.Items[i].ProductID, c.Items[i].Options) == key {
			c.Items[i].Quantity += quantity
			return c.Items[i], true
		}
	}

	line := LineItem{
		ID:        id,
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.UnitPrice(options),
		Quantity:  quantity,
		Options:   options,
		Image:     p.Image,
	}
	c.Items = append(c.Items, line)
	return line, false
}

// UpdateQuantity sets the quantity of a line as given, without re-clamping.
func (c *Cart) UpdateQuantity(lineID string, quantity int) bool {
	for i := range c.Items {
		if c.Items[i].ID == lineID {
			c.Items[i].Quantity = quantity
			return true
		}
	}
	return false
}

// RemoveItem deletes a line. A missing id is a no-op.
func (c *Cart) RemoveItem(lineID string) bool {
	for i := range c.Items {
		if c.Items[i].ID == lineID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c Cart) Find(lineID string) (LineItem, bool) {
	for _, l := range c.Items {
		if l.ID == lineID {
			return l, true
		}
	}
	return LineItem{}, false
}

func (c Cart) Len() int {
	return len(c.Items)
}

func (c Cart) TotalQuantity() int {
	n := 0
	for _, l := range c.Items {
		n += l.Quantity
	}
	return n
}

// Subtotal is recomputed on every call and never cached.
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Items {
		total = total.Add(l.LineTotal())
	}
	return total
}

// Snapshot returns a deep copy safe to hand out of a locked session.
func (c Cart) Snapshot() Cart {
	items := make([]LineItem, len(c.Items))
	for i, l := range c.Items {
		l.Options = append([]SelectedOption(nil), l.Options...)
		items[i] = l
	}
	return Cart{Items: items}
}
