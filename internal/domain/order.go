package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the immutable record of a checkout. Only its status moves after
// creation; orders are never deleted.
type Order struct {
	ID             int
	Number         string
	Type           OrderType
	Items          []OrderItem
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	GiftCardCode   *string
	GiftCardAmount decimal.Decimal
	Total          decimal.Decimal
	PointsEarned   int
	Priority       Priority
	Status         Status
	TableNumber    *string
	CustomerID     *string
	CustomerName   *string
	SessionID      string
	ProcessedBy    *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// OrderItem is a snapshot of a cart line at checkout time.
type OrderItem struct {
	ID        int              `json:"-"`
	OrderID   int              `json:"-"`
	LineID    string           `json:"lineId"`
	ProductID string           `json:"productId"`
	Name      string           `json:"name"`
	Quantity  int              `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
	Options   []SelectedOption `json:"options,omitempty"`
}

// NewOrder snapshots the cart into a pending order. Customer may be nil for
// guests and tableNumber nil for takeaway.
func NewOrder(cart Cart, totals Totals, giftCard *GiftCardApplication, tableNumber *string, customer *User, now time.Time) (*Order, error) {
	if cart.Len() == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]OrderItem, 0, cart.Len())
	for _, l := range cart.Items {
		items = append(items, OrderItem{
			LineID:    l.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     l.Price,
			Options:   append([]SelectedOption(nil), l.Options...),
		})
	}

	order := &Order{
		Type:           OrderTypeTakeaway,
		Items:          items,
		Subtotal:       totals.Subtotal,
		Tax:            totals.Tax,
		GiftCardAmount: totals.GiftCardApplied,
		Total:          totals.Total,
		Priority:       PriorityNormal,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if tableNumber != nil {
		n := *tableNumber
		order.TableNumber = &n
		order.Type = OrderTypeDineIn
	}

	if giftCard != nil && giftCard.Amount.IsPositive() {
		code := giftCard.Code
		order.GiftCardCode = &code
	}

	if customer != nil {
		id, name := customer.ID, customer.Name
		order.CustomerID = &id
		order.CustomerName = &name
		order.PointsEarned = PointsForTotal(order.Total)
		if customer.Tier() == TierGold {
			order.Priority = PriorityHigh
		}
	}

	return order, nil
}

// TransitionTo transitions the order to a new status
func (o *Order) TransitionTo(newStatus Status, processedBy string) error {
	if !newStatus.IsValid() {
		return ErrInvalidStatus
	}
	if !o.CanTransitionTo(newStatus) {
		return ErrInvalidStatusTransition
	}

	now := time.Now()
	o.Status = newStatus
	o.UpdatedAt = now

	if processedBy != "" {
		o.ProcessedBy = &processedBy
	}

	if newStatus.IsTerminal() {
		o.CompletedAt = &now
	}

	return nil
}

// CanTransitionTo checks if the order can transition to the new status
func (o *Order) CanTransitionTo(newStatus Status) bool {
	for _, s := range validTransitions[o.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

var validTransitions = map[Status][]Status{
	StatusPending:   {StatusPreparing},
	StatusPreparing: {StatusReady},
	StatusReady:     {StatusCompleted, StatusDelivered},
	StatusCompleted: {},
	StatusDelivered: {},
}

// PrepTime is how long the barista worker simulates preparing the order.
func (o *Order) PrepTime() time.Duration {
	base := 4 * time.Second
	if o.Type == OrderTypeTakeaway {
		base = 6 * time.Second
	}
	if n := o.ItemCount(); n > 1 {
		base += time.Duration(n-1) * time.Second
	}
	return base
}

func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}
