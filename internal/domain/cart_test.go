package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sizeMilkSyrup() []OptionGroup {
	return []OptionGroup{
		{Name: "Size", Choices: []Choice{
			{ID: "size-1", Name: "Small", Price: dec("0")},
			{ID: "size-2", Name: "Medium", Price: dec("0.75")},
			{ID: "size-3", Name: "Large", Price: dec("1.5")},
		}},
		{Name: "Milk", Choices: []Choice{
			{ID: "milk-2", Name: "Whole Milk", Price: dec("0")},
			{ID: "milk-3", Name: "Oat Milk", Price: dec("0.5")},
			{ID: "milk-4", Name: "Almond Milk", Price: dec("0.5")},
		}},
		{Name: "Syrup", Choices: []Choice{
			{ID: "syrup-1", Name: "None", Price: dec("0")},
			{ID: "syrup-2", Name: "Vanilla", Price: dec("0.5")},
		}},
	}
}

func latte() *Product {
	return &Product{
		ID:           "coffee-3",
		Name:         "Latte",
		Price:        dec("4.75"),
		Category:     CategoryCoffee,
		Available:    true,
		Customizable: true,
		Options:      sizeMilkSyrup(),
	}
}

func croissant() *Product {
	return &Product{ID: "pastry-1", Name: "Croissant", Price: dec("3.25"), Category: CategoryPastry, Available: true}
}

func TestResolveOptions(t *testing.T) {
	p := latte()

	opts, err := p.ResolveOptions(map[string]string{"Size": "Large", "Milk": "Oat Milk"})
	require.NoError(t, err)
	require.Len(t, opts, 3)
	assert.Equal(t, "Large", opts[0].Choice)
	assert.Equal(t, "Oat Milk", opts[1].Choice)
	assert.Equal(t, "None", opts[2].Choice, "missing group falls back to first choice")
	assert.Equal(t, "6.75", p.UnitPrice(opts).StringFixed(2))

	_, err = p.ResolveOptions(map[string]string{"Size": "Huge"})
	assert.ErrorIs(t, err, ErrInvalidOption)

	_, err = p.ResolveOptions(map[string]string{"Sprinkles": "Yes"})
	assert.ErrorIs(t, err, ErrInvalidOption)

	_, err = croissant().ResolveOptions(map[string]string{"Size": "Large"})
	assert.ErrorIs(t, err, ErrInvalidOption)

	opts, err = croissant().ResolveOptions(nil)
	require.NoError(t, err)
	assert.Empty(t, opts)
}

func TestMergeKeyIsOrderIndependent(t *testing.T) {
	a := []SelectedOption{{Name: "Size", Choice: "Large"}, {Name: "Milk", Choice: "Oat Milk"}}
	b := []SelectedOption{{Name: "Milk", Choice: "Oat Milk"}, {Name: "Size", Choice: "Large"}}

	assert.Equal(t, MergeKey("coffee-3", a), MergeKey("coffee-3", b))
	assert.NotEqual(t, MergeKey("coffee-3", a), MergeKey("coffee-3", nil))
	assert.NotEqual(t, MergeKey("coffee-3", a), MergeKey("coffee-2", a))
	assert.NotEqual(t, MergeKey("coffee-3", a), MergeKey("coffee-3", a[:1]))
}

func TestCartAddItemMerges(t *testing.T) {
	p := latte()
	opts, err := p.ResolveOptions(map[string]string{"Size": "Large", "Milk": "Oat Milk"})
	require.NoError(t, err)

	var cart Cart
	first, merged := cart.AddItem("line-1", p, 1, opts)
	assert.False(t, merged)
	assert.Equal(t, "line-1", first.ID)

	reordered := []SelectedOption{opts[2], opts[0], opts[1]}
	line, merged := cart.AddItem("line-2", p, 1, reordered)
	assert.True(t, merged)
	assert.Equal(t, "line-1", line.ID)

	require.Equal(t, 1, cart.Len())
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "13.50", cart.Subtotal().StringFixed(2))

	_, merged = cart.AddItem("line-3", croissant(), 2, nil)
	assert.False(t, merged)
	assert.Equal(t, 2, cart.Len())
	assert.Equal(t, 4, cart.TotalQuantity())
	assert.Equal(t, "20.00", cart.Subtotal().StringFixed(2))
}

func TestCartUpdateAndRemove(t *testing.T) {
	var cart Cart
	cart.AddItem("line-1", croissant(), 1, nil)

	assert.True(t, cart.UpdateQuantity("line-1", 5))
	assert.Equal(t, "16.25", cart.Subtotal().StringFixed(2))
	assert.False(t, cart.UpdateQuantity("missing", 5))

	assert.False(t, cart.RemoveItem("missing"))
	assert.Equal(t, 1, cart.Len())
	assert.True(t, cart.RemoveItem("line-1"))
	assert.Zero(t, cart.Len())
	assert.True(t, cart.Subtotal().IsZero())
}

func TestCartKeepsQuantityAsGiven(t *testing.T) {
	var cart Cart
	line, _ := cart.AddItem("line-1", croissant(), 0, nil)
	assert.Equal(t, 0, line.Quantity)
	assert.True(t, cart.Subtotal().IsZero())

	assert.True(t, cart.UpdateQuantity("line-1", 2))
	assert.Equal(t, 2, cart.TotalQuantity())
	assert.True(t, cart.UpdateQuantity("line-1", 0))
	assert.Equal(t, 1, cart.Len())
	assert.Zero(t, cart.TotalQuantity())
}

func TestCartSnapshotIsIndependent(t *testing.T) {
	p := latte()
	opts, err := p.ResolveOptions(nil)
	require.NoError(t, err)

	var cart Cart
	cart.AddItem("line-1", p, 1, opts)

	snap := cart.Snapshot()
	snap.Items[0].Quantity = 9
	snap.Items[0].Options[0].Choice = "Large"

	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.Equal(t, "Small", cart.Items[0].Options[0].Choice)
}
