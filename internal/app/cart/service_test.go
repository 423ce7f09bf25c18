package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/adapter/memory"
	"github.com/YelzhanWeb/cafe/internal/app/session"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func latte() *domain.Product {
	d := decimal.RequireFromString
	return &domain.Product{
		ID: "coffee-3", Name: "Latte", Price: d("4.75"), Category: domain.CategoryCoffee,
		Available: true, Customizable: true,
		Options: []domain.OptionGroup{
			{Name: "Size", Choices: []domain.Choice{{Name: "Small", Price: d("0")}, {Name: "Large", Price: d("1.5")}}},
			{Name: "Milk", Choices: []domain.Choice{{Name: "Whole Milk", Price: d("0")}, {Name: "Oat Milk", Price: d("0.5")}}},
		},
	}
}

func newLedger(t *testing.T, requireTable bool) (*Ledger, *session.Session) {
	t.Helper()
	l := NewLedger(logger.NewNop(), requireTable)
	n := 0
	l.newLineID = func() string {
		n++
		return fmt.Sprintf("line-%d", n)
	}
	sess, err := session.NewManager(memory.NewStateStore(), logger.NewNop()).Open(context.Background(), "s-1")
	require.NoError(t, err)
	return l, sess
}

func bindTable(t *testing.T, sess *session.Session) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, sess.Do(ctx, func(st *session.State) error {
		table := st.Table()
		if _, err := table.BindFromScan("table-3"); err != nil {
			return err
		}
		return st.SaveTable(ctx, table)
	}))
}

func TestAddItemMergesIdenticalSelections(t *testing.T) {
	ctx := context.Background()
	l, sess := newLedger(t, false)
	sel := map[string]string{"Size": "Large", "Milk": "Oat Milk"}

	first, err := l.AddItem(ctx, sess, latte(), 1, sel)
	require.NoError(t, err)
	assert.Equal(t, "6.75", first.Price.StringFixed(2))

	second, err := l.AddItem(ctx, sess, latte(), 1, map[string]string{"Milk": "Oat Milk", "Size": "Large"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Quantity)

	_, err = l.AddItem(ctx, sess, latte(), 1, map[string]string{"Size": "Small"})
	require.NoError(t, err)

	items, err := l.Items(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	subtotal, err := l.Subtotal(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "18.25", subtotal.StringFixed(2))
}

func TestAddItemRequiresTable(t *testing.T) {
	ctx := context.Background()
	l, sess := newLedger(t, true)

	_, err := l.AddItem(ctx, sess, latte(), 1, nil)
	assert.ErrorIs(t, err, domain.ErrTableRequired)

	items, err := l.Items(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, items)

	bindTable(t, sess)
	_, err = l.AddItem(ctx, sess, latte(), 1, nil)
	assert.NoError(t, err)
}

func TestAddItemValidation(t *testing.T) {
	ctx := context.Background()
	l, sess := newLedger(t, false)

	_, err := l.AddItem(ctx, sess, latte(), 0, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = l.AddItem(ctx, sess, latte(), 1, map[string]string{"Size": "Venti"})
	assert.ErrorIs(t, err, domain.ErrInvalidOption)

	p := latte()
	p.Available = false
	_, err = l.AddItem(ctx, sess, p, 1, nil)
	assert.ErrorIs(t, err, domain.ErrProductUnavailable)
}

func TestUpdateRemoveClear(t *testing.T) {
	ctx := context.Background()
	l, sess := newLedger(t, false)

	line, err := l.AddItem(ctx, sess, latte(), 1, nil)
	require.NoError(t, err)

	found, err := l.UpdateQuantity(ctx, sess, line.ID, 4)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = l.UpdateQuantity(ctx, sess, "missing", 4)
	require.NoError(t, err)
	assert.False(t, found)

	subtotal, err := l.Subtotal(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "19.00", subtotal.StringFixed(2))

	require.NoError(t, l.RemoveItem(ctx, sess, "missing"))
	require.NoError(t, l.RemoveItem(ctx, sess, line.ID))
	items, err := l.Items(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = l.AddItem(ctx, sess, latte(), 2, nil)
	require.NoError(t, err)
	require.NoError(t, l.Clear(ctx, sess))
	subtotal, err = l.Subtotal(ctx, sess)
	require.NoError(t, err)
	assert.True(t, subtotal.IsZero())
}
