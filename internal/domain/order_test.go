package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	totals := ComputeTotals(dec("13.50"), DefaultTaxRate, dec("0"))
	assert.Equal(t, "1.08", totals.Tax.StringFixed(2))
	assert.Equal(t, "14.58", totals.Total.StringFixed(2))

	totals = ComputeTotals(dec("13.50"), DefaultTaxRate, dec("25"))
	assert.Equal(t, "14.58", totals.GiftCardApplied.StringFixed(2))
	assert.True(t, totals.Total.IsZero())

	totals = ComputeTotals(dec("3.33"), DefaultTaxRate, dec("0"))
	assert.Equal(t, "0.27", totals.Tax.StringFixed(2))
}

func TestParseTableCode(t *testing.T) {
	var table TableSession

	n, err := table.BindFromScan("table-12")
	require.NoError(t, err)
	assert.Equal(t, "12", n)
	assert.True(t, table.HasActiveTable())

	for _, bad := range []string{"table-", "table-x", "TABLE-3", "table-3 ", "seat-3", "xtable-3"} {
		_, err := table.BindFromScan(bad)
		assert.ErrorIs(t, err, ErrInvalidTableCode, bad)
	}
	got, ok := table.Number()
	assert.True(t, ok)
	assert.Equal(t, "12", got, "failed scans leave the binding untouched")

	table.Clear()
	assert.False(t, table.HasActiveTable())
}

func TestParseTableCodeKeepsDigitsAsScanned(t *testing.T) {
	n, err := ParseTableCode("table-007")
	require.NoError(t, err)
	assert.Equal(t, "007", n)

	long := "table-99999999999999999999999999"
	var table TableSession
	n, err = table.BindFromScan(long)
	require.NoError(t, err)
	assert.Equal(t, "99999999999999999999999999", n)
	assert.True(t, table.HasActiveTable())
}

func TestNewOrder(t *testing.T) {
	var cart Cart
	cart.AddItem("line-1", croissant(), 2, nil)

	totals := ComputeTotals(cart.Subtotal(), DefaultTaxRate, dec("0"))
	table := "4"
	gold := &User{ID: "u-1", Name: "Bob", Points: 950}

	order, err := NewOrder(cart, totals, nil, &table, gold, time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, OrderTypeDineIn, order.Type)
	assert.Equal(t, PriorityHigh, order.Priority)
	assert.Equal(t, 7, order.PointsEarned)
	require.NotNil(t, order.TableNumber)
	assert.Equal(t, "4", *order.TableNumber)

	guest, err := NewOrder(cart, totals, nil, nil, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, OrderTypeTakeaway, guest.Type)
	assert.Zero(t, guest.PointsEarned)
	assert.Nil(t, guest.CustomerID)

	_, err = NewOrder(Cart{}, totals, nil, nil, nil, time.Now())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestOrderTransitions(t *testing.T) {
	order := &Order{Status: StatusPending}

	assert.ErrorIs(t, order.TransitionTo(StatusReady, "b"), ErrInvalidStatusTransition)
	require.NoError(t, order.TransitionTo(StatusPreparing, "barista-1"))
	require.NoError(t, order.TransitionTo(StatusReady, "barista-1"))
	assert.Nil(t, order.CompletedAt)
	require.NoError(t, order.TransitionTo(StatusDelivered, "owner"))
	assert.NotNil(t, order.CompletedAt)
	assert.ErrorIs(t, order.TransitionTo(StatusCompleted, "owner"), ErrInvalidStatusTransition)
	assert.ErrorIs(t, order.TransitionTo(Status("cancelled"), "owner"), ErrInvalidStatus)
}
