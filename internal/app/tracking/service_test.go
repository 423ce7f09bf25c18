package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/adapter/memory"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	updates []interfaces.StatusUpdateMessage
}

func (r *recordingPublisher) PublishOrder(context.Context, interfaces.OrderMessage) error { return nil }

func (r *recordingPublisher) PublishStatusUpdate(_ context.Context, msg interfaces.StatusUpdateMessage) error {
	r.updates = append(r.updates, msg)
	return nil
}

func placeOrder(t *testing.T, store *memory.Store, price string) *domain.Order {
	t.Helper()
	ctx := context.Background()
	cart := domain.Cart{Items: []domain.LineItem{{
		ID: "l-1", ProductID: "coffee-1", Name: "Espresso", Price: decimal.RequireFromString(price), Quantity: 1,
	}}}
	totals := domain.ComputeTotals(cart.Subtotal(), domain.DefaultTaxRate, decimal.Zero)
	table := "2"
	order, err := domain.NewOrder(cart, totals, nil, &table, nil, time.Now())
	require.NoError(t, err)
	order.Number, err = store.Orders().GenerateOrderNumber(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Orders().PlaceOrder(ctx, order))
	return order
}

func TestUpdateStatusFollowsStateMachine(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	svc := NewService(store.Orders(), store.Baristas(), pub, logger.NewNop())
	order := placeOrder(t, store, "3.50")

	_, err := svc.UpdateStatus(ctx, order.Number, domain.StatusReady, "owner")
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	_, err = svc.UpdateStatus(ctx, order.Number, domain.Status("cancelled"), "owner")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	for _, next := range []domain.Status{domain.StatusPreparing, domain.StatusReady, domain.StatusDelivered} {
		updated, err := svc.UpdateStatus(ctx, order.Number, next, "owner")
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	_, err = svc.UpdateStatus(ctx, order.Number, domain.StatusCompleted, "owner")
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	require.Len(t, pub.updates, 3)
	assert.Equal(t, domain.StatusReady, pub.updates[2].OldStatus)

	history, err := svc.GetOrderHistory(ctx, order.Number)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, domain.StatusPending, history[0].Status)
	assert.Equal(t, domain.StatusDelivered, history[3].Status)

	status, err := svc.GetOrderStatus(ctx, order.Number)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, status.CurrentStatus)
	assert.Nil(t, status.EstimatedCompletion)
}

func TestGetOrderStatusEstimatesWhilePreparing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store.Orders(), store.Baristas(), nil, logger.NewNop())
	order := placeOrder(t, store, "3.50")

	updated, err := svc.UpdateStatus(ctx, order.Number, domain.StatusPreparing, "alice")
	require.NoError(t, err)

	status, err := svc.GetOrderStatus(ctx, order.Number)
	require.NoError(t, err)
	require.NotNil(t, status.EstimatedCompletion)
	assert.Equal(t, updated.UpdatedAt.Add(4*time.Second), *status.EstimatedCompletion)

	_, err = svc.GetOrderStatus(ctx, "ORD_19990101_0001")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListOrdersFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store.Orders(), store.Baristas(), nil, logger.NewNop())
	first := placeOrder(t, store, "3.50")
	second := placeOrder(t, store, "4.50")
	_, err := svc.UpdateStatus(ctx, first.Number, domain.StatusPreparing, "alice")
	require.NoError(t, err)

	all, err := svc.ListOrders(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.Number, all[0].Number)

	pending := domain.StatusPending
	only, err := svc.ListOrders(ctx, &pending)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, second.Number, only[0].Number)

	bogus := domain.Status("lost")
	_, err = svc.ListOrders(ctx, &bogus)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestDashboardAndBaristas(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store.Orders(), store.Baristas(), nil, logger.NewNop())

	fresh, err := domain.NewBarista("alice", "general")
	require.NoError(t, err)
	require.NoError(t, store.Baristas().Create(ctx, fresh))

	stale, err := domain.NewBarista("bob", "general")
	require.NoError(t, err)
	stale.LastSeen = time.Now().Add(-2 * OfflineTimeout)
	require.NoError(t, store.Baristas().Create(ctx, stale))

	first := placeOrder(t, store, "3.50")
	placeOrder(t, store, "4.50")
	_, err = svc.UpdateStatus(ctx, first.Number, domain.StatusPreparing, "alice")
	require.NoError(t, err)

	baristas, err := svc.GetBaristasStatus(ctx)
	require.NoError(t, err)
	require.Len(t, baristas, 2)
	assert.Equal(t, domain.BaristaStatusOnline, baristas[0].Status)
	assert.Equal(t, domain.BaristaStatusOffline, baristas[1].Status)

	dash, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, dash.Pending)
	assert.Equal(t, 1, dash.Preparing)
	assert.Equal(t, 2, dash.OrdersToday)
	// 3.78 + 4.86
	assert.Equal(t, "8.64", dash.RevenueToday)
	assert.Equal(t, 1, dash.OnlineBaristas)
}
