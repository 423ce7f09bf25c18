package barista

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

func placeOrder(t *testing.T, store *memory.Store, table *string) *domain.Order {
	t.Helper()
	ctx := context.Background()
	cart := domain.Cart{Items: []domain.LineItem{{
		ID: "l-1", ProductID: "pastry-1", Name: "Croissant", Price: decimal.RequireFromString("3.25"), Quantity: 3,
	}}}
	totals := domain.ComputeTotals(cart.Subtotal(), domain.DefaultTaxRate, decimal.Zero)
	order, err := domain.NewOrder(cart, totals, nil, table, nil, time.Now())
	require.NoError(t, err)
	order.Number, err = store.Orders().GenerateOrderNumber(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Orders().PlaceOrder(ctx, order))
	return order
}

func newBarista(store *memory.Store, pub interfaces.MessagePublisher, types ...string) (*Service, *[]time.Duration) {
	svc := NewService(store.Orders(), store.Baristas(), pub, logger.NewNop(), "alice", types, 0)
	var waited []time.Duration
	svc.wait = func(_ context.Context, d time.Duration) error {
		waited = append(waited, d)
		return nil
	}
	return svc, &waited
}

func TestProcessOrderPreparesAndReadies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	svc, waited := newBarista(store, pub)
	require.NoError(t, svc.Start(ctx))

	order := placeOrder(t, store, nil)
	require.NoError(t, svc.ProcessOrder(ctx, interfaces.NewOrderMessage(order)))

	stored, _, err := store.Orders().FindByNumber(ctx, order.Number)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, stored.Status)
	require.NotNil(t, stored.ProcessedBy)
	assert.Equal(t, "alice", *stored.ProcessedBy)

	// takeaway: 6s base plus 1s for each extra item
	assert.Equal(t, []time.Duration{8 * time.Second}, *waited)

	require.Len(t, pub.updates, 2)
	assert.Equal(t, domain.StatusPending, pub.updates[0].OldStatus)
	assert.Equal(t, domain.StatusPreparing, pub.updates[0].NewStatus)
	assert.NotNil(t, pub.updates[0].EstimatedCompletion)
	assert.Equal(t, domain.StatusReady, pub.updates[1].NewStatus)
	assert.Nil(t, pub.updates[1].EstimatedCompletion)

	history, err := store.Orders().GetStatusHistory(ctx, stored.ID)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	b, _, err := store.Baristas().FindByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, b.OrdersProcessed)
}

func TestProcessOrderIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	svc, _ := newBarista(store, pub)
	require.NoError(t, svc.Start(ctx))

	order := placeOrder(t, store, nil)
	msg := interfaces.NewOrderMessage(order)
	require.NoError(t, svc.ProcessOrder(ctx, msg))
	require.NoError(t, svc.ProcessOrder(ctx, msg))

	assert.Len(t, pub.updates, 2)
	b, _, err := store.Baristas().FindByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, b.OrdersProcessed)
}

func TestProcessOrderStationMismatch(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc, _ := newBarista(store, nil, "dine_in")

	table := "5"
	dineIn := placeOrder(t, store, &table)
	takeaway := placeOrder(t, store, nil)

	err := svc.ProcessOrder(ctx, interfaces.NewOrderMessage(takeaway))
	assert.ErrorIs(t, err, domain.ErrStationMismatch)

	require.NoError(t, svc.ProcessOrder(ctx, interfaces.NewOrderMessage(dineIn)))
	stored, _, err := store.Orders().FindByNumber(ctx, dineIn.Number)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, stored.Status)
}

func TestProcessOrderUnknownOrder(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newBarista(store, nil)

	err := svc.ProcessOrder(context.Background(), interfaces.OrderMessage{OrderNumber: "ORD_20260101_0001", OrderType: domain.OrderTypeTakeaway})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func interrupt(svc *Service) {
	svc.wait = func(context.Context, time.Duration) error { return context.Canceled }
}

func TestProcessOrderResumesInterruptedPreparation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	svc, waited := newBarista(store, pub)
	require.NoError(t, svc.Start(ctx))

	order := placeOrder(t, store, nil)
	msg := interfaces.NewOrderMessage(order)

	record := svc.wait
	interrupt(svc)
	assert.ErrorIs(t, svc.ProcessOrder(ctx, msg), context.Canceled)

	stored, _, err := store.Orders().FindByNumber(ctx, order.Number)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, stored.Status)

	// redelivery after restart
	svc.wait = record
	require.NoError(t, svc.ProcessOrder(ctx, msg))

	stored, _, err = store.Orders().FindByNumber(ctx, order.Number)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, stored.Status)
	require.Len(t, *waited, 1)
	assert.LessOrEqual(t, (*waited)[0], order.PrepTime())

	b, _, err := store.Baristas().FindByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, b.OrdersProcessed)
}

func TestProcessOrderLeavesOrderOfOnlineBarista(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	bob := NewService(store.Orders(), store.Baristas(), nil, logger.NewNop(), "bob", nil, time.Minute)
	interrupt(bob)
	require.NoError(t, bob.Start(runCtx))

	order := placeOrder(t, store, nil)
	msg := interfaces.NewOrderMessage(order)
	assert.Error(t, bob.ProcessOrder(ctx, msg))

	alice, waited := newBarista(store, nil)
	require.NoError(t, alice.ProcessOrder(ctx, msg))

	stored, _, err := store.Orders().FindByNumber(ctx, order.Number)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, stored.Status)
	assert.Empty(t, *waited)

	// bob уходит, заказ переходит к alice
	require.NoError(t, bob.Shutdown(ctx))
	require.NoError(t, alice.ProcessOrder(ctx, msg))

	stored, _, err = store.Orders().FindByNumber(ctx, order.Number)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, stored.Status)
	require.NotNil(t, stored.ProcessedBy)
	assert.Equal(t, "alice", *stored.ProcessedBy)
}

func TestStartRefusesOnlineDuplicateAndShutdown(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	first := NewService(store.Orders(), store.Baristas(), nil, logger.NewNop(), "bob", nil, time.Minute)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	require.NoError(t, first.Start(runCtx))

	second := NewService(store.Orders(), store.Baristas(), nil, logger.NewNop(), "bob", nil, time.Minute)
	assert.Error(t, second.Start(ctx))

	require.NoError(t, first.Shutdown(ctx))
	b, _, err := store.Baristas().FindByName(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.BaristaStatusOffline, b.Status)

	require.NoError(t, second.Start(runCtx))
	b, _, err = store.Baristas().FindByName(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.BaristaStatusOnline, b.Status)
}
