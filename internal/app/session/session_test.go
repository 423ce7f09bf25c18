package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/adapter/memory"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	*memory.StateStore
	gets    atomic.Int32
	failPut bool
}

func (c *countingStore) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	c.gets.Add(1)
	return c.StateStore.Get(ctx, sessionID, key)
}

func (c *countingStore) Put(ctx context.Context, sessionID, key string, value []byte) error {
	if c.failPut {
		return errors.New("disk full")
	}
	return c.StateStore.Put(ctx, sessionID, key, value)
}

func line(id string, qty int) domain.LineItem {
	return domain.LineItem{ID: id, ProductID: "pastry-1", Name: "Croissant", Price: decimal.RequireFromString("3.25"), Quantity: qty}
}

func TestCodecRoundTripAndVersion(t *testing.T) {
	raw, err := Encode(7)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"data":7}`, string(raw))

	var n int
	require.NoError(t, Decode(raw, &n))
	assert.Equal(t, 7, n)

	err = Decode([]byte(`{"version":2,"data":7}`), &n)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	assert.Error(t, Decode([]byte(`{"version":1}`), &n))
	assert.Error(t, Decode([]byte(`not json`), &n))
}

func TestOpenLoadsOnce(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{StateStore: memory.NewStateStore()}
	m := NewManager(store, logger.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Open(ctx, "s-1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// cart, tableNumber and user are each read once.
	assert.Equal(t, int32(3), store.gets.Load())
	assert.Equal(t, 1, m.Len())
}

func TestStatePersistsAcrossManagers(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStateStore()

	s, err := NewManager(store, logger.NewNop()).Open(ctx, "s-1")
	require.NoError(t, err)
	err = s.Do(ctx, func(st *State) error {
		cart := st.Cart()
		cart.Items = append(cart.Items, line("l-1", 2))
		if err := st.SaveCart(ctx, cart); err != nil {
			return err
		}
		n := "07"
		if err := st.SaveTable(ctx, domain.TableSession{TableNumber: &n}); err != nil {
			return err
		}
		return st.SaveUser(ctx, &UserSnapshot{ID: "u-1", Name: "John", Email: "john@example.com"})
	})
	require.NoError(t, err)

	reopened, err := NewManager(store, logger.NewNop()).Open(ctx, "s-1")
	require.NoError(t, err)
	require.NoError(t, reopened.Do(ctx, func(st *State) error {
		cart := st.Cart()
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 2, cart.Items[0].Quantity)
		n, ok := st.Table().Number()
		assert.True(t, ok)
		assert.Equal(t, "07", n)
		require.NotNil(t, st.User())
		assert.Equal(t, "u-1", st.User().ID)
		return nil
	}))
}

func TestCorruptStateStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStateStore()
	require.NoError(t, store.Put(ctx, "s-1", KeyCart, []byte(`{"version":1,"data":"oops"}`)))
	require.NoError(t, store.Put(ctx, "s-1", KeyTableNumber, []byte(`{"version":9,"data":3}`)))

	bad, err := Encode([]domain.LineItem{line("l-1", 0)})
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "s-2", KeyCart, bad))
	require.NoError(t, store.Put(ctx, "s-2", KeyTableNumber, []byte(`{"version":1,"data":"12a"}`)))
	require.NoError(t, store.Put(ctx, "s-3", KeyTableNumber, []byte(`{"version":1,"data":3}`)))

	m := NewManager(store, logger.NewNop())
	for _, id := range []string{"s-1", "s-2", "s-3"} {
		s, err := m.Open(ctx, id)
		require.NoError(t, err)
		require.NoError(t, s.Do(ctx, func(st *State) error {
			assert.Zero(t, st.Cart().Len())
			assert.False(t, st.Table().HasActiveTable())
			return nil
		}))
	}
}

func TestFailedSaveKeepsPreviousCart(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{StateStore: memory.NewStateStore()}
	s, err := NewManager(store, logger.NewNop()).Open(ctx, "s-1")
	require.NoError(t, err)

	require.NoError(t, s.Do(ctx, func(st *State) error {
		return st.SaveCart(ctx, domain.Cart{Items: []domain.LineItem{line("l-1", 1)}})
	}))

	store.failPut = true
	err = s.Do(ctx, func(st *State) error {
		return st.SaveCart(ctx, domain.Cart{Items: []domain.LineItem{line("l-1", 5)}})
	})
	require.Error(t, err)

	require.NoError(t, s.Do(ctx, func(st *State) error {
		assert.Equal(t, 1, st.Cart().Items[0].Quantity)
		return nil
	}))
}

func TestCloseDeletesState(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStateStore()
	m := NewManager(store, logger.NewNop())

	s, err := m.Open(ctx, "s-1")
	require.NoError(t, err)
	require.NoError(t, s.Do(ctx, func(st *State) error {
		return st.SaveCart(ctx, domain.Cart{Items: []domain.LineItem{line("l-1", 1)}})
	}))

	require.NoError(t, m.Close(ctx, "s-1"))
	assert.ErrorIs(t, s.Do(ctx, func(*State) error { return nil }), ErrSessionClosed)

	_, ok, err := store.Get(ctx, "s-1", KeyCart)
	require.NoError(t, err)
	assert.False(t, ok)

	fresh, err := m.Open(ctx, "s-1")
	require.NoError(t, err)
	require.NoError(t, fresh.Do(ctx, func(st *State) error {
		assert.Zero(t, st.Cart().Len())
		return nil
	}))
}

func TestEvictIdle(t *testing.T) {
	ctx := context.Background()
	m := NewManager(memory.NewStateStore(), logger.NewNop())
	now := time.Now()
	m.now = func() time.Time { return now }

	_, err := m.Open(ctx, "old")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = m.Open(ctx, "new")
	require.NoError(t, err)

	assert.Equal(t, 1, m.EvictIdle(30*time.Minute))
	assert.Equal(t, 1, m.Len())
}

func TestDoRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, err := NewManager(memory.NewStateStore(), logger.NewNop()).Open(ctx, "s-1")
	require.NoError(t, err)

	cancel()
	called := false
	err = s.Do(ctx, func(*State) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
