package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

var ErrSessionClosed = errors.New("session closed")

// UserSnapshot is the signed-in user remembered by the session.
type UserSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session holds the ledgers of one storefront visitor. All reads and writes
// go through Do, which serializes them.
type Session struct {
	id     string
	store  interfaces.StateStore
	logger logger.Logger

	mu       sync.Mutex
	closed   bool
	cart     domain.Cart
	table    domain.TableSession
	user     *UserSnapshot
	giftCard *domain.GiftCardApplication

	loadOnce sync.Once
	loadErr  error
	lastUsed atomic.Int64
}

func newSession(id string, store interfaces.StateStore, lgr logger.Logger) *Session {
	return &Session{id: id, store: store, logger: lgr}
}

func (s *Session) ID() string {
	return s.id
}

// Do runs fn with exclusive access to the session state.
func (s *Session) Do(ctx context.Context, fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&State{s: s})
}

func (s *Session) touch(now time.Time) {
	s.lastUsed.Store(now.UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// load reads every persisted key once. Corrupt values are logged and start
// empty; store failures abort the load.
func (s *Session) load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []domain.LineItem
	ok, err := s.get(ctx, KeyCart, &items)
	if err != nil {
		return err
	}
	if ok {
		if validLines(items) {
			s.cart = domain.Cart{Items: items}
		} else {
			s.corrupt(KeyCart, fmt.Errorf("cart contains invalid lines"))
		}
	}

	var table string
	ok, err = s.get(ctx, KeyTableNumber, &table)
	if err != nil {
		return err
	}
	if ok {
		var restored domain.TableSession
		if _, err := restored.BindFromScan("table-" + table); err != nil {
			s.corrupt(KeyTableNumber, err)
		} else {
			s.table = restored
		}
	}

	var user UserSnapshot
	ok, err = s.get(ctx, KeyUser, &user)
	if err != nil {
		return err
	}
	if ok && user.ID != "" {
		s.user = &user
	}

	s.logger.Debug("session_loaded", "Session state loaded", s.id, map[string]interface{}{
		"cart_lines":   len(s.cart.Items),
		"table_active": s.table.HasActiveTable(),
	})
	return nil
}

func (s *Session) get(ctx context.Context, key string, v interface{}) (bool, error) {
	raw, ok, err := s.store.Get(ctx, s.id, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := Decode(raw, v); err != nil {
		s.corrupt(key, err)
		return false, nil
	}
	return true, nil
}

func (s *Session) put(ctx context.Context, key string, v interface{}) error {
	raw, err := Encode(v)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, s.id, key, raw); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}

func (s *Session) corrupt(key string, err error) {
	s.logger.Error("state_corrupt", fmt.Sprintf("Discarding corrupt %s state", key), s.id,
		map[string]interface{}{"key": key}, err)
}

func validLines(items []domain.LineItem) bool {
	seen := make(map[string]bool, len(items))
	for _, l := range items {
		if l.ID == "" || l.ProductID == "" || l.Quantity < 1 || l.Price.IsNegative() || seen[l.ID] {
			return false
		}
		seen[l.ID] = true
	}
	return true
}

// State is the view of a session handed to Do. It must not escape fn.
type State struct {
	s *Session
}

func (st *State) SessionID() string {
	return st.s.id
}

// Cart returns a copy; use SaveCart to change it.
func (st *State) Cart() domain.Cart {
	return st.s.cart.Snapshot()
}

// SaveCart persists cart and only then makes it current, so a failed write
// leaves the previous cart in place.
func (st *State) SaveCart(ctx context.Context, cart domain.Cart) error {
	items := cart.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	if err := st.s.put(ctx, KeyCart, items); err != nil {
		return err
	}
	st.s.cart = cart
	return nil
}

// ClearCart empties the cart in memory even when the write fails.
func (st *State) ClearCart(ctx context.Context) error {
	st.s.cart = domain.Cart{}
	return st.s.put(ctx, KeyCart, []domain.LineItem{})
}

func (st *State) Table() domain.TableSession {
	t := st.s.table
	if t.TableNumber != nil {
		n := *t.TableNumber
		t.TableNumber = &n
	}
	return t
}

func (st *State) SaveTable(ctx context.Context, table domain.TableSession) error {
	if n, ok := table.Number(); ok {
		if err := st.s.put(ctx, KeyTableNumber, n); err != nil {
			return err
		}
	} else if err := st.s.store.Delete(ctx, st.s.id, KeyTableNumber); err != nil {
		return fmt.Errorf("failed to delete %s: %w", KeyTableNumber, err)
	}
	st.s.table = table
	return nil
}

func (st *State) User() *UserSnapshot {
	if st.s.user == nil {
		return nil
	}
	u := *st.s.user
	return &u
}

// SaveUser remembers the signed-in user; nil forgets it.
func (st *State) SaveUser(ctx context.Context, user *UserSnapshot) error {
	if user == nil {
		if err := st.s.store.Delete(ctx, st.s.id, KeyUser); err != nil {
			return fmt.Errorf("failed to delete %s: %w", KeyUser, err)
		}
		st.s.user = nil
		return nil
	}
	if err := st.s.put(ctx, KeyUser, user); err != nil {
		return err
	}
	u := *user
	st.s.user = &u
	return nil
}

// GiftCard is the provisional application for the next checkout. It lives
// in memory only.
func (st *State) GiftCard() *domain.GiftCardApplication {
	if st.s.giftCard == nil {
		return nil
	}
	app := *st.s.giftCard
	return &app
}

func (st *State) SetGiftCard(app *domain.GiftCardApplication) {
	if app == nil {
		st.s.giftCard = nil
		return
	}
	a := *app
	st.s.giftCard = &a
}

// Get decodes an arbitrary key. Corrupt values read as absent.
func (st *State) Get(ctx context.Context, key string, v interface{}) (bool, error) {
	return st.s.get(ctx, key, v)
}

func (st *State) Put(ctx context.Context, key string, v interface{}) error {
	return st.s.put(ctx, key, v)
}
