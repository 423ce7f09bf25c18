package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
	"github.com/shopspring/decimal"
)

// Store is an in-process replacement for the postgres repositories. One
// mutex guards every table so PlaceOrder is atomic like its SQL twin.
type Store struct {
	mu sync.Mutex

	products   map[string]domain.Product
	users      map[string]*domain.User
	orders     []*domain.Order
	statusLogs map[int][]*domain.StatusLog
	giftCards  map[string]*domain.GiftCard
	baristas   map[string]*domain.Barista

	orderSeq int
	logSeq   int
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		products:   make(map[string]domain.Product),
		users:      make(map[string]*domain.User),
		statusLogs: make(map[int][]*domain.StatusLog),
		giftCards:  make(map[string]*domain.GiftCard),
		baristas:   make(map[string]*domain.Barista),
		now:        time.Now,
	}
}

func (s *Store) Products() interfaces.ProductRepository { return productRepo{s} }
func (s *Store) Users() interfaces.UserRepository       { return userRepo{s} }
func (s *Store) Orders() interfaces.OrderRepository     { return orderRepo{s} }
func (s *Store) GiftCards() interfaces.GiftCardRepository {
	return giftCardRepo{s}
}
func (s *Store) Baristas() interfaces.BaristaRepository { return baristaRepo{s} }

// --- products ---

type productRepo struct{ s *Store }

func (r productRepo) List(_ context.Context) ([]domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r productRepo) FindByID(_ context.Context, id string) (*domain.Product, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func (r productRepo) Upsert(_ context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.products[p.ID] = *p
	return nil
}

// --- users ---

type userRepo struct{ s *Store }

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.Orders = append([]string(nil), u.Orders...)
	return &c
}

func (r userRepo) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return domain.ErrUserExists
		}
	}
	r.s.users[u.ID] = copyUser(u)
	return nil
}

func (r userRepo) FindByID(_ context.Context, id string) (*domain.User, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, false, nil
	}
	return copyUser(u), true, nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*domain.User, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return copyUser(u), true, nil
		}
	}
	return nil, false, nil
}

func (r userRepo) List(_ context.Context) ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r userRepo) Update(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	for id, other := range r.s.users {
		if id != u.ID && other.Email == u.Email {
			return domain.ErrUserExists
		}
	}
	updated := copyUser(u)
	updated.Points = existing.Points
	updated.Orders = existing.Orders
	r.s.users[u.ID] = updated
	return nil
}

func (r userRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r userRepo) AddPoints(_ context.Context, id string, delta int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	u.Points += delta
	return u.Points, nil
}

// --- orders ---

type orderRepo struct{ s *Store }

func copyOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	return &c
}

func (r orderRepo) GenerateOrderNumber(_ context.Context) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.orderSeq++
	return fmt.Sprintf("ORD_%s_%04d", r.s.now().UTC().Format("20060102"), r.s.orderSeq), nil
}

func (r orderRepo) PlaceOrder(ctx context.Context, o *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	var card *domain.GiftCard
	if o.GiftCardCode != nil && o.GiftCardAmount.IsPositive() {
		c, ok := r.s.giftCards[*o.GiftCardCode]
		if !ok || c.Balance.LessThan(o.GiftCardAmount) {
			return domain.ErrGiftCardBalanceChanged
		}
		card = c
	}

	var customer *domain.User
	if o.CustomerID != nil {
		u, ok := r.s.users[*o.CustomerID]
		if !ok {
			return fmt.Errorf("customer %s: %w", *o.CustomerID, domain.ErrNotFound)
		}
		customer = u
	}

	// all checks passed; apply every effect
	if card != nil {
		if err := card.Debit(o.GiftCardAmount); err != nil {
			return err
		}
	}
	if customer != nil {
		customer.Points += o.PointsEarned
		customer.Orders = append(customer.Orders, o.Number)
	}

	o.ID = len(r.s.orders) + 1
	for i := range o.Items {
		o.Items[i].ID = o.ID*1000 + i + 1
		o.Items[i].OrderID = o.ID
	}
	r.s.orders = append(r.s.orders, copyOrder(o))
	r.s.appendLog(o.ID, o.Status, "storefront", o.CreatedAt)
	return nil
}

func (s *Store) appendLog(orderID int, status domain.Status, changedBy string, at time.Time) {
	s.logSeq++
	s.statusLogs[orderID] = append(s.statusLogs[orderID], &domain.StatusLog{
		ID: s.logSeq, OrderID: orderID, Status: status, ChangedBy: changedBy, ChangedAt: at,
	})
}

func (r orderRepo) FindByNumber(_ context.Context, number string) (*domain.Order, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, o := range r.s.orders {
		if o.Number == number {
			return copyOrder(o), true, nil
		}
	}
	return nil, false, nil
}

func (r orderRepo) List(_ context.Context, f interfaces.OrderFilter) ([]*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*domain.Order
	for i := len(r.s.orders) - 1; i >= 0; i-- {
		o := r.s.orders[i]
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.CustomerID != nil && (o.CustomerID == nil || *o.CustomerID != *f.CustomerID) {
			continue
		}
		out = append(out, copyOrder(o))
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (r orderRepo) UpdateStatus(_ context.Context, o *domain.Order, from domain.Status, changedBy string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i, stored := range r.s.orders {
		if stored.ID != o.ID {
			continue
		}
		if stored.Status != from {
			return domain.ErrInvalidStatusTransition
		}
		r.s.orders[i] = copyOrder(o)
		r.s.appendLog(o.ID, o.Status, changedBy, o.UpdatedAt)
		return nil
	}
	return domain.ErrNotFound
}

func (r orderRepo) GetStatusHistory(_ context.Context, orderID int) ([]*domain.StatusLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	logs := r.s.statusLogs[orderID]
	out := make([]*domain.StatusLog, len(logs))
	for i, l := range logs {
		c := *l
		out[i] = &c
	}
	return out, nil
}

func (r orderRepo) Stats(_ context.Context, since time.Time) (interfaces.OrderStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stats := interfaces.OrderStats{Revenue: decimal.Zero}
	for _, o := range r.s.orders {
		switch o.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusPreparing:
			stats.Preparing++
		case domain.StatusReady:
			stats.Ready++
		}
		if !o.CreatedAt.Before(since) {
			stats.Count++
			stats.Revenue = stats.Revenue.Add(o.Total)
		}
	}
	return stats, nil
}

// --- gift cards ---

type giftCardRepo struct{ s *Store }

func (r giftCardRepo) Create(_ context.Context, card *domain.GiftCard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	code := domain.CanonicalGiftCardCode(card.Code)
	if _, ok := r.s.giftCards[code]; ok {
		return fmt.Errorf("gift card %s already exists", code)
	}
	c := *card
	c.Code = code
	r.s.giftCards[code] = &c
	return nil
}

func (r giftCardRepo) FindByCode(_ context.Context, code string) (*domain.GiftCard, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.giftCards[domain.CanonicalGiftCardCode(code)]
	if !ok {
		return nil, false, nil
	}
	cp := *c
	return &cp, true, nil
}

// --- baristas ---

type baristaRepo struct{ s *Store }

func (r baristaRepo) Create(_ context.Context, b *domain.Barista) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.baristas[b.Name]; ok {
		return fmt.Errorf("barista %s already exists", b.Name)
	}
	b.ID = len(r.s.baristas) + 1
	c := *b
	r.s.baristas[b.Name] = &c
	return nil
}

func (r baristaRepo) FindByName(_ context.Context, name string) (*domain.Barista, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.baristas[name]
	if !ok {
		return nil, false, nil
	}
	c := *b
	return &c, true, nil
}

func (r baristaRepo) Update(_ context.Context, b *domain.Barista) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.baristas[b.Name]; !ok {
		return domain.ErrNotFound
	}
	c := *b
	r.s.baristas[b.Name] = &c
	return nil
}

func (r baristaRepo) Heartbeat(_ context.Context, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.baristas[name]
	if !ok {
		return domain.ErrNotFound
	}
	b.Heartbeat(r.s.now())
	return nil
}

func (r baristaRepo) ListAll(_ context.Context) ([]*domain.Barista, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.Barista, 0, len(r.s.baristas))
	for _, b := range r.s.baristas {
		c := *b
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r baristaRepo) IncrementOrdersProcessed(_ context.Context, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.baristas[name]
	if !ok {
		return domain.ErrNotFound
	}
	b.OrdersProcessed++
	return nil
}
