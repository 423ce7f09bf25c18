package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/shopspring/decimal"
)

// Интерфейсы Репозиториев (Adapter/Postgres)
//
// Lookups return found=false for a missing row; err is reserved for
// infrastructure failures.

type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, bool, error)
	Upsert(ctx context.Context, product *domain.Product) error
}

type UserRepository interface {
	// Create returns domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, bool, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, bool, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	// AddPoints atomically increments the balance and returns the new value.
	AddPoints(ctx context.Context, id string, delta int) (int, error)
}

type OrderFilter struct {
	Status     *domain.Status
	CustomerID *string
	Limit      int
}

type OrderStats struct {
	Pending   int
	Preparing int
	Ready     int
	Revenue   decimal.Decimal
	Count     int
}

type OrderRepository interface {
	GenerateOrderNumber(ctx context.Context) (string, error)
	// PlaceOrder writes the order, its items and first status log, debits
	// the gift card and awards points in a single transaction.
	PlaceOrder(ctx context.Context, order *domain.Order) error
	FindByNumber(ctx context.Context, number string) (*domain.Order, bool, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	// UpdateStatus fails with domain.ErrInvalidStatusTransition when the
	// stored status is no longer from.
	UpdateStatus(ctx context.Context, order *domain.Order, from domain.Status, changedBy string) error
	GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error)
	Stats(ctx context.Context, since time.Time) (OrderStats, error)
}

type GiftCardRepository interface {
	Create(ctx context.Context, card *domain.GiftCard) error
	FindByCode(ctx context.Context, code string) (*domain.GiftCard, bool, error)
}

type BaristaRepository interface {
	Create(ctx context.Context, barista *domain.Barista) error
	FindByName(ctx context.Context, name string) (*domain.Barista, bool, error)
	Update(ctx context.Context, barista *domain.Barista) error
	Heartbeat(ctx context.Context, name string) error
	ListAll(ctx context.Context) ([]*domain.Barista, error)
	IncrementOrdersProcessed(ctx context.Context, name string) error
}

// StateStore keeps versioned session values by (session, key).
type StateStore interface {
	Get(ctx context.Context, sessionID, key string) ([]byte, bool, error)
	Put(ctx context.Context, sessionID, key string, value []byte) error
	Delete(ctx context.Context, sessionID, key string) error
	DeleteSession(ctx context.Context, sessionID string) error
}
