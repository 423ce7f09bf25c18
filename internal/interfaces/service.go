package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/cafe/internal/domain"
)

// Аутентификация
type TokenClaims struct {
	UserID    string
	Role      domain.Role
	ExpiresAt time.Time
}

type TokenIssuer interface {
	Issue(user *domain.User) (string, time.Time, error)
	Verify(token string) (*TokenClaims, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Интерфейсы Сервисов (Business Logic)
type BaristaService interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
	ProcessOrder(ctx context.Context, msg OrderMessage) error
}

type TrackingService interface {
	GetOrderStatus(ctx context.Context, orderNumber string) (*TrackingOrderResponse, error)
	GetOrderHistory(ctx context.Context, orderNumber string) ([]*domain.StatusLog, error)
	ListOrders(ctx context.Context, status *domain.Status) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, orderNumber string, status domain.Status, changedBy string) (*domain.Order, error)
	GetBaristasStatus(ctx context.Context) ([]*TrackingBaristaResponse, error)
	Dashboard(ctx context.Context) (*DashboardResponse, error)
}

// Ответы Tracking Service
type TrackingOrderResponse struct {
	OrderNumber         string
	CurrentStatus       domain.Status
	UpdatedAt           time.Time
	EstimatedCompletion *time.Time
	ProcessedBy         *string
}

type TrackingBaristaResponse struct {
	Name            string
	Status          domain.BaristaStatus
	OrdersProcessed int
	LastSeen        time.Time
}

type DashboardResponse struct {
	Pending        int
	Preparing      int
	Ready          int
	OrdersToday    int
	RevenueToday   string
	OnlineBaristas int
}
