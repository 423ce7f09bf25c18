package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

// OfflineTimeout is how long a barista may miss heartbeats before it is
// shown as offline.
const OfflineTimeout = 60 * time.Second

type Service struct {
	orderRepo   interfaces.OrderRepository
	baristaRepo interfaces.BaristaRepository
	publisher   interfaces.MessagePublisher
	logger      logger.Logger
	now         func() time.Time
}

func NewService(
	orderRepo interfaces.OrderRepository,
	baristaRepo interfaces.BaristaRepository,
	publisher interfaces.MessagePublisher,
	logger logger.Logger,
) *Service {
	return &Service{
		orderRepo:   orderRepo,
		baristaRepo: baristaRepo,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) find(ctx context.Context, orderNumber string) (*domain.Order, error) {
	order, found, err := s.orderRepo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("order %s: %w", orderNumber, domain.ErrNotFound)
	}
	return order, nil
}

func (s *Service) GetOrderStatus(ctx context.Context, orderNumber string) (*interfaces.TrackingOrderResponse, error) {
	order, err := s.find(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	resp := &interfaces.TrackingOrderResponse{
		OrderNumber:   order.Number,
		CurrentStatus: order.Status,
		UpdatedAt:     order.UpdatedAt,
		ProcessedBy:   order.ProcessedBy,
	}
	if order.Status == domain.StatusPreparing {
		est := order.UpdatedAt.Add(order.PrepTime())
		resp.EstimatedCompletion = &est
	}
	return resp, nil
}

func (s *Service) GetOrderHistory(ctx context.Context, orderNumber string) ([]*domain.StatusLog, error) {
	order, err := s.find(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	return s.orderRepo.GetStatusHistory(ctx, order.ID)
}

// ListOrders returns the newest orders first, optionally narrowed to one
// status.
func (s *Service) ListOrders(ctx context.Context, status *domain.Status) ([]*domain.Order, error) {
	if status != nil && !status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}
	return s.orderRepo.List(ctx, interfaces.OrderFilter{Status: status, Limit: 100})
}

// UpdateStatus is the staff override of the order state machine. Only
// forward transitions are accepted.
func (s *Service) UpdateStatus(ctx context.Context, orderNumber string, status domain.Status, changedBy string) (*domain.Order, error) {
	order, err := s.find(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	old := order.Status
	if err := order.TransitionTo(status, changedBy); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(ctx, order, old, changedBy); err != nil {
		return nil, err
	}

	s.logger.Info("order_status_updated", fmt.Sprintf("Order %s: %s -> %s", order.Number, old, status), "", map[string]interface{}{
		"changed_by": changedBy,
	})

	if s.publisher != nil {
		msg := interfaces.StatusUpdateMessage{
			OrderNumber: order.Number,
			OldStatus:   old,
			NewStatus:   status,
			ChangedBy:   changedBy,
			Timestamp:   order.UpdatedAt,
		}
		if err := s.publisher.PublishStatusUpdate(context.WithoutCancel(ctx), msg); err != nil {
			s.logger.Error("rabbitmq_publish_failed", "Failed to publish status update", "", nil, err)
		}
	}
	return order, nil
}

func (s *Service) GetBaristasStatus(ctx context.Context) ([]*interfaces.TrackingBaristaResponse, error) {
	baristas, err := s.baristaRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	resp := make([]*interfaces.TrackingBaristaResponse, 0, len(baristas))
	for _, b := range baristas {
		status := domain.BaristaStatusOffline
		if b.IsOnline(now, OfflineTimeout) {
			status = domain.BaristaStatusOnline
		}
		resp = append(resp, &interfaces.TrackingBaristaResponse{
			Name:            b.Name,
			Status:          status,
			OrdersProcessed: b.OrdersProcessed,
			LastSeen:        b.LastSeen,
		})
	}
	return resp, nil
}

// Dashboard summarises the live queue and today's takings.
func (s *Service) Dashboard(ctx context.Context) (*interfaces.DashboardResponse, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	stats, err := s.orderRepo.Stats(ctx, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to load order stats: %w", err)
	}

	baristas, err := s.GetBaristasStatus(ctx)
	if err != nil {
		return nil, err
	}
	online := 0
	for _, b := range baristas {
		if b.Status == domain.BaristaStatusOnline {
			online++
		}
	}

	return &interfaces.DashboardResponse{
		Pending:        stats.Pending,
		Preparing:      stats.Preparing,
		Ready:          stats.Ready,
		OrdersToday:    stats.Count,
		RevenueToday:   stats.Revenue.StringFixed(2),
		OnlineBaristas: online,
	}, nil
}
