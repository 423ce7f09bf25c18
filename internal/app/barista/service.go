package barista

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

// defaultHandoverTimeout is how long a silent barista keeps its preparing
// orders when no heartbeat interval is configured.
const defaultHandoverTimeout = time.Minute

type Service struct {
	orderRepo         interfaces.OrderRepository
	baristaRepo       interfaces.BaristaRepository
	publisher         interfaces.MessagePublisher
	logger            logger.Logger
	name              string
	orderTypes        []domain.OrderType
	heartbeatInterval time.Duration

	// wait simulates preparation; replaced in tests
	wait func(ctx context.Context, d time.Duration) error
}

func NewService(
	orderRepo interfaces.OrderRepository,
	baristaRepo interfaces.BaristaRepository,
	publisher interfaces.MessagePublisher,
	logger logger.Logger,
	name string,
	orderTypes []string,
	heartbeatInterval time.Duration,
) *Service {
	var types []domain.OrderType
	for _, t := range orderTypes {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, domain.OrderType(t))
		}
	}

	return &Service{
		orderRepo:         orderRepo,
		baristaRepo:       baristaRepo,
		publisher:         publisher,
		logger:            logger,
		name:              name,
		orderTypes:        types,
		heartbeatInterval: heartbeatInterval,
		wait:              sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (s *Service) station() string {
	if len(s.orderTypes) == 0 {
		return "general"
	}
	parts := make([]string, len(s.orderTypes))
	for i, t := range s.orderTypes {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

// Start registers the barista and keeps its heartbeat fresh until ctx is
// done. A barista name that is already online is refused.
func (s *Service) Start(ctx context.Context) error {
	// 1. Регистрация бариста
	barista, found, err := s.baristaRepo.FindByName(ctx, s.name)
	if err != nil {
		return fmt.Errorf("failed to look up barista: %w", err)
	}

	if found {
		if barista.IsOnline(time.Now(), 2*s.heartbeatInterval) {
			return fmt.Errorf("barista %s is already online", s.name)
		}
		barista.Station = s.station()
		barista.Heartbeat(time.Now())
		if err := s.baristaRepo.Update(ctx, barista); err != nil {
			return err
		}
	} else {
		barista, err = domain.NewBarista(s.name, s.station())
		if err != nil {
			return err
		}
		if err := s.baristaRepo.Create(ctx, barista); err != nil {
			return err
		}
	}

	s.logger.Info("barista_registered", fmt.Sprintf("Barista %s registered", s.name), "", map[string]interface{}{
		"station": barista.Station,
	})

	// Heartbeat в фоне
	if s.heartbeatInterval > 0 {
		go s.heartbeatLoop(ctx)
	}
	return nil
}

func (s *Service) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.baristaRepo.Heartbeat(ctx, s.name); err != nil {
				s.logger.Error("heartbeat_failed", "Failed to update heartbeat", "", nil, err)
			} else {
				s.logger.Debug("heartbeat_sent", "Heartbeat sent", "", nil)
			}
		}
	}
}

func (s *Service) Shutdown(ctx context.Context) error {
	barista, found, err := s.baristaRepo.FindByName(ctx, s.name)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	barista.SetOffline()
	if err := s.baristaRepo.Update(ctx, barista); err != nil {
		return err
	}
	s.logger.Info("barista_offline", fmt.Sprintf("Barista %s went offline", s.name), "", nil)
	return nil
}

// ProcessOrder moves a pending order through preparing to ready. A redelivered
// order left in preparing is resumed when this barista started it or its owner
// has gone offline; anything else that is no longer pending is acknowledged
// without changes.
func (s *Service) ProcessOrder(ctx context.Context, msg interfaces.OrderMessage) error {
	// 1. Проверка станции; consumer вернёт заказ в очередь
	if !s.serves(msg.OrderType) {
		return fmt.Errorf("%w: %s cannot handle %s", domain.ErrStationMismatch, s.name, msg.OrderType)
	}

	s.logger.Debug("order_processing_started", fmt.Sprintf("Processing order %s", msg.OrderNumber), "",
		map[string]interface{}{"order_number": msg.OrderNumber})

	order, found, err := s.orderRepo.FindByNumber(ctx, msg.OrderNumber)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("order %s: %w", msg.OrderNumber, domain.ErrNotFound)
	}

	switch order.Status {
	case domain.StatusPending:
		// 2. Начало приготовления
		if err := s.updateStatusAndNotify(ctx, order, domain.StatusPreparing); err != nil {
			return err
		}
		return s.finish(ctx, order, order.PrepTime())

	case domain.StatusPreparing:
		resume, err := s.canResume(ctx, order)
		if err != nil {
			return err
		}
		if resume {
			remaining := order.PrepTime() - time.Since(order.UpdatedAt)
			if remaining < 0 {
				remaining = 0
			}
			s.logger.Info("order_resumed", fmt.Sprintf("Resuming order %s", order.Number), "",
				map[string]interface{}{"remaining": remaining.String()})
			return s.finish(ctx, order, remaining)
		}
	}

	// Идемпотентность: уже готовится у другого бариста или готов
	s.logger.Debug("order_already_processed", fmt.Sprintf("Order %s is %s, skipping", order.Number, order.Status), "", nil)
	return nil
}

// finish waits out the preparation and marks the order ready.
func (s *Service) finish(ctx context.Context, order *domain.Order, prep time.Duration) error {
	// 3. Симуляция времени приготовления
	if err := s.wait(ctx, prep); err != nil {
		return err
	}

	// 4. Готово
	if err := s.updateStatusAndNotify(ctx, order, domain.StatusReady); err != nil {
		return err
	}

	if err := s.baristaRepo.IncrementOrdersProcessed(ctx, s.name); err != nil {
		s.logger.Error("db_error", "Failed to increment barista stats", "", nil, err)
	}

	s.logger.Debug("order_ready", fmt.Sprintf("Order %s ready", order.Number), "", nil)
	return nil
}

// canResume reports whether a preparing order is ours to finish: it was
// started by this barista, or its barista is unknown or no longer online.
func (s *Service) canResume(ctx context.Context, order *domain.Order) (bool, error) {
	if order.ProcessedBy == nil || *order.ProcessedBy == s.name {
		return true, nil
	}
	owner, found, err := s.baristaRepo.FindByName(ctx, *order.ProcessedBy)
	if err != nil {
		return false, fmt.Errorf("failed to look up barista: %w", err)
	}
	if !found {
		return true, nil
	}
	return !owner.IsOnline(time.Now(), s.handoverTimeout()), nil
}

func (s *Service) handoverTimeout() time.Duration {
	if s.heartbeatInterval > 0 {
		return 2 * s.heartbeatInterval
	}
	return defaultHandoverTimeout
}

func (s *Service) serves(t domain.OrderType) bool {
	if len(s.orderTypes) == 0 {
		return true
	}
	for _, ot := range s.orderTypes {
		if ot == t {
			return true
		}
	}
	return false
}

func (s *Service) updateStatusAndNotify(ctx context.Context, order *domain.Order, newStatus domain.Status) error {
	oldStatus := order.Status

	if err := order.TransitionTo(newStatus, s.name); err != nil {
		return err
	}
	if err := s.orderRepo.UpdateStatus(ctx, order, oldStatus, s.name); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	notification := interfaces.StatusUpdateMessage{
		OrderNumber: order.Number,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		ChangedBy:   s.name,
		Timestamp:   order.UpdatedAt,
	}
	if newStatus == domain.StatusPreparing {
		estimated := order.UpdatedAt.Add(order.PrepTime())
		notification.EstimatedCompletion = &estimated
	}

	if s.publisher != nil {
		if err := s.publisher.PublishStatusUpdate(ctx, notification); err != nil {
			// уведомление не блокирует заказ
			s.logger.Error("rabbitmq_publish_failed", "Failed to publish status update", "", nil, err)
		}
	}
	return nil
}
