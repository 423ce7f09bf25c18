package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/app/session"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Quote struct {
	Items       []domain.LineItem
	Totals      domain.Totals
	GiftCard    *domain.GiftCardApplication
	TableNumber *string
}

type Service struct {
	orders    interfaces.OrderRepository
	giftCards interfaces.GiftCardRepository
	publisher interfaces.MessagePublisher
	events    interfaces.EventSink
	receipts  interfaces.ReceiptArchive
	logger    logger.Logger
	taxRate   decimal.Decimal
	now       func() time.Time
}

func NewService(
	orders interfaces.OrderRepository,
	giftCards interfaces.GiftCardRepository,
	publisher interfaces.MessagePublisher,
	logger logger.Logger,
	taxRate decimal.Decimal,
) *Service {
	return &Service{
		orders:    orders,
		giftCards: giftCards,
		publisher: publisher,
		logger:    logger,
		taxRate:   taxRate,
		now:       time.Now,
	}
}

// WithEventSink enables order_placed analytics events.
func (s *Service) WithEventSink(events interfaces.EventSink) *Service {
	s.events = events
	return s
}

// WithReceiptArchive enables receipt archiving.
func (s *Service) WithReceiptArchive(receipts interfaces.ReceiptArchive) *Service {
	s.receipts = receipts
	return s
}

// Quote prices the session cart with the provisional gift card re-capped to
// the current total.
func (s *Service) Quote(ctx context.Context, sess *session.Session) (*Quote, error) {
	var q *Quote
	err := sess.Do(ctx, func(st *session.State) error {
		q = s.quote(st)
		return nil
	})
	return q, err
}

func (s *Service) quote(st *session.State) *Quote {
	cart := st.Cart()
	before := domain.ComputeTotals(cart.Subtotal(), s.taxRate, decimal.Zero)

	q := &Quote{Items: cart.Items, Totals: before}
	if app := st.GiftCard(); app != nil {
		rebased := app.Rebase(before.TotalBeforeGiftCard)
		q.GiftCard = &rebased
		q.Totals = domain.ComputeTotals(cart.Subtotal(), s.taxRate, rebased.Amount)
	}
	table := st.Table()
	if n, ok := table.Number(); ok {
		q.TableNumber = &n
	}
	return q
}

// Checkout turns the session cart into an order. Nothing is changed unless
// the order transaction commits; side effects after the commit are logged
// on failure and never undo the order. customer is nil for guests.
func (s *Service) Checkout(ctx context.Context, sess *session.Session, customer *domain.User) (*domain.Order, error) {
	var order *domain.Order
	err := sess.Do(ctx, func(st *session.State) error {
		var err error
		order, err = s.place(ctx, st, customer)
		return err
	})
	if err != nil {
		s.logger.Error("checkout_failed", "Checkout failed", sess.ID(), nil, err)
		return nil, err
	}

	s.afterCommit(context.WithoutCancel(ctx), sess.ID(), order)
	return order, nil
}

func (s *Service) place(ctx context.Context, st *session.State, customer *domain.User) (*domain.Order, error) {
	// 1. Пустая корзина
	cart := st.Cart()
	if cart.Len() == 0 {
		return nil, domain.ErrEmptyCart
	}

	// 2. Повторная проверка подарочной карты по текущему балансу
	before := domain.ComputeTotals(cart.Subtotal(), s.taxRate, decimal.Zero)
	var app *domain.GiftCardApplication
	if applied := st.GiftCard(); applied != nil {
		card, found, err := s.giftCards.FindByCode(ctx, applied.Code)
		if err != nil {
			return nil, fmt.Errorf("failed to load gift card: %w", err)
		}
		if !found {
			return nil, domain.ErrGiftCardBalanceChanged
		}
		fresh, err := card.Apply(before.TotalBeforeGiftCard, s.now())
		if err != nil {
			return nil, err
		}
		app = &fresh
	}

	applied := decimal.Zero
	if app != nil {
		applied = app.Amount
	}
	totals := domain.ComputeTotals(cart.Subtotal(), s.taxRate, applied)

	// 3. Снимок заказа
	table := st.Table()
	order, err := domain.NewOrder(cart, totals, app, table.TableNumber, customer, s.now())
	if err != nil {
		return nil, err
	}
	order.SessionID = st.SessionID()

	number, err := s.orders.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}
	order.Number = number

	// 4. Одна транзакция: заказ, списание карты, баллы
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.orders.PlaceOrder(ctx, order); err != nil {
		return nil, err
	}

	// 5. Только после коммита чистим корзину
	if err := st.ClearCart(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error("cart_clear_failed", "Order placed but cart could not be persisted as empty", st.SessionID(),
			map[string]interface{}{"order_number": order.Number}, err)
	}
	st.SetGiftCard(nil)

	s.logger.Info("order_placed", fmt.Sprintf("Order %s placed", order.Number), st.SessionID(), map[string]interface{}{
		"order_number":  order.Number,
		"total":         order.Total.StringFixed(2),
		"gift_card":     order.GiftCardAmount.StringFixed(2),
		"points_earned": order.PointsEarned,
		"table_number":  order.TableNumber,
	})
	return order, nil
}

func (s *Service) afterCommit(ctx context.Context, requestID string, order *domain.Order) {
	if s.publisher != nil {
		if err := s.publisher.PublishOrder(ctx, interfaces.NewOrderMessage(order)); err != nil {
			s.logger.Error("rabbitmq_publish_failed", "Failed to publish order", requestID,
				map[string]interface{}{"order_number": order.Number}, err)
		} else {
			s.logger.Debug("order_published", "Order published to RabbitMQ", requestID,
				map[string]interface{}{"order_number": order.Number})
		}
	}

	if s.events != nil {
		if err := s.events.OrderPlaced(ctx, orderPlacedEvent(order)); err != nil {
			s.logger.Error("analytics_publish_failed", "Failed to emit order_placed event", requestID,
				map[string]interface{}{"order_number": order.Number}, err)
		}
	}

	if s.receipts != nil {
		key, err := s.receipts.StoreReceipt(ctx, order)
		if err != nil {
			s.logger.Error("receipt_archive_failed", "Failed to archive receipt", requestID,
				map[string]interface{}{"order_number": order.Number}, err)
		} else {
			s.logger.Debug("receipt_archived", "Receipt archived", requestID,
				map[string]interface{}{"order_number": order.Number, "key": key})
		}
	}
}

func orderPlacedEvent(order *domain.Order) interfaces.OrderPlacedEvent {
	return interfaces.OrderPlacedEvent{
		EventID:     uuid.NewString(),
		OrderNumber: order.Number,
		OrderType:   string(order.Type),
		CustomerID:  order.CustomerID,
		TableNumber: order.TableNumber,
		ItemCount:   order.ItemCount(),
		Subtotal:    order.Subtotal,
		Tax:         order.Tax,
		GiftCard:    order.GiftCardAmount,
		Total:       order.Total,
		Points:      order.PointsEarned,
		PlacedAt:    order.CreatedAt,
	}
}
