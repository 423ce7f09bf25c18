package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
	amqp "github.com/rabbitmq/amqp091-go"
)

const reconnectDelay = 5 * time.Second

type consumer struct {
	conn     Connection
	logger   logger.Logger
	prefetch int
	delay    time.Duration
}

func NewConsumer(conn Connection, logger logger.Logger, prefetch int) interfaces.MessageConsumer {
	return &consumer{conn: conn, logger: logger, prefetch: prefetch, delay: reconnectDelay}
}

func (c *consumer) ConsumeOrders(ctx context.Context, handler interfaces.OrderMessageHandler) error {
	return c.loop(ctx, "orders", func() error { return c.consumeOrders(ctx, handler) })
}

func (c *consumer) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	return c.loop(ctx, "notifications", func() error { return c.consumeNotifications(ctx, handler) })
}

// loop reruns consume until ctx is done, reconnecting after every drop.
func (c *consumer) loop(ctx context.Context, name string, consume func() error) error {
	for {
		err := consume()

		// Контекст отменён: выходим без переподключения
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}

		c.logger.Error("rabbitmq_consumer_disconnected",
			fmt.Sprintf("%s consumer disconnected, reconnecting in %s", name, c.delay), "", nil, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.delay):
		}

		if c.conn.IsClosed() {
			if err := c.conn.Reconnect(); err != nil {
				c.logger.Error("rabbitmq_reconnect_failed", "Failed to reconnect to RabbitMQ", "", nil, err)
			}
		}
	}
}

func (c *consumer) consumeOrders(ctx context.Context, handler interfaces.OrderMessageHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	if err := SetupOrdersInfrastructure(ch); err != nil {
		return err
	}

	msgs, err := ch.Consume(BaristaQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}
			c.settle(msg, handler(ctx, msg.Body))
		}
	}
}

// settle acks a handled order, requeues it for another station or after an
// interrupted handler, and drops anything else to the dead-letter queue.
func (c *consumer) settle(msg amqp.Delivery, err error) {
	var ackErr error
	switch {
	case err == nil:
		ackErr = msg.Ack(false)
	case errors.Is(err, domain.ErrStationMismatch):
		ackErr = msg.Nack(false, true)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// обработка прервана остановкой, заказ должен вернуться в очередь
		ackErr = msg.Nack(false, true)
	default:
		c.logger.Error("order_dead_lettered", "Order message moved to DLQ", "", nil, err)
		ackErr = msg.Nack(false, false)
	}
	if ackErr != nil {
		c.logger.Error("rabbitmq_ack_failed", "Failed to settle delivery", "", nil, ackErr)
	}
}

func (c *consumer) consumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.ExchangeDeclare(NotificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Временная эксклюзивная очередь на каждого подписчика
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", NotificationsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}
			if err := handler(ctx, msg.Body); err != nil {
				c.logger.Debug("notification_skipped", err.Error(), "", nil)
			}
		}
	}
}

// SetupOrdersInfrastructure declares the order exchange, the barista queue
// and its dead-letter queue.
func SetupOrdersInfrastructure(ch Channel) error {
	if err := ch.ExchangeDeclare(OrdersExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare orders exchange: %w", err)
	}

	// fanout: dead-lettered messages keep their barista.* routing key
	if err := ch.ExchangeDeclare(OrdersDLXExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(BaristaDLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}
	if err := ch.QueueBind(BaristaDLQ, "", OrdersDLXExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange": OrdersDLXExchange,
		"x-max-priority":         int32(domain.PriorityHigh),
	}
	q, err := ch.QueueDeclare(BaristaQueue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("failed to declare barista queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "barista.#", OrdersExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind barista queue: %w", err)
	}
	return nil
}
