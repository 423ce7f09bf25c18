package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/shopspring/decimal"
)

// Сообщения RabbitMQ
type OrderMessage struct {
	OrderNumber  string             `json:"order_number"`
	OrderType    domain.OrderType   `json:"order_type"`
	TableNumber  *string            `json:"table_number"`
	CustomerName *string            `json:"customer_name"`
	Items        []OrderMessageItem `json:"items"`
	Total        decimal.Decimal    `json:"total"`
	Priority     domain.Priority    `json:"priority"`
}

type OrderMessageItem struct {
	Name     string                  `json:"name"`
	Quantity int                     `json:"quantity"`
	Options  []domain.SelectedOption `json:"options,omitempty"`
}

type StatusUpdateMessage struct {
	OrderNumber         string        `json:"order_number"`
	OldStatus           domain.Status `json:"old_status"`
	NewStatus           domain.Status `json:"new_status"`
	ChangedBy           string        `json:"changed_by"`
	Timestamp           time.Time     `json:"timestamp"`
	EstimatedCompletion *time.Time    `json:"estimated_completion,omitempty"`
}

func NewOrderMessage(order *domain.Order) OrderMessage {
	items := make([]OrderMessageItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderMessageItem{Name: item.Name, Quantity: item.Quantity, Options: item.Options})
	}
	return OrderMessage{
		OrderNumber:  order.Number,
		OrderType:    order.Type,
		TableNumber:  order.TableNumber,
		CustomerName: order.CustomerName,
		Items:        items,
		Total:        order.Total,
		Priority:     order.Priority,
	}
}

// Интерфейсы Messaging (Adapter/RabbitMQ)
type MessagePublisher interface {
	PublishOrder(ctx context.Context, msg OrderMessage) error
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
}

type MessageConsumer interface {
	ConsumeOrders(ctx context.Context, handler OrderMessageHandler) error
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type (
	OrderMessageHandler func(ctx context.Context, body []byte) error
	NotificationHandler func(ctx context.Context, body []byte) error
)

// Аналитика (Adapter/Kafka)
type OrderPlacedEvent struct {
	EventID     string          `json:"event_id"`
	OrderNumber string          `json:"order_number"`
	OrderType   string          `json:"order_type"`
	CustomerID  *string         `json:"customer_id,omitempty"`
	TableNumber *string          `json:"table_number,omitempty"`
	ItemCount   int             `json:"item_count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	GiftCard    decimal.Decimal `json:"gift_card"`
	Total       decimal.Decimal `json:"total"`
	Points      int             `json:"points"`
	PlacedAt    time.Time       `json:"placed_at"`
}

type EventSink interface {
	OrderPlaced(ctx context.Context, event OrderPlacedEvent) error
	Close() error
}

// Архив чеков (Adapter/S3)
type ReceiptArchive interface {
	StoreReceipt(ctx context.Context, order *domain.Order) (string, error)
}
