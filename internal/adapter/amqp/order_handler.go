package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.BaristaService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.BaristaService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

// HandleOrder decodes a queued order for the barista. A body that cannot be
// decoded is returned as an error so the consumer dead-letters it.
func (h *OrderHandler) HandleOrder(ctx context.Context, body []byte) error {
	var msg interfaces.OrderMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse order message", "", nil, err)
		return fmt.Errorf("invalid order message: %w", err)
	}
	if msg.OrderNumber == "" {
		return fmt.Errorf("invalid order message: missing order number")
	}

	return h.service.ProcessOrder(ctx, msg)
}
