package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

// NotificationHandler reports status changes to whoever watches the
// subscriber's log, typically the pickup counter display.
type NotificationHandler struct {
	logger logger.Logger
}

func NewNotificationHandler(logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	details := map[string]interface{}{
		"order_number": msg.OrderNumber,
		"old_status":   msg.OldStatus,
		"new_status":   msg.NewStatus,
		"changed_by":   msg.ChangedBy,
	}
	if msg.EstimatedCompletion != nil {
		details["estimated_completion"] = msg.EstimatedCompletion
	}

	h.logger.Info("notification_received",
		fmt.Sprintf("Order %s: %s -> %s by %s", msg.OrderNumber, msg.OldStatus, msg.NewStatus, msg.ChangedBy),
		msg.OrderNumber, details)
	return nil
}
