package amqp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBarista struct {
	got []interfaces.OrderMessage
}

func (s *stubBarista) Start(context.Context) error    { return nil }
func (s *stubBarista) Shutdown(context.Context) error { return nil }

func (s *stubBarista) ProcessOrder(_ context.Context, msg interfaces.OrderMessage) error {
	s.got = append(s.got, msg)
	return nil
}

func TestHandleOrder(t *testing.T) {
	svc := &stubBarista{}
	h := NewOrderHandler(svc, logger.NewNop())

	body, err := json.Marshal(interfaces.OrderMessage{OrderNumber: "ORD_20260101_0001", OrderType: domain.OrderTypeTakeaway})
	require.NoError(t, err)
	require.NoError(t, h.HandleOrder(context.Background(), body))
	require.Len(t, svc.got, 1)
	assert.Equal(t, domain.OrderTypeTakeaway, svc.got[0].OrderType)

	assert.Error(t, h.HandleOrder(context.Background(), []byte("{")))
	assert.Error(t, h.HandleOrder(context.Background(), []byte("{}")))
	assert.Len(t, svc.got, 1)
}

func TestHandleNotification(t *testing.T) {
	h := NewNotificationHandler(logger.NewNop())

	body, err := json.Marshal(interfaces.StatusUpdateMessage{
		OrderNumber: "ORD_20260101_0001", OldStatus: domain.StatusPreparing, NewStatus: domain.StatusReady, ChangedBy: "alice",
	})
	require.NoError(t, err)
	assert.NoError(t, h.HandleNotification(context.Background(), body))
	assert.Error(t, h.HandleNotification(context.Background(), []byte("nope")))
}
