package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderPlacedSendsJSON(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var e interfaces.OrderPlacedEvent
		if err := json.Unmarshal(val, &e); err != nil {
			return err
		}
		if e.OrderNumber != "ORD_20260101_0001" || e.ItemCount != 2 {
			return errors.New("unexpected event payload")
		}
		return nil
	})

	sink := NewEventSink(producer, "cafe.orders")
	err := sink.OrderPlaced(context.Background(), interfaces.OrderPlacedEvent{
		EventID: "e-1", OrderNumber: "ORD_20260101_0001", ItemCount: 2, Total: decimal.RequireFromString("14.58"),
	})
	require.NoError(t, err)
	require.NoError(t, sink.Close())
}

func TestOrderPlacedReportsFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	sink := NewEventSink(producer, "cafe.orders")
	err := sink.OrderPlaced(context.Background(), interfaces.OrderPlacedEvent{OrderNumber: "ORD_20260101_0002"})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, sink.Close())
}

func TestConnectRequiresBrokers(t *testing.T) {
	_, err := Connect(" , ", "cafe.orders")
	assert.Error(t, err)
}
