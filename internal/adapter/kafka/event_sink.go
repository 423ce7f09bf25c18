package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

// EventSink publishes order analytics events to a Kafka topic, keyed by
// order number so one order's events stay on one partition.
type EventSink struct {
	producer sarama.SyncProducer
	topic    string
}

func NewProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 100 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Net.DialTimeout = 10 * time.Second
	cfg.Net.ReadTimeout = 10 * time.Second
	cfg.Net.WriteTimeout = 10 * time.Second
	cfg.ClientID = "cafe-storefront"
	return cfg
}

func Connect(brokers, topic string) (*EventSink, error) {
	var list []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			list = append(list, b)
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}

	producer, err := sarama.NewSyncProducer(list, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewEventSink(producer, topic), nil
}

func NewEventSink(producer sarama.SyncProducer, topic string) *EventSink {
	return &EventSink{producer: producer, topic: topic}
}

func (s *EventSink) OrderPlaced(ctx context.Context, event interfaces.OrderPlacedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(event.OrderNumber),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte("order_placed")},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send event to %s: %w", s.topic, err)
	}
	return nil
}

func (s *EventSink) Close() error {
	return s.producer.Close()
}
