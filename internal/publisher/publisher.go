package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/pkg/kafka"
	"github.com/prohmpiriya/ringside/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// EventTypeOrderCreated is the type header of order hand-off messages
const EventTypeOrderCreated = "order.created"

// OrderPublisher hands priced orders to the order/payment collaborator
type OrderPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
	Close() error
}

// MessageProducer is the subset of *kafka.Producer the publisher needs
type MessageProducer interface {
	Produce(ctx context.Context, msg *kafka.Message) error
	Close()
}

// OrderCreatedEvent is the JSON payload of an order.created message
type OrderCreatedEvent struct {
	EventID    string        `json:"event_id"`
	EventType  string        `json:"event_type"`
	OccurredAt time.Time     `json:"occurred_at"`
	Order      *domain.Order `json:"order"`
}

// Config contains configuration for the Kafka order publisher
type Config struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// KafkaOrderPublisher implements OrderPublisher using Kafka
type KafkaOrderPublisher struct {
	producer    MessageProducer
	topic       string
	serviceName string
	now         func() time.Time
}

// NewKafkaOrderPublisher connects a producer and returns a publisher
func NewKafkaOrderPublisher(ctx context.Context, cfg *Config) (*KafkaOrderPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("order publisher config is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "ringside-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return NewWithProducer(producer, cfg.Topic, cfg.ServiceName), nil
}

// NewWithProducer builds a publisher on top of an existing producer
func NewWithProducer(producer MessageProducer, topic, serviceName string) *KafkaOrderPublisher {
	if topic == "" {
		topic = EventTypeOrderCreated
	}
	if serviceName == "" {
		serviceName = "ringside"
	}
	return &KafkaOrderPublisher{
		producer:    producer,
		topic:       topic,
		serviceName: serviceName,
		now:         time.Now,
	}
}

// PublishOrderCreated publishes the order keyed by its ID so all messages
// for one order land on the same partition.
func (p *KafkaOrderPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	ctx, span := telemetry.StartSpan(ctx, "publisher.kafka.order_created")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", order.ID), attribute.String("topic", p.topic))

	event := OrderCreatedEvent{
		EventID:    uuid.NewString(),
		EventType:  EventTypeOrderCreated,
		OccurredAt: p.now().UTC(),
		Order:      order,
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &kafka.Message{
		Topic: p.topic,
		Key:   []byte(order.ID),
		Value: value,
		Headers: map[string]string{
			"event_type":   EventTypeOrderCreated,
			"event_id":     event.EventID,
			"source":       p.serviceName,
			"content_type": "application/json",
		},
		Timestamp: event.OccurredAt,
	}

	if err := p.producer.Produce(ctx, msg); err != nil {
		telemetry.SetSpanError(ctx, err)
		return fmt.Errorf("failed to publish %s event: %w", EventTypeOrderCreated, err)
	}
	return nil
}

// Close closes the underlying producer
func (p *KafkaOrderPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

// NoopPublisher drops every message. Used when Kafka is disabled.
type NoopPublisher struct{}

// PublishOrderCreated implements OrderPublisher
func (NoopPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return nil
}

// Close implements OrderPublisher
func (NoopPublisher) Close() error { return nil }
