package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/pkg/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProducer struct {
	mu         sync.Mutex
	messages   []*kafka.Message
	produceErr error
	closed     bool
}

func (m *mockProducer) Produce(ctx context.Context, msg *kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.produceErr != nil {
		return m.produceErr
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockProducer) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func testOrder() *domain.Order {
	return &domain.Order{
		ID:        "order-1",
		EventID:   "event-1",
		OrderType: domain.OrderTypeTicket,
		Status:    domain.OrderStatusPending,
		Items: []domain.OrderItem{
			{RefID: "event-1", RefModel: domain.RefModelEvent, SeatZoneID: "z1", ZoneName: "VIP", Quantity: 2, PriceAtOrder: 200, Date: "2025-01-10"},
		},
		TotalPrice: 200,
	}
}

func TestKafkaOrderPublisher_PublishOrderCreated(t *testing.T) {
	producer := &mockProducer{}
	p := NewWithProducer(producer, "orders", "ringside-test")
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	require.NoError(t, p.PublishOrderCreated(context.Background(), testOrder()))
	require.Len(t, producer.messages, 1)

	msg := producer.messages[0]
	assert.Equal(t, "orders", msg.Topic)
	assert.Equal(t, []byte("order-1"), msg.Key)
	assert.Equal(t, EventTypeOrderCreated, msg.Headers["event_type"])
	assert.Equal(t, "ringside-test", msg.Headers["source"])
	assert.Equal(t, fixed, msg.Timestamp)

	var event OrderCreatedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, EventTypeOrderCreated, event.EventType)
	assert.Equal(t, msg.Headers["event_id"], event.EventID)
	assert.Equal(t, int64(200), event.Order.TotalPrice)
	assert.Equal(t, "VIP", event.Order.Items[0].ZoneName)
}

func TestKafkaOrderPublisher_Defaults(t *testing.T) {
	p := NewWithProducer(&mockProducer{}, "", "")
	assert.Equal(t, EventTypeOrderCreated, p.topic)
	assert.Equal(t, "ringside", p.serviceName)
}

func TestKafkaOrderPublisher_ProduceError(t *testing.T) {
	producer := &mockProducer{produceErr: errors.New("broker down")}
	p := NewWithProducer(producer, "orders", "")

	err := p.PublishOrderCreated(context.Background(), testOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestKafkaOrderPublisher_Close(t *testing.T) {
	producer := &mockProducer{}
	p := NewWithProducer(producer, "orders", "")

	require.NoError(t, p.Close())
	assert.True(t, producer.closed)
}

func TestNewKafkaOrderPublisher_Validation(t *testing.T) {
	_, err := NewKafkaOrderPublisher(context.Background(), nil)
	assert.Error(t, err)

	_, err = NewKafkaOrderPublisher(context.Background(), &Config{})
	assert.Error(t, err)
}

func TestNoopPublisher(t *testing.T) {
	var p OrderPublisher = NoopPublisher{}
	assert.NoError(t, p.PublishOrderCreated(context.Background(), testOrder()))
	assert.NoError(t, p.Close())
}
