package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers       []string
	ClientID      string
	MaxRetries    int
	RetryInterval time.Duration
	LingerMs      int
}

// Message is a record to publish
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Producer publishes messages with franz-go
type Producer struct {
	client *kgo.Client
}

// NewProducer creates a producer and verifies the brokers are reachable
func NewProducer(ctx context.Context, cfg *ProducerConfig) (*Producer, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(time.Duration(cfg.LingerMs) * time.Millisecond),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, kgo.RecordRetries(cfg.MaxRetries))
	}
	if cfg.RetryInterval > 0 {
		interval := cfg.RetryInterval
		opts = append(opts, kgo.RetryBackoffFn(func(int) time.Duration { return interval }))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach kafka brokers: %w", err)
	}

	return &Producer{client: client}, nil
}

// Produce synchronously publishes msg
func (p *Producer) Produce(ctx context.Context, msg *Message) error {
	return p.client.ProduceSync(ctx, toRecord(msg)).FirstErr()
}

// Close flushes buffered records and closes the client
func (p *Producer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}

func toRecord(msg *Message) *kgo.Record {
	record := &kgo.Record{
		Topic:     msg.Topic,
		Key:       msg.Key,
		Value:     msg.Value,
		Timestamp: msg.Timestamp,
	}
	for k, v := range msg.Headers {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	return record
}
