package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	interfaces "github.com/georgesmithishere/prepo-monorepo-fork/internal/interfaces"
)

// Publisher writes strategy events to Kafka. All events go to one topic; the
// event name travels in the "event" header and the strategy id is the message
// key, so a strategy's events stay ordered within a partition.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher returns a publisher writing to topic on brokers. Writes wait for
// every in-sync replica.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			Compression:  kafka.Lz4,
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish writes event to the topic and blocks until it is acknowledged.
func (p *Publisher) Publish(ctx context.Context, eventName string, key string, event any) error {
	msg, err := NewMessage(eventName, key, event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close flushes pending writes.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NewMessage encodes event as JSON into a message keyed by key.
func NewMessage(eventName string, key string, event any) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s: %w", eventName, err)
	}

	return kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(eventName)},
		},
	}, nil
}

var _ interfaces.EventPublisher = (*Publisher)(nil)
