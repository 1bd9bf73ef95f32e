package eventlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	interfaces "github.com/georgesmithishere/prepo-monorepo-fork/internal/interfaces"
)

// Publisher writes each event as one structured log line and keeps nothing.
// It is the publisher used when no Kafka brokers are configured.
type Publisher struct {
	log logrus.FieldLogger
}

func NewPublisher(log logrus.FieldLogger) *Publisher {
	return &Publisher{log: log.WithField("component", "events")}
}

// Publish logs the event under its topic and key. The payload is the same JSON
// a Kafka consumer would receive.
func (p *Publisher) Publish(ctx context.Context, topic string, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", topic, err)
	}

	p.log.WithFields(logrus.Fields{
		"topic":   topic,
		"key":     key,
		"payload": string(data),
	}).Info("event published")
	return nil
}

var _ interfaces.EventPublisher = (*Publisher)(nil)
