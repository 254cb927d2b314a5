// Package events publishes issuance lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"vaultflow/internal/issuance/models"
	"vaultflow/internal/platform/kafka/producer"
)

// Producer is the subset of the Kafka producer used for publishing.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Publisher writes issuance events to one topic, keyed by issuance id so
// events for the same issuance stay ordered.
type Publisher struct {
	producer Producer
	topic    string
}

func NewPublisher(p Producer, topic string) *Publisher {
	return &Publisher{producer: p, topic: topic}
}

// PublishStarted emits an issuance.started event.
func (p *Publisher) PublishStarted(ctx context.Context, event models.StartedEvent) error {
	if event.EventType == "" {
		event.EventType = models.EventTypeStarted
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal issuance event: %w", err)
	}
	return p.producer.Produce(ctx, &producer.Message{
		Topic: p.topic,
		Key:   []byte(event.IssuanceID),
		Value: value,
		Headers: map[string]string{
			"event_type":   event.EventType,
			"content_type": "application/json",
		},
	})
}

// Nop discards events. It is used when no brokers are configured.
type Nop struct{}

func (Nop) PublishStarted(context.Context, models.StartedEvent) error { return nil }
