// Package kafka publishes domain events to a Kafka topic. Delivery is best
// effort after the unit of work commits; consumers must tolerate gaps.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/flashmart/order-service/internal/domain"
	"github.com/flashmart/order-service/pkg/logging"
)

// Config holds publisher configuration
type Config struct {
	Brokers      []string
	Topic        string
	ClientID     string
	BatchSize    int
	BatchTimeout time.Duration
}

// EventPublisher writes domain events as JSON messages keyed by aggregate id
type EventPublisher struct {
	writer *kafka.Writer
	logger *logging.Logger
}

// NewEventPublisher creates an EventPublisher for config.Topic
func NewEventPublisher(config *Config, logger *logging.Logger) *EventPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    config.BatchSize,
		BatchTimeout: config.BatchTimeout,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}

	return &EventPublisher{
		writer: writer,
		logger: logger.WithComponent("event-publisher"),
	}
}

type eventEnvelope struct {
	EventType   string             `json:"eventType"`
	AggregateID string             `json:"aggregateId"`
	OccurredAt  time.Time          `json:"occurredAt"`
	Payload     domain.DomainEvent `json:"payload"`
}

// Publish sends one event
func (p *EventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	msg, err := toMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.EventType(), err)
	}
	return nil
}

// PublishAll sends a batch of events in one write
func (p *EventPublisher) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		msg, err := toMessage(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d events: %w", len(events), err)
	}
	return nil
}

// Close flushes and closes the underlying writer
func (p *EventPublisher) Close() error {
	return p.writer.Close()
}

func toMessage(event domain.DomainEvent) (kafka.Message, error) {
	data, err := json.Marshal(eventEnvelope{
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal %s: %w", event.EventType(), err)
	}

	return kafka.Message{
		Key:   []byte(event.AggregateID()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.EventType())},
		},
		Time: event.OccurredAt(),
	}, nil
}
