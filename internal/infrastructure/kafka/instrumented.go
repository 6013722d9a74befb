package kafka

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/flashmart/order-service/internal/domain"
)

// InstrumentedPublisher wraps an EventPublisher so publishes show up as
// producer spans in a trace
type InstrumentedPublisher struct {
	publisher *EventPublisher
	topic     string
	tracer    trace.Tracer
}

// NewInstrumentedPublisher creates a traced publisher
func NewInstrumentedPublisher(publisher *EventPublisher, topic string) *InstrumentedPublisher {
	return &InstrumentedPublisher{
		publisher: publisher,
		topic:     topic,
		tracer:    otel.Tracer("kafka-publisher"),
	}
}

// Publish sends one event with a span around the write
func (p *InstrumentedPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	ctx, span := p.tracer.Start(ctx, "kafka.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKey.String("kafka"),
			semconv.MessagingDestinationNameKey.String(p.topic),
			semconv.MessagingOperationKey.String("publish"),
			attribute.String("messaging.kafka.event_type", event.EventType()),
			attribute.String("messaging.message_id", event.AggregateID()),
		),
	)
	defer span.End()

	err := p.publisher.Publish(ctx, event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

// PublishAll sends a batch of events with a span around the write
func (p *InstrumentedPublisher) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	ctx, span := p.tracer.Start(ctx, "kafka.publish.batch",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKey.String("kafka"),
			semconv.MessagingDestinationNameKey.String(p.topic),
			semconv.MessagingOperationKey.String("publish"),
			attribute.Int("messaging.batch_size", len(events)),
		),
	)
	defer span.End()

	err := p.publisher.PublishAll(ctx, events)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

// Close closes the underlying publisher
func (p *InstrumentedPublisher) Close() error {
	return p.publisher.Close()
}
