package repository

import (
	"context"

	"FraudDash/internal/domain/models"
	"FraudDash/internal/domain/repository"
	pkgkafka "FraudDash/pkg/kafka"
	"FraudDash/pkg/logger"
)

// producer is the part of pkg/kafka.Producer the publisher needs.
type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaEventPublisher publishes scoring events keyed by event kind.
type KafkaEventPublisher struct {
	producer producer
	topic    string
}

// NewKafkaEventPublisher creates a Kafka-backed event publisher.
func NewKafkaEventPublisher(p producer, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: p, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, e *models.ScoringEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.Kind), e)
}

func (p *KafkaEventPublisher) PublishBatch(ctx context.Context, events []*models.ScoringEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(events))
	for i, e := range events {
		msgs[i] = pkgkafka.Message{Key: []byte(e.Kind), Value: e}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

// Close leaves the producer open; it is shared with the log collector and closed by the app.
func (p *KafkaEventPublisher) Close() error {
	return nil
}

// LogEventPublisher writes events to the log when no broker is configured.
type LogEventPublisher struct {
	log *logger.Logger
}

// NewLogEventPublisher creates a publisher that only logs.
func NewLogEventPublisher(l *logger.Logger) repository.EventPublisher {
	if l == nil {
		l = logger.NewNop()
	}
	return &LogEventPublisher{log: l.With("events")}
}

func (p *LogEventPublisher) Publish(_ context.Context, e *models.ScoringEvent) error {
	p.log.Debug("scoring event",
		logger.String("id", e.ID),
		logger.String("kind", e.Kind),
		logger.String("active_model", string(e.ActiveModel)))
	return nil
}

func (p *LogEventPublisher) PublishBatch(ctx context.Context, events []*models.ScoringEvent) error {
	for _, e := range events {
		_ = p.Publish(ctx, e)
	}
	return nil
}

func (p *LogEventPublisher) Close() error { return nil }
