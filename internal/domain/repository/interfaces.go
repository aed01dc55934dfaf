package repository

import (
	"context"

	"FraudDash/internal/domain/models"
)

// EventPublisher ships scoring events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, e *models.ScoringEvent) error
	PublishBatch(ctx context.Context, events []*models.ScoringEvent) error
	Close() error
}

// Metrics records dashboard flow telemetry.
type Metrics interface {
	RecordFlow(flow, outcome string)
	RecordError(kind string)
	RecordProbability(model string, p float64)
	RecordLatency(flow string, seconds float64)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordFlow(string, string) {}
func (NopMetrics) RecordError(string) {}
func (NopMetrics) RecordProbability(string, float64) {}
func (NopMetrics) RecordLatency(string, float64) {}
