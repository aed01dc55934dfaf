package usecase

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"FraudDash/internal/domain/models"
	domrepo "FraudDash/internal/domain/repository"
	"FraudDash/internal/services/features"
	"FraudDash/pkg/logger"
	"FraudDash/pkg/metrics"
)

// EventSink accepts scoring events for asynchronous delivery.
type EventSink interface {
	Submit(e *models.ScoringEvent) error
}

// Listener receives the rendered view of a flow after every change.
type Listener func(kind string, view interface{})

type deps struct {
	log     *logger.Logger
	metrics domrepo.Metrics
	events  EventSink
	now     func() time.Time
	newID   func() string
}

// Option configures a flow.
type Option func(*deps)

// WithLogger sets the flow logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *deps) {
		if l != nil {
			d.log = l
		}
	}
}

// WithMetrics sets the flow metrics recorder.
func WithMetrics(m domrepo.Metrics) Option {
	return func(d *deps) {
		if m != nil {
			d.metrics = m
		}
	}
}

// WithEvents publishes completed predictions and comparisons to sink.
func WithEvents(sink EventSink) Option {
	return func(d *deps) {
		d.events = sink
	}
}

func newDeps(component string, opts []Option) deps {
	d := deps{
		log:     logger.NewNop(),
		metrics: domrepo.NopMetrics{},
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(&d)
	}
	d.log = d.log.With(component)
	return d
}

// outcome maps a flow error to its metric label.
func outcome(err error) string {
	var ve *features.ValidationError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrSuperseded):
		return metrics.OutcomeSuperseded
	case errors.As(err, &ve), errors.As(err, new(*RangeError)):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

func (d deps) observe(flow string, start time.Time, err error) {
	d.metrics.RecordFlow(flow, outcome(err))
	d.metrics.RecordLatency(flow, time.Since(start).Seconds())
}

func (d deps) publish(e *models.ScoringEvent) {
	if d.events == nil {
		return
	}
	e.ID = d.newID()
	e.OccurredAt = d.now().UTC()
	if err := d.events.Submit(e); err != nil {
		d.log.Warn("scoring event not queued", logger.String("kind", e.Kind), logger.Error(err))
	}
}
