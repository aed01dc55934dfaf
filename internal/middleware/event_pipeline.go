package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FraudDash/internal/domain/models"
	domrepo "FraudDash/internal/domain/repository"
	"FraudDash/internal/service/ratelimit"
	"FraudDash/pkg/logger"
)

// EventPipeline sits between the dashboard flows and the event publisher.
// Submit never blocks a flow: events are validated, throttled per kind and
// buffered, and a background loop ships them in batches.
type EventPipeline struct {
	pub        domrepo.EventPublisher
	metrics    domrepo.Metrics
	log        *logger.Logger
	throttle   *ratelimit.Limiter
	bufCh      chan *models.ScoringEvent
	batchSize  int
	flushEvery time.Duration
	maxBackoff time.Duration

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	done    chan struct{}
}

type PipelineOption func(*EventPipeline)

// WithMaxRPS caps accepted events per second per kind.
func WithMaxRPS(n float64) PipelineOption {
	return func(p *EventPipeline) {
		if n > 0 {
			p.throttle = ratelimit.New(n, int(n)+1)
		}
	}
}

// WithBufferSize sets how many events may wait for the publisher.
func WithBufferSize(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n > 0 {
			p.bufCh = make(chan *models.ScoringEvent, n)
		}
	}
}

// WithBatch sets the batch size and the longest time an event waits for a full batch.
func WithBatch(size int, every time.Duration) PipelineOption {
	return func(p *EventPipeline) {
		if size > 0 {
			p.batchSize = size
		}
		if every > 0 {
			p.flushEvery = every
		}
	}
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(l *logger.Logger) PipelineOption {
	return func(p *EventPipeline) {
		if l != nil {
			p.log = l.With("event-pipeline")
		}
	}
}

// NewEventPipeline creates a pipeline in front of pub.
func NewEventPipeline(pub domrepo.EventPublisher, metrics domrepo.Metrics, opts ...PipelineOption) *EventPipeline {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	p := &EventPipeline{
		pub:        pub,
		metrics:    metrics,
		log:        logger.NewNop(),
		bufCh:      make(chan *models.ScoringEvent, 256),
		batchSize:  50,
		flushEvery: time.Second,
		maxBackoff: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the background shipper. ctx bounds publish calls.
func (p *EventPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(ctx)
}

// Stop flushes what is buffered and waits for the shipper to exit.
func (p *EventPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.stopCh)
	done := p.done
	p.mu.Unlock()
	<-done
}

// Submit validates and enqueues e. A full buffer drops the event.
func (p *EventPipeline) Submit(e *models.ScoringEvent) error {
	if err := validateEvent(e); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.throttle != nil && !p.throttle.Allow(e.Kind) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	select {
	case p.bufCh <- e:
		return nil
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		return fmt.Errorf("event buffer full, dropped %s", e.ID)
	}
}

func (p *EventPipeline) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.flushEvery)
	defer ticker.Stop()

	batch := make([]*models.ScoringEvent, 0, p.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		p.ship(ctx, batch)
		batch = make([]*models.ScoringEvent, 0, p.batchSize)
	}

	for {
		select {
		case e := <-p.bufCh:
			batch = append(batch, e)
			if len(batch) >= p.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-p.stopCh:
			for {
				select {
				case e := <-p.bufCh:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// ship publishes a batch, retrying with exponential backoff until the
// backoff cap is reached; the batch is dropped after that.
func (p *EventPipeline) ship(ctx context.Context, batch []*models.ScoringEvent) {
	start := time.Now()
	backoff := 50 * time.Millisecond
	for {
		err := p.pub.PublishBatch(ctx, batch)
		if err == nil {
			p.metrics.RecordLatency("pipeline_publish", time.Since(start).Seconds())
			return
		}
		p.metrics.RecordError("pipeline_publish")
		if backoff > p.maxBackoff || ctx.Err() != nil {
			p.log.Error("dropping scoring events", logger.Int("count", len(batch)), logger.Error(err))
			p.metrics.RecordError("pipeline_drop")
			return
		}
		p.log.Warn("publish scoring events, retrying", logger.Duration("backoff", backoff), logger.Error(err))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
		}
		backoff *= 2
	}
}

func validateEvent(e *models.ScoringEvent) error {
	if e == nil {
		return fmt.Errorf("event nil")
	}
	if e.ID == "" {
		return fmt.Errorf("event id empty")
	}
	switch e.Kind {
	case models.EventPrediction, models.EventComparison:
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("event time missing")
	}
	return nil
}
