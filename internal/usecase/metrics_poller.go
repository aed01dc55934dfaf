package usecase

import (
	"context"
	"sync"
	"time"

	"FraudDash/internal/domain/models"
	domsvc "FraudDash/internal/domain/service"
	"FraudDash/internal/services/risk"
	"FraudDash/pkg/logger"
)

const flowMetrics = "metrics"

// MetricsPoller refreshes model-quality metrics on a fixed interval and on demand.
// A failed fetch leaves the error visible until the next tick or refresh; there is no backoff.
type MetricsPoller struct {
	scorer   domsvc.Scorer
	interval time.Duration
	slot     *Slot[models.MetricsReport]

	mu      sync.Mutex
	running bool
	stop    context.CancelFunc
	wg      sync.WaitGroup

	deps
}

// NewMetricsPoller creates a poller. A non-positive interval means 30s.
func NewMetricsPoller(scorer domsvc.Scorer, interval time.Duration, opts ...Option) *MetricsPoller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &MetricsPoller{
		scorer:   scorer,
		interval: interval,
		slot:     NewSlot[models.MetricsReport](),
		deps:     newDeps("metrics-poller", opts),
	}
}

// Start fetches once and then every interval until ctx is cancelled or Stop is called.
func (p *MetricsPoller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	ctx, p.stop = context.WithCancel(ctx)
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx)
	}()
}

func (p *MetricsPoller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	_, _ = p.fetch(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = p.fetch(ctx)
		}
	}
}

// Stop ends polling and waits for the loop to exit.
func (p *MetricsPoller) Stop() {
	p.mu.Lock()
	stop := p.stop
	p.running = false
	p.stop = nil
	p.mu.Unlock()

	if stop != nil {
		stop()
	}
	p.wg.Wait()
}

// Refresh fetches immediately, superseding a tick fetch in flight.
func (p *MetricsPoller) Refresh(ctx context.Context) (models.MetricsView, error) {
	_, err := p.fetch(ctx)
	return p.View(), err
}

func (p *MetricsPoller) fetch(ctx context.Context) (report models.MetricsReport, err error) {
	start := time.Now()
	defer func() { p.observe(flowMetrics, start, err) }()

	callCtx, tk := p.slot.Begin(ctx)
	report, err = p.scorer.Metrics(callCtx)
	if err != nil {
		if !p.slot.Current(tk) {
			return report, ErrSuperseded
		}
		if ctx.Err() != nil {
			// Shutdown, or the caller went away.
			_ = p.slot.Fail(tk, "request cancelled")
			return report, ctx.Err()
		}
		if ferr := p.slot.Fail(tk, err.Error()); ferr != nil {
			return report, ferr
		}
		p.log.Warn("metrics fetch failed", logger.Error(err))
		return report, err
	}
	if err = p.slot.Commit(tk, report); err != nil {
		return report, err
	}
	p.log.Debug("metrics refreshed", logger.Float64("pr_auc", report.Metrics.PRAUC))
	return report, nil
}

// View renders the current state.
func (p *MetricsPoller) View() models.MetricsView {
	return renderMetrics(p.slot.Snapshot())
}

// Subscribe calls fn with the rendered view after every state change.
func (p *MetricsPoller) Subscribe(fn Listener) {
	p.slot.Watch(func(st SlotState[models.MetricsReport]) {
		fn(models.EventMetrics, renderMetrics(st))
	})
}

func renderMetrics(st SlotState[models.MetricsReport]) models.MetricsView {
	state := st.State
	if state == models.StateIdle {
		state = models.StateLoading
	}
	if !st.HasValue {
		return risk.MetricsView(state, nil, st.Err)
	}
	r := st.Value
	return risk.MetricsView(state, &r, st.Err)
}
