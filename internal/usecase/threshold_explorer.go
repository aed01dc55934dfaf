package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FraudDash/internal/domain/models"
	domsvc "FraudDash/internal/domain/service"
	"FraudDash/internal/services/risk"
	"FraudDash/pkg/logger"
	"FraudDash/pkg/util"
)

const flowThreshold = "threshold"

// RangeError rejects a threshold outside the explorer's bounds.
type RangeError struct {
	Value, Min, Max float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("threshold %v outside [%v, %v]", e.Value, e.Min, e.Max)
}

// ThresholdBounds configures the explorer range and quiet period.
type ThresholdBounds struct {
	Min, Max, Step, Default float64
	Debounce                time.Duration
}

// ThresholdExplorer fetches recall/precision trade-offs for a threshold.
// Set debounces: every call restarts the quiet period and only the last value is fetched.
type ThresholdExplorer struct {
	scorer domsvc.Scorer
	b      ThresholdBounds
	slot   *Slot[models.ThresholdMetrics]

	mu      sync.Mutex
	current float64
	pending bool
	gen     uint64
	timer   *time.Timer
	base    context.Context
	subs    []Listener

	emitMu sync.Mutex // one render-and-deliver at a time

	deps
}

// NewThresholdExplorer creates an explorer positioned at b.Default.
func NewThresholdExplorer(scorer domsvc.Scorer, b ThresholdBounds, opts ...Option) *ThresholdExplorer {
	e := &ThresholdExplorer{
		scorer:  scorer,
		b:       b,
		slot:    NewSlot[models.ThresholdMetrics](),
		current: util.RoundTo(b.Default, b.Step),
		base:    context.Background(),
		deps:    newDeps("threshold-explorer", opts),
	}
	e.slot.Watch(func(SlotState[models.ThresholdMetrics]) { e.emit() })
	return e
}

// Start binds debounced fetches to ctx and schedules the first fetch at the default threshold.
func (e *ThresholdExplorer) Start(ctx context.Context) {
	e.mu.Lock()
	e.base = ctx
	e.mu.Unlock()
	_ = e.Set(e.Current())
}

// Stop cancels a pending debounced fetch.
func (e *ThresholdExplorer) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	e.pending = false
}

// Current returns the selected threshold.
func (e *ThresholdExplorer) Current() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *ThresholdExplorer) normalize(t float64) (float64, error) {
	if t < e.b.Min || t > e.b.Max {
		return 0, &RangeError{Value: t, Min: e.b.Min, Max: e.b.Max}
	}
	return util.Clamp(util.RoundTo(t, e.b.Step), e.b.Min, e.b.Max), nil
}

// Set selects t and schedules a fetch after the quiet period.
// Values outside the range are rejected and schedule nothing.
func (e *ThresholdExplorer) Set(t float64) error {
	t, err := e.normalize(t)
	if err != nil {
		e.metrics.RecordFlow(flowThreshold, outcome(err))
		return err
	}

	e.mu.Lock()
	e.current = t
	e.pending = true
	e.gen++
	gen := e.gen
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.b.Debounce, func() { e.fire(gen, t) })
	e.mu.Unlock()

	e.emit()
	return nil
}

// fire runs a debounced fetch unless a newer Set replaced it.
func (e *ThresholdExplorer) fire(gen uint64, t float64) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.pending = false
	base := e.base
	e.mu.Unlock()

	_, _ = e.fetch(base, t)
}

// Query selects t and fetches it immediately, bypassing the quiet period.
func (e *ThresholdExplorer) Query(ctx context.Context, t float64) (models.ThresholdView, error) {
	t, err := e.normalize(t)
	if err != nil {
		e.metrics.RecordFlow(flowThreshold, outcome(err))
		return models.ThresholdView{}, err
	}

	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	e.current = t
	e.pending = false
	e.mu.Unlock()

	if _, err := e.fetch(ctx, t); err != nil {
		return e.View(), err
	}
	return e.View(), nil
}

func (e *ThresholdExplorer) fetch(ctx context.Context, t float64) (m models.ThresholdMetrics, err error) {
	start := time.Now()
	defer func() { e.observe(flowThreshold, start, err) }()

	callCtx, tk := e.slot.Begin(ctx)
	m, err = e.scorer.ThresholdMetrics(callCtx, t)
	if err != nil {
		if !e.slot.Current(tk) {
			return m, ErrSuperseded
		}
		if ferr := e.slot.Fail(tk, err.Error()); ferr != nil {
			return m, ferr
		}
		e.log.Warn("threshold metrics failed", logger.Float64("threshold", t), logger.Error(err))
		return m, err
	}
	if err = e.slot.Commit(tk, m); err != nil {
		return m, err
	}
	return m, nil
}

// View renders the explorer at the current threshold.
func (e *ThresholdExplorer) View() models.ThresholdView {
	e.mu.Lock()
	t, pending := e.current, e.pending
	e.mu.Unlock()

	st := e.slot.Snapshot()
	state := st.State
	if pending || state == models.StateIdle {
		state = models.StateLoading
	}
	if !st.HasValue || state == models.StateError {
		return risk.ThresholdView(t, state, nil, st.Err)
	}
	m := st.Value
	return risk.ThresholdView(t, state, &m, st.Err)
}

// Subscribe calls fn with the rendered view after every change.
func (e *ThresholdExplorer) Subscribe(fn Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

func (e *ThresholdExplorer) emit() {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	e.mu.Lock()
	subs := e.subs
	e.mu.Unlock()
	if len(subs) == 0 {
		return
	}
	v := e.View()
	for _, fn := range subs {
		fn(models.EventThreshold, v)
	}
}
