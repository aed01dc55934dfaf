package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"FraudDash/internal/domain/models"
	domsvc "FraudDash/internal/domain/service"
	"FraudDash/internal/services/features"
	"FraudDash/internal/services/risk"
	"FraudDash/pkg/logger"
)

const flowComparison = "comparison"

var (
	// ErrUnknownModel is returned by Select for an id outside the compared set.
	ErrUnknownModel = errors.New("unknown model")
	// ErrModelUnavailable is returned by Select for a model without a usable result.
	ErrModelUnavailable = errors.New("model not available")
)

// Comparison scores one transaction with every model and tracks the active model.
type Comparison struct {
	scorer domsvc.Scorer
	slot   *Slot[models.ComparisonResult]

	// mu keeps active consistent with the slot: a commit and the active
	// model it implies change together, and View reads both together.
	mu     sync.Mutex
	active models.ModelID

	subMu  sync.Mutex
	subs   []Listener
	emitMu sync.Mutex

	deps
}

// NewComparison creates the comparison flow with random_forest active.
func NewComparison(scorer domsvc.Scorer, opts ...Option) *Comparison {
	c := &Comparison{
		scorer: scorer,
		slot:   NewSlot[models.ComparisonResult](),
		active: models.ModelRandomForest,
		deps:   newDeps(flowComparison, opts),
	}
	return c
}

// Compare parses raw and asks every model for a score.
func (c *Comparison) Compare(ctx context.Context, raw string) (view models.ComparisonView, err error) {
	start := time.Now()
	defer func() { c.observe(flowComparison, start, err) }()

	vec, err := features.Parse(raw)
	if err != nil {
		_, tk := c.slot.BeginFresh(ctx)
		_ = c.slot.Fail(tk, err.Error())
		c.emit()
		return view, err
	}

	callCtx, tk := c.slot.BeginFresh(ctx)
	c.emit()
	res, err := c.scorer.Compare(callCtx, vec)
	if err != nil {
		if !c.slot.Current(tk) {
			return view, ErrSuperseded
		}
		if ferr := c.slot.Fail(tk, err.Error()); ferr != nil {
			return view, ferr
		}
		c.emit()
		c.log.Warn("comparison failed", logger.Error(err))
		return view, err
	}

	c.mu.Lock()
	if err = c.slot.Commit(tk, res); err != nil {
		c.mu.Unlock()
		return view, err
	}
	prev := c.active
	if !res.Enabled(prev) {
		c.active, _ = res.FirstEnabled()
	}
	active := c.active
	c.mu.Unlock()
	c.emit()

	if prev != active {
		c.log.Info("active model unavailable, switching",
			logger.String("from", string(prev)),
			logger.String("to", string(active)))
	}

	for _, id := range models.ModelOrder {
		if res.Enabled(id) {
			c.metrics.RecordProbability(string(id), res.Models[id].FraudProbability)
		}
	}
	c.publish(&models.ScoringEvent{Kind: models.EventComparison, Features: vec, Models: res.Models, ActiveModel: active})
	return risk.ComparisonView(res, active), nil
}

// Select makes id the active model. Only models with a usable result can be selected.
func (c *Comparison) Select(id models.ModelID) (models.ComparisonView, error) {
	if !id.Known() {
		return models.ComparisonView{}, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}

	c.mu.Lock()
	st := c.slot.Snapshot()
	if !st.HasValue || !st.Value.Enabled(id) {
		c.mu.Unlock()
		return c.View(), fmt.Errorf("%w: %s", ErrModelUnavailable, id.Label())
	}
	c.active = id
	c.mu.Unlock()

	c.emit()
	return c.View(), nil
}

// Active returns the active model, empty when every model failed.
func (c *Comparison) Active() models.ModelID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// View renders the current comparison.
func (c *Comparison) View() models.ComparisonView {
	c.mu.Lock()
	st, active := c.slot.Snapshot(), c.active
	c.mu.Unlock()
	return c.render(st, active)
}

// Subscribe calls fn with the rendered view after every change.
func (c *Comparison) Subscribe(fn Listener) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subs = append(c.subs, fn)
}

// emit renders at delivery time and one emit at a time, so the last frame
// a subscriber gets always reflects the latest state.
func (c *Comparison) emit() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.subMu.Lock()
	subs := c.subs
	c.subMu.Unlock()
	if len(subs) == 0 {
		return
	}
	v := c.View()
	for _, fn := range subs {
		fn(models.EventComparison, v)
	}
}

func (c *Comparison) render(st SlotState[models.ComparisonResult], active models.ModelID) models.ComparisonView {
	if st.State == models.StateSuccess && st.HasValue {
		return risk.ComparisonView(st.Value, active)
	}
	v := models.ComparisonView{
		State:   st.State,
		Toggles: risk.Toggles(nil, active),
		Active:  active,
		Error:   st.Err,
	}
	if !st.UpdatedAt.IsZero() {
		at := st.UpdatedAt
		v.UpdatedAt = &at
	}
	return v
}
