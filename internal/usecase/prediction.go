package usecase

import (
	"context"
	"time"

	"FraudDash/internal/domain/models"
	domsvc "FraudDash/internal/domain/service"
	"FraudDash/internal/services/features"
	"FraudDash/internal/services/risk"
	"FraudDash/pkg/logger"
)

const flowPrediction = "prediction"

// Prediction validates raw input, scores it and keeps the latest rendered result.
type Prediction struct {
	scorer domsvc.Scorer
	slot   *Slot[models.PredictionResult]
	deps
}

// NewPrediction creates the prediction flow.
func NewPrediction(scorer domsvc.Scorer, opts ...Option) *Prediction {
	return &Prediction{
		scorer: scorer,
		slot:   NewSlot[models.PredictionResult](),
		deps:   newDeps(flowPrediction, opts),
	}
}

// Submit parses raw, calls the scoring API and renders the answer.
// Validation failures never reach the network and are returned as *features.ValidationError.
func (p *Prediction) Submit(ctx context.Context, raw string) (view models.PredictionView, err error) {
	start := time.Now()
	defer func() { p.observe(flowPrediction, start, err) }()

	vec, err := features.Parse(raw)
	if err != nil {
		_, tk := p.slot.BeginFresh(ctx)
		_ = p.slot.Fail(tk, err.Error())
		return view, err
	}

	callCtx, tk := p.slot.BeginFresh(ctx)
	res, err := p.scorer.Predict(callCtx, vec)
	if err != nil {
		if !p.slot.Current(tk) {
			return view, ErrSuperseded
		}
		if ferr := p.slot.Fail(tk, err.Error()); ferr != nil {
			return view, ferr
		}
		p.log.Warn("prediction failed", logger.Error(err))
		return view, err
	}
	if err = p.slot.Commit(tk, res); err != nil {
		return view, err
	}

	p.metrics.RecordProbability(string(models.ModelRandomForest), res.FraudProbability)
	p.publish(&models.ScoringEvent{Kind: models.EventPrediction, Features: vec, Prediction: &res})
	p.log.Info("transaction scored",
		logger.Float64("fraud_probability", res.FraudProbability),
		logger.String("prediction", res.Prediction),
		logger.String("risk_level", res.RiskLevel))
	return risk.PredictionView(res), nil
}

// Clear cancels any request in flight and empties the slot.
func (p *Prediction) Clear() {
	p.slot.Reset()
}

// View renders the current slot.
func (p *Prediction) View() models.PredictionSlotView {
	return renderPrediction(p.slot.Snapshot())
}

// Subscribe calls fn with the rendered view after every change.
func (p *Prediction) Subscribe(fn Listener) {
	p.slot.Watch(func(st SlotState[models.PredictionResult]) {
		fn(models.EventPrediction, renderPrediction(st))
	})
}

func renderPrediction(st SlotState[models.PredictionResult]) models.PredictionSlotView {
	v := models.PredictionSlotView{State: st.State, Error: st.Err}
	if st.HasValue {
		pv := risk.PredictionView(st.Value)
		v.Prediction = &pv
	}
	if !st.UpdatedAt.IsZero() {
		at := st.UpdatedAt
		v.UpdatedAt = &at
	}
	return v
}
