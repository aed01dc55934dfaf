package risk

import (
	"fmt"
	"time"

	"FraudDash/internal/domain/models"
	"FraudDash/pkg/util"
)

// PredictionView renders a result. The badge shows the server's risk level
// verbatim and falls back to the local band only when the server sent none.
// The bar tone is always recomputed from the probability.
func PredictionView(r models.PredictionResult) models.PredictionView {
	local := Classify(r.FraudProbability)

	badge := r.RiskLevel
	if badge == "" {
		badge = local.String()
	}
	advice := local.Advice()
	if b, ok := ParseLabel(r.RiskLevel); ok {
		advice = b.Advice()
	}

	return models.PredictionView{
		Result:          r,
		Badge:           badge,
		BarWidth:        util.Clamp(r.FraudProbability*100, 0, 100),
		BarTone:         local.Tone(),
		ProbabilityText: util.FormatPercent(r.FraudProbability, 2),
		Advice:          advice,
		IsFraud:         r.IsFraud(),
	}
}

// Anomaly intensity cut-offs on the normalized score.
var intensities = []struct {
	above float64
	label string
}{
	{0.8, "Extremely Unusual"},
	{0.6, "Highly Unusual"},
	{0.4, "Moderately Unusual"},
	{0.2, "Slightly Unusual"},
}

// NormalizeAnomaly maps a raw isolation-forest score onto [0,1].
func NormalizeAnomaly(score float64) float64 {
	return util.Clamp((score+0.5)*1.5, 0, 1)
}

// AnomalyView renders an anomaly score.
func AnomalyView(score float64) models.AnomalyView {
	n := NormalizeAnomaly(score)
	label := "Normal Pattern"
	for _, in := range intensities {
		if n > in.above {
			label = in.label
			break
		}
	}
	return models.AnomalyView{Score: score, Normalized: n, Intensity: label}
}

// ComparisonView renders a comparison with the given active model.
// An empty active means no model is selectable.
func ComparisonView(c models.ComparisonResult, active models.ModelID) models.ComparisonView {
	v := models.ComparisonView{
		State:     models.StateSuccess,
		Toggles:   Toggles(&c, active),
		Active:    active,
		UpdatedAt: stamp(c.ReceivedAt),
	}
	if active != "" && c.Enabled(active) {
		v.Detail = modelDetail(active, c.Models[active])
	}
	return v
}

// Toggles renders one toggle per model in display order. c may be nil before any comparison ran.
func Toggles(c *models.ComparisonResult, active models.ModelID) []models.ModelToggle {
	out := make([]models.ModelToggle, 0, len(models.ModelOrder))
	for _, id := range models.ModelOrder {
		t := models.ModelToggle{ID: id, Label: id.Label()}
		if c != nil {
			r, ok := c.Models[id]
			switch {
			case !ok:
				t.Error = "no result"
			case !r.Available():
				t.Error = r.Error
			default:
				t.Enabled = true
				p := r.FraudProbability
				t.Probability = &p
			}
		}
		t.Active = t.Enabled && id == active
		out = append(out, t)
	}
	return out
}

func modelDetail(id models.ModelID, r models.ModelResult) *models.ModelDetail {
	d := &models.ModelDetail{
		ID:         id,
		Label:      id.Label(),
		Prediction: PredictionView(r.PredictionResult),
		Threshold:  r.Threshold,
	}
	if r.AnomalyScore != nil {
		a := AnomalyView(*r.AnomalyScore)
		d.Anomaly = &a
	}
	return d
}

// ThresholdView renders the explorer state for threshold t.
func ThresholdView(t float64, state models.FlowState, m *models.ThresholdMetrics, errMsg string) models.ThresholdView {
	v := models.ThresholdView{
		Threshold:   t,
		Sensitivity: Sensitivity(t),
		State:       state,
		Error:       errMsg,
	}
	if m == nil {
		return v
	}
	mc := *m
	share := FalsePositiveShare(mc.FalsePositives, mc.TotalPredictedFraud)
	v.Metrics = &mc
	v.RecallTone = RecallTone(mc.Recall)
	v.FalsePositiveRate = share
	v.FalsePositiveTone = FalsePositiveTone(share)
	v.Insights = Insights(t, mc)
	return v
}

// MetricsView renders the poller state.
func MetricsView(state models.FlowState, r *models.MetricsReport, errMsg string) models.MetricsView {
	v := models.MetricsView{State: state, Error: errMsg}
	if r == nil {
		return v
	}
	snap := r.Metrics
	v.Metrics = &snap
	v.Explanation = r.Explanation
	v.FetchedAt = stamp(r.FetchedAt)
	return v
}

// Summary is a one-line description used by logs and the CLI.
func Summary(r models.PredictionResult) string {
	return fmt.Sprintf("%s (%s, %s)", r.Prediction, util.FormatPercent(r.FraudProbability, 2), PredictionView(r).Badge)
}

// stamp returns a pointer to a copy of t, or nil for the zero time.
func stamp(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
