package risk

import (
	"fmt"

	"FraudDash/internal/domain/models"
)

// Sensitivity describes how eagerly a threshold flags fraud.
func Sensitivity(t float64) string {
	switch {
	case t < 0.4:
		return "Very High (Aggressive)"
	case t < 0.45:
		return "High"
	case t < 0.55:
		return "Balanced"
	case t < 0.65:
		return "Conservative"
	default:
		return "Very Conservative"
	}
}

// RecallTone grades a fraud recall value.
func RecallTone(recall float64) models.Tone {
	switch {
	case recall > 0.8:
		return models.ToneExcellent
	case recall > 0.6:
		return models.ToneGood
	case recall > 0.4:
		return models.ToneFair
	default:
		return models.TonePoor
	}
}

// FalsePositiveShare is the fraction of flagged transactions that were legitimate.
// A zero denominator is treated as one.
func FalsePositiveShare(falsePositives, predictedFraud int) float64 {
	if predictedFraud < 1 {
		predictedFraud = 1
	}
	return float64(falsePositives) / float64(predictedFraud)
}

// FalsePositiveTone grades a false-positive share.
func FalsePositiveTone(share float64) models.Tone {
	switch {
	case share > 0.15:
		return models.ToneCritical
	case share > 0.10:
		return models.ToneHigh
	case share > 0.05:
		return models.ToneModerate
	default:
		return models.ToneLow
	}
}

// Insights lists the plain-language notes for a threshold and its metrics.
func Insights(t float64, m models.ThresholdMetrics) []string {
	out := make([]string, 0, 4)
	switch {
	case t < 0.4:
		out = append(out, "Aggressive Detection: Your threshold is low, catching more fraud but expect higher false alarm rates.")
	case t < 0.55:
		out = append(out, "Balanced Approach: Good trade-off between catching fraud and avoiding false alarms.")
	default:
		out = append(out, "Conservative Mode: Your threshold is high, minimizing false alarms but may miss some frauds.")
	}
	if m.Recall > 0.85 {
		out = append(out, "Excellent recall rate - catching most fraudulent transactions.")
	}
	if m.Precision > 0.8 {
		out = append(out, "High precision - most flagged transactions are actually fraudulent.")
	}
	if m.FalsePositives > 100 {
		out = append(out, fmt.Sprintf("Consider if %d false alarms per period is acceptable for your business.", m.FalsePositives))
	}
	return out
}
