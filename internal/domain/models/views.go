package models

import "time"

// FlowState is the lifecycle of one dashboard slot.
type FlowState string

const (
	StateIdle    FlowState = "idle"
	StateLoading FlowState = "loading"
	StateSuccess FlowState = "success"
	StateError   FlowState = "error"
)

// Tone is the colour family a value renders with.
type Tone string

const (
	ToneGreen  Tone = "green"
	ToneYellow Tone = "yellow"
	ToneRed    Tone = "red"

	ToneExcellent Tone = "excellent"
	ToneGood      Tone = "good"
	ToneFair      Tone = "fair"
	TonePoor      Tone = "poor"

	ToneLow      Tone = "low"
	ToneModerate Tone = "moderate"
	ToneHigh     Tone = "high"
	ToneCritical Tone = "critical"
)

// PredictionView is a rendered PredictionResult.
// Badge is the server risk level; BarTone comes from the local risk bands.
type PredictionView struct {
	Result          PredictionResult `json:"result"`
	Badge           string           `json:"badge"`
	BarWidth        float64          `json:"bar_width"`
	BarTone         Tone             `json:"bar_tone"`
	ProbabilityText string           `json:"probability_text"`
	Advice          string           `json:"advice"`
	IsFraud         bool             `json:"is_fraud"`
}

// PredictionSlotView is the state of the single-prediction flow.
type PredictionSlotView struct {
	State      FlowState       `json:"state"`
	Prediction *PredictionView `json:"prediction,omitempty"`
	Error      string          `json:"error,omitempty"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

// AnomalyView renders an isolation-forest anomaly score.
type AnomalyView struct {
	Score      float64 `json:"score"`
	Normalized float64 `json:"normalized"`
	Intensity  string  `json:"intensity"`
}

// ModelToggle is one model button in the comparison panel.
type ModelToggle struct {
	ID          ModelID  `json:"id"`
	Label       string   `json:"label"`
	Enabled     bool     `json:"enabled"`
	Active      bool     `json:"active"`
	Probability *float64 `json:"probability,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// ModelDetail is the expanded view of the active model.
type ModelDetail struct {
	ID         ModelID        `json:"id"`
	Label      string         `json:"label"`
	Prediction PredictionView `json:"prediction"`
	Threshold  *float64       `json:"threshold,omitempty"`
	Anomaly    *AnomalyView   `json:"anomaly,omitempty"`
}

// ComparisonView is the state of the comparison flow.
type ComparisonView struct {
	State     FlowState     `json:"state"`
	Toggles   []ModelToggle `json:"toggles"`
	Active    ModelID       `json:"active,omitempty"`
	Detail    *ModelDetail  `json:"detail,omitempty"`
	Error     string        `json:"error,omitempty"`
	UpdatedAt *time.Time    `json:"updated_at,omitempty"`
}

// MetricsView is the state of the metrics poller.
type MetricsView struct {
	State       FlowState        `json:"state"`
	Metrics     *MetricsSnapshot `json:"metrics,omitempty"`
	Explanation string           `json:"explanation,omitempty"`
	Error       string           `json:"error,omitempty"`
	FetchedAt   *time.Time       `json:"fetched_at,omitempty"`
}

// ThresholdView is the state of the threshold explorer.
type ThresholdView struct {
	Threshold         float64           `json:"threshold"`
	Sensitivity       string            `json:"sensitivity"`
	State             FlowState         `json:"state"`
	Metrics           *ThresholdMetrics `json:"metrics,omitempty"`
	RecallTone        Tone              `json:"recall_tone,omitempty"`
	FalsePositiveRate float64           `json:"false_positive_share,omitempty"`
	FalsePositiveTone Tone              `json:"false_positive_tone,omitempty"`
	Insights          []string          `json:"insights,omitempty"`
	Error             string            `json:"error,omitempty"`
}

// DashboardView bundles every slot for the initial WebSocket frame.
type DashboardView struct {
	Prediction PredictionSlotView `json:"prediction"`
	Comparison ComparisonView     `json:"comparison"`
	Metrics    MetricsView        `json:"metrics"`
	Threshold  ThresholdView      `json:"threshold"`
}
