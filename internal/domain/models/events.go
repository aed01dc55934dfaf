package models

import "time"

// Event kinds published to the event stream and the WebSocket hub.
const (
	EventPrediction = "prediction"
	EventComparison = "comparison"
	EventMetrics    = "metrics"
	EventThreshold  = "threshold"
)

// ScoringEvent is emitted after a prediction or comparison completes.
// It is a notification for downstream consumers, not a record of truth.
type ScoringEvent struct {
	ID          string                  `json:"id"`
	Kind        string                  `json:"kind"`
	Features    FeatureVector           `json:"features"`
	Prediction  *PredictionResult       `json:"prediction,omitempty"`
	Models      map[ModelID]ModelResult `json:"models,omitempty"`
	ActiveModel ModelID                 `json:"active_model,omitempty"`
	Error       string                  `json:"error,omitempty"`
	OccurredAt  time.Time               `json:"occurred_at"`
}
