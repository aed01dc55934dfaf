package models

import "time"

// FeatureCount is the number of inputs every scoring model expects.
const FeatureCount = 20

// FeatureVector holds one transaction's features in input order.
// It is rebuilt from raw text on every submit.
type FeatureVector [FeatureCount]float64

// Slice returns the features as a slice for JSON payloads.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

// ModelID identifies a model in a comparison response.
type ModelID string

const (
	ModelRandomForest    ModelID = "random_forest"
	ModelBaseline        ModelID = "baseline"
	ModelSMOTE           ModelID = "smote"
	ModelIsolationForest ModelID = "isolation_forest"
)

// ModelOrder is the fixed display order of compared models.
var ModelOrder = []ModelID{ModelRandomForest, ModelBaseline, ModelSMOTE, ModelIsolationForest}

var modelLabels = map[ModelID]string{
	ModelRandomForest:    "Random Forest",
	ModelBaseline:        "Baseline Model",
	ModelSMOTE:           "SMOTE Model",
	ModelIsolationForest: "Isolation Forest",
}

// Label returns the display name of the model.
func (m ModelID) Label() string {
	if l, ok := modelLabels[m]; ok {
		return l
	}
	return string(m)
}

// Known reports whether m is one of the compared models.
func (m ModelID) Known() bool {
	_, ok := modelLabels[m]
	return ok
}

// Prediction labels returned by the scoring API.
const (
	PredictionFraud    = "Fraud"
	PredictionNotFraud = "Not Fraud"
)

// PredictionResult is the scoring API's answer for one transaction.
// RiskLevel is empty when the API did not send one.
type PredictionResult struct {
	FraudProbability float64 `json:"fraud_probability"`
	Prediction       string  `json:"prediction"`
	RiskLevel        string  `json:"risk_level,omitempty"`
}

// IsFraud reports whether the API labelled the transaction as fraud.
func (r PredictionResult) IsFraud() bool {
	return r.Prediction == PredictionFraud
}

// ModelResult is one entry of a comparison. Error is set when that model failed.
type ModelResult struct {
	PredictionResult
	Threshold    *float64 `json:"threshold,omitempty"`
	AnomalyScore *float64 `json:"anomaly_score,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Available reports whether the model produced a usable result.
func (r ModelResult) Available() bool {
	return r.Error == ""
}

// ComparisonResult maps each model to its result. A missing model counts as failed.
type ComparisonResult struct {
	Models     map[ModelID]ModelResult `json:"models"`
	ReceivedAt time.Time               `json:"received_at"`
}

// Enabled reports whether id has a usable result and can become active.
func (c ComparisonResult) Enabled(id ModelID) bool {
	r, ok := c.Models[id]
	return ok && r.Available()
}

// FirstEnabled returns the first usable model in display order.
func (c ComparisonResult) FirstEnabled() (ModelID, bool) {
	for _, id := range ModelOrder {
		if c.Enabled(id) {
			return id, true
		}
	}
	return "", false
}

// MetricsSnapshot holds the headline quality numbers of the production model.
type MetricsSnapshot struct {
	PRAUC          float64 `json:"pr_auc"`
	F1Score        float64 `json:"f1_score"`
	RecallFraud    float64 `json:"recall_fraud"`
	PrecisionFraud float64 `json:"precision_fraud"`
	Threshold      float64 `json:"threshold"`
}

// MetricsReport is a successful /metrics answer.
type MetricsReport struct {
	Metrics     MetricsSnapshot `json:"metrics"`
	Explanation string          `json:"explanation"`
	FetchedAt   time.Time       `json:"fetched_at"`
}

// ThresholdMetrics describes classifier behaviour at one decision threshold.
type ThresholdMetrics struct {
	Threshold           float64 `json:"threshold"`
	Recall              float64 `json:"recall"`
	Precision           float64 `json:"precision"`
	F1Score             float64 `json:"f1_score"`
	FalsePositives      int     `json:"false_positives"`
	FalsePositiveRate   float64 `json:"false_positive_rate"`
	TruePositives       int     `json:"true_positives"`
	TotalPredictedFraud int     `json:"total_predicted_fraud"`
	TotalFraudCases     int     `json:"total_fraud_cases"`
}
