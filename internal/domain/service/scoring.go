package service

import (
	"context"

	"FraudDash/internal/domain/models"
)

// Scorer is the remote fraud-scoring API.
type Scorer interface {
	Predict(ctx context.Context, features models.FeatureVector) (models.PredictionResult, error)
	Compare(ctx context.Context, features models.FeatureVector) (models.ComparisonResult, error)
	Metrics(ctx context.Context) (models.MetricsReport, error)
	ThresholdMetrics(ctx context.Context, threshold float64) (models.ThresholdMetrics, error)
}
