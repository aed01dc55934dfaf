package usecase

import (
	"context"
	"sync"

	"FraudDash/internal/domain/models"
)

// fakeScorer lets each test script the scoring API.
type fakeScorer struct {
	mu sync.Mutex

	predict    func(ctx context.Context, v models.FeatureVector) (models.PredictionResult, error)
	compare    func(ctx context.Context, v models.FeatureVector) (models.ComparisonResult, error)
	metrics    func(ctx context.Context) (models.MetricsReport, error)
	thresholds func(ctx context.Context, t float64) (models.ThresholdMetrics, error)

	calls      map[string]int
	thresholdQ []float64
}

func (f *fakeScorer) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeScorer) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeScorer) Thresholds() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.thresholdQ...)
}

func (f *fakeScorer) Predict(ctx context.Context, v models.FeatureVector) (models.PredictionResult, error) {
	f.count("predict")
	return f.predict(ctx, v)
}

func (f *fakeScorer) Compare(ctx context.Context, v models.FeatureVector) (models.ComparisonResult, error) {
	f.count("compare")
	return f.compare(ctx, v)
}

func (f *fakeScorer) Metrics(ctx context.Context) (models.MetricsReport, error) {
	f.count("metrics")
	return f.metrics(ctx)
}

func (f *fakeScorer) ThresholdMetrics(ctx context.Context, t float64) (models.ThresholdMetrics, error) {
	f.count("threshold")
	f.mu.Lock()
	f.thresholdQ = append(f.thresholdQ, t)
	f.mu.Unlock()
	return f.thresholds(ctx, t)
}

const validInput = "1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17,18,19,20"
