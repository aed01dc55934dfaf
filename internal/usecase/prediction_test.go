package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FraudDash/internal/domain/models"
	"FraudDash/internal/services/features"
)

type captureSink struct {
	mu     sync.Mutex
	events []*models.ScoringEvent
}

func (s *captureSink) Submit(e *models.ScoringEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func TestPredictionValidationSkipsNetwork(t *testing.T) {
	fs := &fakeScorer{}
	p := NewPrediction(fs)

	_, err := p.Submit(context.Background(), "1,2,3")
	require.Error(t, err)
	assert.EqualError(t, err, "expected exactly 20 features, got 3")

	var ve *features.ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, 0, fs.Calls("predict"))

	v := p.View()
	assert.Equal(t, models.StateError, v.State)
	assert.Equal(t, "expected exactly 20 features, got 3", v.Error)
}

func TestPredictionSuccess(t *testing.T) {
	sink := &captureSink{}
	fs := &fakeScorer{predict: func(_ context.Context, v models.FeatureVector) (models.PredictionResult, error) {
		assert.Equal(t, 20.0, v[19])
		return models.PredictionResult{FraudProbability: 0.75, Prediction: "Fraud", RiskLevel: "High Risk"}, nil
	}}
	p := NewPrediction(fs, WithEvents(sink))

	view, err := p.Submit(context.Background(), validInput)
	require.NoError(t, err)
	assert.Equal(t, "High Risk", view.Badge)
	assert.Equal(t, 75.0, view.BarWidth)

	slot := p.View()
	assert.Equal(t, models.StateSuccess, slot.State)
	require.NotNil(t, slot.Prediction)
	assert.Equal(t, "75.00%", slot.Prediction.ProbabilityText)

	require.Len(t, sink.events, 1)
	e := sink.events[0]
	assert.Equal(t, models.EventPrediction, e.Kind)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.OccurredAt.IsZero())
	assert.Equal(t, 0.75, e.Prediction.FraudProbability)
}

func TestPredictionUpstreamErrorIsKept(t *testing.T) {
	fs := &fakeScorer{predict: func(context.Context, models.FeatureVector) (models.PredictionResult, error) {
		return models.PredictionResult{}, errors.New("Prediction error: model not loaded")
	}}
	p := NewPrediction(fs)

	_, err := p.Submit(context.Background(), validInput)
	require.Error(t, err)
	v := p.View()
	assert.Equal(t, models.StateError, v.State)
	assert.Equal(t, "Prediction error: model not loaded", v.Error)
	assert.Nil(t, v.Prediction)
}

func TestPredictionStaleResponseIsDropped(t *testing.T) {
	release := make(chan struct{})
	var n int
	var mu sync.Mutex
	fs := &fakeScorer{predict: func(ctx context.Context, _ models.FeatureVector) (models.PredictionResult, error) {
		mu.Lock()
		n++
		first := n == 1
		mu.Unlock()
		if first {
			// A slow backend that ignores cancellation.
			<-release
			return models.PredictionResult{FraudProbability: 0.9, Prediction: "Fraud", RiskLevel: "High Risk"}, nil
		}
		return models.PredictionResult{FraudProbability: 0.1, Prediction: "Not Fraud", RiskLevel: "Low Risk"}, nil
	}}
	p := NewPrediction(fs)

	firstErr := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background(), validInput)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return fs.Calls("predict") == 1 }, time.Second, time.Millisecond)

	_, err := p.Submit(context.Background(), validInput)
	require.NoError(t, err)
	close(release)

	assert.ErrorIs(t, <-firstErr, ErrSuperseded)
	v := p.View()
	require.NotNil(t, v.Prediction)
	assert.Equal(t, 0.1, v.Prediction.Result.FraudProbability)
}

func TestPredictionCancelledBySupersede(t *testing.T) {
	var once sync.Once
	started := make(chan struct{})
	fs := &fakeScorer{predict: func(ctx context.Context, _ models.FeatureVector) (models.PredictionResult, error) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(started)
			<-ctx.Done()
			return models.PredictionResult{}, ctx.Err()
		}
		return models.PredictionResult{FraudProbability: 0.2, Prediction: "Not Fraud"}, nil
	}}
	p := NewPrediction(fs)

	firstErr := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background(), validInput)
		firstErr <- err
	}()
	<-started

	_, err := p.Submit(context.Background(), validInput)
	require.NoError(t, err)
	assert.ErrorIs(t, <-firstErr, ErrSuperseded)
	assert.Equal(t, models.StateSuccess, p.View().State)
}

func TestPredictionClear(t *testing.T) {
	fs := &fakeScorer{predict: func(context.Context, models.FeatureVector) (models.PredictionResult, error) {
		return models.PredictionResult{FraudProbability: 0.5, Prediction: "Fraud"}, nil
	}}
	p := NewPrediction(fs)

	var seen []models.FlowState
	p.Subscribe(func(kind string, view interface{}) {
		assert.Equal(t, models.EventPrediction, kind)
		seen = append(seen, view.(models.PredictionSlotView).State)
	})

	_, err := p.Submit(context.Background(), validInput)
	require.NoError(t, err)
	p.Clear()

	v := p.View()
	assert.Equal(t, models.StateIdle, v.State)
	assert.Nil(t, v.Prediction)
	assert.Equal(t, []models.FlowState{models.StateLoading, models.StateSuccess, models.StateIdle}, seen)
}
