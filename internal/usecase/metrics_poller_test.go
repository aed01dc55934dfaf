package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FraudDash/internal/domain/models"
)

func TestPollerStartsLoading(t *testing.T) {
	p := NewMetricsPoller(&fakeScorer{}, time.Hour)
	v := p.View()
	assert.Equal(t, models.StateLoading, v.State)
	assert.Nil(t, v.Metrics)
}

func TestPollerPollsOnInterval(t *testing.T) {
	var n int32
	fs := &fakeScorer{metrics: func(context.Context) (models.MetricsReport, error) {
		i := atomic.AddInt32(&n, 1)
		return models.MetricsReport{Metrics: models.MetricsSnapshot{PRAUC: float64(i) / 10}, FetchedAt: time.Now()}, nil
	}}
	p := NewMetricsPoller(fs, 20*time.Millisecond)
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&n) >= 3 }, time.Second, 5*time.Millisecond)
	v := p.View()
	assert.Equal(t, models.StateSuccess, v.State)
	require.NotNil(t, v.Metrics)
	assert.NotNil(t, v.FetchedAt)
}

func TestPollerErrorUntilRefresh(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	fs := &fakeScorer{metrics: func(context.Context) (models.MetricsReport, error) {
		if fail.Load() {
			return models.MetricsReport{}, errors.New("Failed to load metrics")
		}
		return models.MetricsReport{Metrics: models.MetricsSnapshot{PRAUC: 0.88}, Explanation: "ok"}, nil
	}}
	p := NewMetricsPoller(fs, time.Hour)

	v, err := p.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.StateError, v.State)
	assert.Equal(t, "Failed to load metrics", v.Error)

	fail.Store(false)
	v, err = p.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StateSuccess, v.State)
	assert.Empty(t, v.Error)
	assert.Equal(t, 0.88, v.Metrics.PRAUC)
	assert.Equal(t, "ok", v.Explanation)
}

func TestPollerStartsEmptyWhileFirstFetchRuns(t *testing.T) {
	block := make(chan struct{})
	fs := &fakeScorer{metrics: func(ctx context.Context) (models.MetricsReport, error) {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return models.MetricsReport{}, ctx.Err()
	}}
	p := NewMetricsPoller(fs, time.Hour)

	p.Start(context.Background())
	require.Eventually(t, func() bool { return fs.Calls("metrics") == 1 }, time.Second, time.Millisecond)

	v := p.View()
	assert.Equal(t, models.StateLoading, v.State)
	assert.Nil(t, v.Metrics, "nothing is carried over from an earlier run")

	p.Stop()
	close(block)
}

func TestPollerSubscribe(t *testing.T) {
	fs := &fakeScorer{metrics: func(context.Context) (models.MetricsReport, error) {
		return models.MetricsReport{Metrics: models.MetricsSnapshot{PRAUC: 0.5}}, nil
	}}
	p := NewMetricsPoller(fs, time.Hour)

	var states []models.FlowState
	p.Subscribe(func(kind string, view interface{}) {
		assert.Equal(t, models.EventMetrics, kind)
		states = append(states, view.(models.MetricsView).State)
	})

	_, err := p.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.FlowState{models.StateLoading, models.StateSuccess}, states)
}
