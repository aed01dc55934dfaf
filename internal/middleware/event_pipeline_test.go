package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FraudDash/internal/domain/models"
)

type memPublisher struct {
	mu      sync.Mutex
	batches [][]*models.ScoringEvent
	fail    error
	calls   int
}

func (m *memPublisher) Publish(ctx context.Context, e *models.ScoringEvent) error {
	return m.PublishBatch(ctx, []*models.ScoringEvent{e})
}

func (m *memPublisher) PublishBatch(_ context.Context, events []*models.ScoringEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return m.fail
	}
	m.batches = append(m.batches, events)
	return nil
}

func (m *memPublisher) Close() error { return nil }

func (m *memPublisher) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

func event(id string) *models.ScoringEvent {
	return &models.ScoringEvent{ID: id, Kind: models.EventPrediction, OccurredAt: time.Now()}
}

func TestPipelineFlushesOnStop(t *testing.T) {
	pub := &memPublisher{}
	p := NewEventPipeline(pub, nil, WithBatch(100, time.Hour))
	p.Start(context.Background())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, p.Submit(event(id)))
	}
	p.Stop()

	assert.Equal(t, 3, pub.total())
}

func TestPipelineFlushesFullBatch(t *testing.T) {
	pub := &memPublisher{}
	p := NewEventPipeline(pub, nil, WithBatch(2, time.Hour))
	p.Start(context.Background())
	defer p.Stop()

	require.NoError(t, p.Submit(event("a")))
	require.NoError(t, p.Submit(event("b")))

	require.Eventually(t, func() bool { return pub.total() == 2 }, time.Second, 5*time.Millisecond)
}

func TestPipelineRejectsInvalidEvents(t *testing.T) {
	p := NewEventPipeline(&memPublisher{}, nil)

	assert.Error(t, p.Submit(nil))
	assert.Error(t, p.Submit(&models.ScoringEvent{Kind: models.EventPrediction, OccurredAt: time.Now()}))
	assert.Error(t, p.Submit(&models.ScoringEvent{ID: "x", Kind: "metrics", OccurredAt: time.Now()}))
	assert.Error(t, p.Submit(&models.ScoringEvent{ID: "x", Kind: models.EventComparison}))
}

func TestPipelineDropsWhenBufferFull(t *testing.T) {
	p := NewEventPipeline(&memPublisher{}, nil, WithBufferSize(1))

	require.NoError(t, p.Submit(event("a")))
	assert.Error(t, p.Submit(event("b")))
}

func TestPipelineGivesUpAfterBackoff(t *testing.T) {
	pub := &memPublisher{fail: errors.New("broker down")}
	p := NewEventPipeline(pub, nil, WithBatch(1, time.Hour))
	p.maxBackoff = 100 * time.Millisecond
	p.Start(context.Background())

	require.NoError(t, p.Submit(event("a")))
	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return pub.calls >= 3
	}, 2*time.Second, 10*time.Millisecond)
	p.Stop()
	assert.Equal(t, 0, pub.total())
}
