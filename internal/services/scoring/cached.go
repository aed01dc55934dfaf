package scoring

import (
	"context"
	"time"

	"FraudDash/internal/domain/models"
	domsvc "FraudDash/internal/domain/service"
	"FraudDash/internal/service/metrics"
	"FraudDash/pkg/cache"
	"FraudDash/pkg/logger"
)

const prefixThreshold = "threshold"

// Cached wraps a Scorer with a short-lived cache of threshold answers.
// Predictions, comparisons and metrics always go to the API.
type Cached struct {
	next         domsvc.Scorer
	cache        cache.Service
	thresholdTTL time.Duration
	log          *logger.Logger
}

// NewCached decorates next. A nil cache turns the decorator into a pass-through.
func NewCached(next domsvc.Scorer, c cache.Service, thresholdTTL time.Duration, l *logger.Logger) *Cached {
	if l == nil {
		l = logger.NewNop()
	}
	return &Cached{
		next:         next,
		cache:        c,
		thresholdTTL: thresholdTTL,
		log:          l.With("scoring-cache"),
	}
}

func (s *Cached) Predict(ctx context.Context, features models.FeatureVector) (models.PredictionResult, error) {
	return s.next.Predict(ctx, features)
}

func (s *Cached) Compare(ctx context.Context, features models.FeatureVector) (models.ComparisonResult, error) {
	return s.next.Compare(ctx, features)
}

func (s *Cached) Metrics(ctx context.Context) (models.MetricsReport, error) {
	return s.next.Metrics(ctx)
}

// ThresholdMetrics serves repeated thresholds from cache for a short TTL.
func (s *Cached) ThresholdMetrics(ctx context.Context, t float64) (models.ThresholdMetrics, error) {
	key := cache.FloatKey(prefixThreshold, t, 2)
	m, hit, err := cache.GetOrLoad(ctx, s.cache, key, s.thresholdTTL, func(ctx context.Context) (models.ThresholdMetrics, error) {
		return s.next.ThresholdMetrics(ctx, t)
	})
	if hit {
		metrics.ScoringCacheHits.WithLabelValues(PathThreshold).Inc()
		s.log.Debug("threshold served from cache", logger.String("key", key))
	}
	return m, err
}

// Invalidate drops every cached threshold answer.
func (s *Cached) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DeleteByPattern(ctx, cache.PrefixPattern(prefixThreshold))
}

var _ domsvc.Scorer = (*Cached)(nil)
