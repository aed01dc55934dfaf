package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ScoringLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "frauddash",
			Subsystem: "scoring",
			Name:      "latency_seconds",
			Help:      "Latency of scoring API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ScoringErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frauddash",
			Subsystem: "scoring",
			Name:      "errors_total",
			Help:      "Errors by scoring API endpoint and kind",
		},
		[]string{"endpoint", "kind"},
	)

	ScoringCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frauddash",
			Subsystem: "scoring",
			Name:      "cache_hits_total",
			Help:      "Scoring responses served from cache",
		},
		[]string{"endpoint"},
	)
)

// Register adds the scoring collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(ScoringLatency, ScoringErrors, ScoringCacheHits)
	})
}
