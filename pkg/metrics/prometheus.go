package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Flow outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeError      = "error"
	OutcomeSuperseded = "superseded"
	OutcomeInvalid    = "invalid"
)

// Recorder implements domain/repository.Metrics using Prometheus.
type Recorder struct {
	flows       *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastProb    *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New registers the recorder on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the recorder on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		flows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frauddash_flow_completions_total",
				Help: "Dashboard flow completions by outcome",
			},
			[]string{"flow", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frauddash_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastProb: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "frauddash_last_fraud_probability",
				Help: "Fraud probability of the most recent scored transaction",
			},
			[]string{"model"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "frauddash_flow_duration_seconds",
				Help:    "End-to-end duration of dashboard flows in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"flow"},
		),
	}
}

// RecordFlow counts one finished flow run.
func (r *Recorder) RecordFlow(flow, outcome string) {
	r.flows.WithLabelValues(flow, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordProbability records the last fraud probability returned for a model.
func (r *Recorder) RecordProbability(model string, p float64) {
	r.lastProb.WithLabelValues(model).Set(p)
}

// RecordLatency records flow latency in seconds.
func (r *Recorder) RecordLatency(flow string, seconds float64) {
	r.latency.WithLabelValues(flow).Observe(seconds)
}
