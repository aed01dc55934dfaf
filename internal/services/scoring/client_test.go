package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FraudDash/internal/domain/models"
	"FraudDash/pkg/cache"
	"FraudDash/pkg/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Scoring.BaseURL = srv.URL + "/"
	cfg.Scoring.Timeout = 2 * time.Second
	cfg.Scoring.MaxRPS = 0
	return NewClient(cfg, nil), srv
}

func vector() models.FeatureVector {
	var v models.FeatureVector
	for i := range v {
		v[i] = float64(i)
	}
	return v
}

func TestPredict(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)

		var body struct {
			Features []float64 `json:"features"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Features, 20)
		assert.Equal(t, 19.0, body.Features[19])

		_, _ = w.Write([]byte(`{"fraud_probability":0.75,"prediction":"Fraud","risk_level":"High Risk"}`))
	})

	res, err := c.Predict(context.Background(), vector())
	require.NoError(t, err)
	assert.Equal(t, 0.75, res.FraudProbability)
	assert.Equal(t, "Fraud", res.Prediction)
	assert.Equal(t, "High Risk", res.RiskLevel)
}

func TestPredictApplicationError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"X has 3 features","fraud_probability":null,"prediction":null}`))
	})

	_, err := c.Predict(context.Background(), vector())
	require.Error(t, err)
	assert.EqualError(t, err, "Prediction error: X has 3 features")
	assert.ErrorIs(t, err, ErrUpstream)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindApplication, se.Kind)
}

func TestNon2xxIsAPIError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Predict(context.Background(), vector())
	assert.EqualError(t, err, "API error: 503")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestTransportError(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.Metrics(context.Background())
	require.Error(t, err)
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindTransport, se.Kind)
}

func TestCancelledContext(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Predict(ctx, vector())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompare(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/compare", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"random_forest": {"fraud_probability": 0.8, "prediction": "Fraud", "risk_level": "High Risk", "threshold": 0.41},
			"baseline": {"error": "model file missing"},
			"smote": null,
			"isolation_forest": {"fraud_probability": 0.6, "prediction": "Fraud", "risk_level": "Medium Risk", "anomaly_score": -0.12}
		}`))
	})

	res, err := c.Compare(context.Background(), vector())
	require.NoError(t, err)
	assert.True(t, res.Enabled(models.ModelRandomForest))
	assert.False(t, res.Enabled(models.ModelBaseline))
	assert.Equal(t, "model file missing", res.Models[models.ModelBaseline].Error)
	assert.False(t, res.Enabled(models.ModelSMOTE))
	require.NotNil(t, res.Models[models.ModelIsolationForest].AnomalyScore)
	assert.Equal(t, -0.12, *res.Models[models.ModelIsolationForest].AnomalyScore)
	assert.Equal(t, 0.41, *res.Models[models.ModelRandomForest].Threshold)
	assert.False(t, res.ReceivedAt.IsZero())
}

func TestCompareTopLevelError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"models not loaded"}`))
	})

	_, err := c.Compare(context.Background(), vector())
	assert.EqualError(t, err, "Comparison error: models not loaded")
}

func TestMetrics(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"metrics":{"pr_auc":0.87,"f1_score":0.82,"recall_fraud":0.84,"precision_fraud":0.8,"threshold":0.41},"explanation":"PR-AUC is robust"}`))
	})

	r, err := c.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.87, r.Metrics.PRAUC)
	assert.Equal(t, "PR-AUC is robust", r.Explanation)
}

func TestMetricsNull(t *testing.T) {
	for body, want := range map[string]string{
		`{"metrics":null,"explanation":""}`:                     "Failed to load metrics",
		`{"metrics":null,"explanation":"","error":"no model"}`: "no model",
	} {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		_, err := c.Metrics(context.Background())
		assert.EqualError(t, err, want)
	}
}

func TestThresholdMetricsUsesBaseURL(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/threshold-metrics", r.URL.Path)
		assert.Equal(t, "0.45", r.URL.Query().Get("threshold"))
		_, _ = w.Write([]byte(`{"threshold":0.45,"recall":0.8,"precision":0.7,"f1_score":0.75,"false_positives":12,"false_positive_rate":0.001,"true_positives":80,"total_predicted_fraud":92,"total_fraud_cases":100}`))
	})

	m, err := c.ThresholdMetrics(context.Background(), 0.45)
	require.NoError(t, err)
	assert.Equal(t, 12, m.FalsePositives)
	assert.Equal(t, 92, m.TotalPredictedFraud)
}

func TestThresholdMetricsError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"threshold out of range"}`))
	})

	_, err := c.ThresholdMetrics(context.Background(), 0.45)
	assert.EqualError(t, err, "Metrics error: threshold out of range")
}

func TestCachedThresholdAvoidsSecondCall(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"threshold":0.5,"recall":0.7}`))
	})
	mc := cache.NewMemoryCache()
	defer mc.Close()
	cached := NewCached(c, mc, time.Minute, nil)

	for i := 0; i < 3; i++ {
		m, err := cached.ThresholdMetrics(context.Background(), 0.5)
		require.NoError(t, err)
		assert.Equal(t, 0.7, m.Recall)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	require.NoError(t, cached.Invalidate(context.Background()))
	_, err := cached.ThresholdMetrics(context.Background(), 0.5)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCachedMetricsAlwaysFetches(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"metrics":{"pr_auc":0.9},"explanation":"x"}`))
	})
	mc := cache.NewMemoryCache()
	defer mc.Close()
	cached := NewCached(c, mc, time.Minute, nil)

	for i := 0; i < 2; i++ {
		r, err := cached.Metrics(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0.9, r.Metrics.PRAUC)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Zero(t, mc.Len(), "metrics reports are not kept in the cache")
}
