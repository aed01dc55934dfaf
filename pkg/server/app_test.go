package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FraudDash/internal/handler/api"
	"FraudDash/internal/handler/ws"
	mid "FraudDash/internal/middleware"
	"FraudDash/internal/repository"
	"FraudDash/internal/service/ratelimit"
	"FraudDash/internal/services/scoring"
	"FraudDash/internal/usecase"
	"FraudDash/pkg/cache"
	"FraudDash/pkg/config"
	xhttp "FraudDash/pkg/http"
	applogger "FraudDash/pkg/logger"
	"FraudDash/pkg/metrics"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestAppRunsUntilCancelled(t *testing.T) {
	var metricsCalls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/metrics":
			metricsCalls.Add(1)
			_, _ = w.Write([]byte(`{"metrics":{"pr_auc":0.8,"f1_score":0.7,"recall_fraud":0.9,"precision_fraud":0.6,"threshold":0.41}}`))
		case "/threshold-metrics":
			_, _ = w.Write([]byte(`{"threshold":0.41,"recall":0.9,"precision":0.6,"f1_score":0.7,"false_positives":5,"false_positive_rate":0.01,"true_positives":90,"total_predicted_fraud":95}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Scoring.BaseURL = upstream.URL
	cfg.Server.Port = freePort(t)
	cfg.Threshold.Debounce = time.Millisecond

	l := applogger.NewNop()
	c := cache.NewMemoryCache()
	rec := metrics.NewWithRegistry(prometheus.NewRegistry())
	scorer := scoring.NewCached(scoring.NewClient(cfg, l), c, time.Minute, l)
	pipeline := mid.NewEventPipeline(repository.NewLogEventPublisher(l), rec)

	opts := []usecase.Option{usecase.WithMetrics(rec), usecase.WithEvents(pipeline)}
	dash := usecase.NewDashboard(
		usecase.NewPrediction(scorer, opts...),
		usecase.NewComparison(scorer, opts...),
		usecase.NewMetricsPoller(scorer, time.Hour, opts...),
		usecase.NewThresholdExplorer(scorer, usecase.ThresholdBounds{Min: 0.3, Max: 0.7, Step: 0.01, Default: 0.41, Debounce: time.Millisecond}, opts...),
		scorer, l,
	)
	hub := ws.NewHub(dash, ws.Config{}, l)
	dash.Subscribe(hub.Broadcast)
	limiter := ratelimit.New(0, 0)
	srv := xhttp.NewServer([]xhttp.Handler{api.NewDashboardHandler(l, dash), hub},
		xhttp.WithHost("127.0.0.1"),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithMetrics("", 0),
	)

	app := New(cfg, l, dash, pipeline, hub, limiter, srv, c, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunContext(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool { return dash.View().Threshold.State == "success" }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return dash.View().Metrics.State == "success" }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), metricsCalls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
