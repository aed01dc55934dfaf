package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"FraudDash/internal/domain/models"
	domsvc "FraudDash/internal/domain/service"
	"FraudDash/internal/service/metrics"
	"FraudDash/internal/service/ratelimit"
	"FraudDash/pkg/config"
	xhttp "FraudDash/pkg/http"
	"FraudDash/pkg/logger"
)

// Endpoint paths under the scoring base URL.
const (
	PathPredict   = "/predict"
	PathCompare   = "/compare"
	PathMetrics   = "/metrics"
	PathThreshold = "/threshold-metrics"
)

const limiterKey = "scoring"

// Client talks to the scoring API. Every endpoint shares one base URL.
type Client struct {
	baseURL string
	api     *xhttp.Client
	limiter *ratelimit.Limiter
	log     *logger.Logger
	now     func() time.Time
}

// NewClient builds a client from the scoring section of cfg.
func NewClient(cfg *config.Config, l *logger.Logger, opts ...xhttp.ClientOption) *Client {
	if l == nil {
		l = logger.NewNop()
	}
	metrics.Register()

	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(cfg.Scoring.Timeout)}, opts...)
	return &Client{
		baseURL: cfg.TrimmedBaseURL(),
		api:     xhttp.NewClient(opts...),
		limiter: ratelimit.New(cfg.Scoring.MaxRPS, cfg.Scoring.MaxBurst),
		log:     l.With("scoring"),
		now:     time.Now,
	}
}

type featuresReq struct {
	Features []float64 `json:"features"`
}

type predictResp struct {
	FraudProbability *float64 `json:"fraud_probability"`
	Prediction       *string  `json:"prediction"`
	RiskLevel        string   `json:"risk_level"`
	Error            string   `json:"error"`
}

type modelResp struct {
	predictResp
	Threshold    *float64 `json:"threshold"`
	AnomalyScore *float64 `json:"anomaly_score"`
}

type metricsResp struct {
	Metrics     *models.MetricsSnapshot `json:"metrics"`
	Explanation string                  `json:"explanation"`
	Error       string                  `json:"error"`
}

type thresholdResp struct {
	models.ThresholdMetrics
	Error string `json:"error"`
}

// Predict scores one transaction.
func (c *Client) Predict(ctx context.Context, features models.FeatureVector) (models.PredictionResult, error) {
	var result models.PredictionResult
	var pr predictResp
	if err := c.do(ctx, http.MethodPost, PathPredict, nil, featuresReq{Features: features.Slice()}, &pr); err != nil {
		return result, err
	}
	if pr.Error != "" {
		return result, c.fail(applicationError(PathPredict, "Prediction error: "+pr.Error))
	}
	if pr.FraudProbability == nil || pr.Prediction == nil {
		return result, c.fail(decodeError(PathPredict, errors.New("missing fraud_probability or prediction")))
	}

	result.FraudProbability = *pr.FraudProbability
	result.Prediction = *pr.Prediction
	result.RiskLevel = pr.RiskLevel
	return result, nil
}

// Compare scores one transaction with every model.
func (c *Client) Compare(ctx context.Context, features models.FeatureVector) (models.ComparisonResult, error) {
	var result models.ComparisonResult
	var raw map[string]json.RawMessage
	if err := c.do(ctx, http.MethodPost, PathCompare, nil, featuresReq{Features: features.Slice()}, &raw); err != nil {
		return result, err
	}

	if msg, ok := raw["error"]; ok {
		var s string
		if json.Unmarshal(msg, &s) == nil && s != "" {
			return result, c.fail(applicationError(PathCompare, "Comparison error: "+s))
		}
	}

	result.Models = make(map[models.ModelID]models.ModelResult, len(models.ModelOrder))
	for _, id := range models.ModelOrder {
		msg, ok := raw[string(id)]
		if !ok || bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			continue
		}
		result.Models[id] = decodeModel(msg)
	}
	result.ReceivedAt = c.now()
	return result, nil
}

func decodeModel(msg json.RawMessage) models.ModelResult {
	var mr modelResp
	if err := json.Unmarshal(msg, &mr); err != nil {
		return models.ModelResult{Error: fmt.Sprintf("invalid result: %v", err)}
	}
	if mr.Error != "" {
		return models.ModelResult{Error: mr.Error}
	}
	if mr.FraudProbability == nil {
		return models.ModelResult{Error: "no probability returned"}
	}

	out := models.ModelResult{
		PredictionResult: models.PredictionResult{
			FraudProbability: *mr.FraudProbability,
			RiskLevel:        mr.RiskLevel,
		},
		Threshold:    mr.Threshold,
		AnomalyScore: mr.AnomalyScore,
	}
	if mr.Prediction != nil {
		out.Prediction = *mr.Prediction
	}
	return out
}

// Metrics fetches the headline model-quality numbers.
func (c *Client) Metrics(ctx context.Context) (models.MetricsReport, error) {
	var report models.MetricsReport
	var mr metricsResp
	if err := c.do(ctx, http.MethodGet, PathMetrics, nil, nil, &mr); err != nil {
		return report, err
	}
	if mr.Metrics == nil {
		msg := mr.Error
		if msg == "" {
			msg = "Failed to load metrics"
		}
		return report, c.fail(applicationError(PathMetrics, msg))
	}

	report.Metrics = *mr.Metrics
	report.Explanation = mr.Explanation
	report.FetchedAt = c.now()
	return report, nil
}

// ThresholdMetrics fetches classifier behaviour at threshold t.
func (c *Client) ThresholdMetrics(ctx context.Context, t float64) (models.ThresholdMetrics, error) {
	var tr thresholdResp
	query := map[string][]string{"threshold": {strconv.FormatFloat(t, 'f', -1, 64)}}
	if err := c.do(ctx, http.MethodGet, PathThreshold, query, nil, &tr); err != nil {
		return models.ThresholdMetrics{}, err
	}
	if tr.Error != "" {
		return models.ThresholdMetrics{}, c.fail(applicationError(PathThreshold, "Metrics error: "+tr.Error))
	}
	return tr.ThresholdMetrics, nil
}

func (c *Client) do(ctx context.Context, method, path string, query map[string][]string, body, dest interface{}) error {
	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return c.fail(transportError(path, err))
	}

	start := time.Now()
	err := c.api.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      method,
		URL:         c.baseURL + path,
		Headers:     map[string]string{"Content-Type": "application/json", "Accept": "application/json"},
		QueryParams: query,
		Body:        body,
	}, dest)
	metrics.ScoringLatency.WithLabelValues(path).Observe(time.Since(start).Seconds())
	if err == nil {
		c.log.Debug("scoring call ok", logger.String("endpoint", path), logger.Duration("took", time.Since(start)))
		return nil
	}

	var se *xhttp.StatusError
	switch {
	case errors.As(err, &se):
		return c.fail(statusError(path, se.StatusCode, err))
	case ctx.Err() != nil:
		return c.fail(transportError(path, ctx.Err()))
	case isDecodeErr(err):
		return c.fail(decodeError(path, err))
	default:
		return c.fail(transportError(path, err))
	}
}

func isDecodeErr(err error) bool {
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	return errors.As(err, &syn) || errors.As(err, &typ) || errors.Is(err, io.ErrUnexpectedEOF)
}

func (c *Client) fail(e *Error) error {
	metrics.ScoringErrors.WithLabelValues(e.Endpoint, e.Kind).Inc()
	if errors.Is(e.Err, context.Canceled) {
		c.log.Debug("scoring call cancelled", logger.String("endpoint", e.Endpoint))
	} else {
		c.log.Warn("scoring call failed",
			logger.String("endpoint", e.Endpoint),
			logger.String("kind", e.Kind),
			logger.Int("status", e.Status),
			logger.String("message", e.Message))
	}
	return e
}

var _ domsvc.Scorer = (*Client)(nil)
