package di

import (
	"fmt"

	"FraudDash/internal/domain/repository"
	"FraudDash/internal/handler/api"
	"FraudDash/internal/handler/ws"
	mid "FraudDash/internal/middleware"
	internalrepo "FraudDash/internal/repository"
	"FraudDash/internal/service/ratelimit"
	"FraudDash/internal/services/scoring"
	"FraudDash/internal/usecase"
	"FraudDash/pkg/cache"
	"FraudDash/pkg/config"
	xhttp "FraudDash/pkg/http"
	pkgkafka "FraudDash/pkg/kafka"
	applogger "FraudDash/pkg/logger"
	"FraudDash/pkg/metrics"
	"FraudDash/pkg/server"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the snapshot cache: memory only, or memory in front of Redis.
// An unreachable Redis degrades to memory so the dashboard still starts.
func ProvideCache(cfg *config.Config, l *applogger.Logger) cache.Service {
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemorySize))
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
		cache.WithRedisAuth(cfg.Cache.Redis.Password, cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		l.Warn("redis unavailable, using memory cache", applogger.Error(err))
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemorySize))
	}
	return cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(cfg.Cache.MemorySize),
		cache.WithLayeredL1TTL(cfg.Cache.ThresholdTTL),
	)
}

// ProvideKafkaProducer creates the shared Kafka producer, or nil when Kafka is disabled.
// Aggregated error logs are shipped through the same producer.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopic(cfg.Environment != "production"),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	if cfg.Log.CollectorTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.FlushInterval,
			CountThreshold: cfg.Log.FlushCount,
			Topic:          cfg.Log.CollectorTopic,
			Publisher:      producer,
		})
	}
	return producer, nil
}

// ProvideEventPublisher publishes to Kafka when a producer exists and to the log otherwise.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer, l *applogger.Logger) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NewLogEventPublisher(l)
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideEventPipeline buffers and throttles scoring events in front of the publisher.
func ProvideEventPipeline(cfg *config.Config, pub repository.EventPublisher, m repository.Metrics, l *applogger.Logger) *mid.EventPipeline {
	return mid.NewEventPipeline(pub, m,
		mid.WithMaxRPS(cfg.Kafka.MaxRPS),
		mid.WithBufferSize(cfg.Kafka.Buffer),
		mid.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		mid.WithPipelineLogger(l),
	)
}

// ProvideScorer creates the scoring client behind the snapshot cache.
func ProvideScorer(cfg *config.Config, c cache.Service, l *applogger.Logger) *scoring.Cached {
	client := scoring.NewClient(cfg, l)
	return scoring.NewCached(client, c, cfg.Cache.ThresholdTTL, l)
}

// ProvideDashboard builds the four flows around one scorer.
func ProvideDashboard(
	cfg *config.Config,
	scorer *scoring.Cached,
	pipeline *mid.EventPipeline,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Dashboard {
	opts := []usecase.Option{
		usecase.WithLogger(l),
		usecase.WithMetrics(m),
		usecase.WithEvents(pipeline),
	}
	bounds := usecase.ThresholdBounds{
		Min:      cfg.Threshold.Min,
		Max:      cfg.Threshold.Max,
		Step:     cfg.Threshold.Step,
		Default:  cfg.Threshold.Default,
		Debounce: cfg.Threshold.Debounce,
	}
	return usecase.NewDashboard(
		usecase.NewPrediction(scorer, opts...),
		usecase.NewComparison(scorer, opts...),
		usecase.NewMetricsPoller(scorer, cfg.Poller.Interval, opts...),
		usecase.NewThresholdExplorer(scorer, bounds, opts...),
		scorer,
		l,
	)
}

// ProvideHub creates the WebSocket hub and subscribes it to every flow.
func ProvideHub(cfg *config.Config, dash *usecase.Dashboard, l *applogger.Logger) *ws.Hub {
	hub := ws.NewHub(dash, ws.Config{
		PingPeriod:   cfg.WebSocket.PingPeriod,
		PongTimeout:  cfg.WebSocket.PongTimeout,
		SendBuffer:   cfg.WebSocket.SendBuffer,
		AllowOrigins: cfg.Server.AllowOrigins,
	}, l)
	dash.Subscribe(hub.Broadcast)
	return hub
}

// ProvideLimiter creates the per-IP inbound rate limiter.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
}

// ProvideDashboardHandler creates the REST handler behind the inbound limiter.
func ProvideDashboardHandler(l *applogger.Logger, dash *usecase.Dashboard, limiter *ratelimit.Limiter) *api.DashboardHandler {
	return api.NewDashboardHandler(l, dash, ratelimit.Middleware(limiter))
}

// ProvideHTTPServer creates the echo server with the REST and WebSocket routes.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.DashboardHandler, hub *ws.Hub) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{h, hub},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(true, cfg.Server.AllowOrigins...),
		xhttp.WithMetrics(metricsPath, cfg.Metrics.SlowThreshold),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	dash *usecase.Dashboard,
	pipeline *mid.EventPipeline,
	hub *ws.Hub,
	limiter *ratelimit.Limiter,
	httpServer *xhttp.Server,
	c cache.Service,
	producer *pkgkafka.Producer,
) *server.App {
	return server.New(cfg, l, dash, pipeline, hub, limiter, httpServer, c, producer)
}
