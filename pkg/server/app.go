package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FraudDash/internal/handler/ws"
	mid "FraudDash/internal/middleware"
	"FraudDash/internal/service/ratelimit"
	"FraudDash/internal/usecase"
	"FraudDash/pkg/cache"
	"FraudDash/pkg/config"
	xhttp "FraudDash/pkg/http"
	pkgkafka "FraudDash/pkg/kafka"
	applogger "FraudDash/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	dash       *usecase.Dashboard
	pipeline   *mid.EventPipeline
	hub        *ws.Hub
	limiter    *ratelimit.Limiter
	httpServer *xhttp.Server
	cache      cache.Service
	producer   *pkgkafka.Producer
}

// New creates a new App instance with all dependencies. producer may be nil.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	dash *usecase.Dashboard,
	pipeline *mid.EventPipeline,
	hub *ws.Hub,
	limiter *ratelimit.Limiter,
	httpServer *xhttp.Server,
	c cache.Service,
	producer *pkgkafka.Producer,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		dash:       dash,
		pipeline:   pipeline,
		hub:        hub,
		limiter:    limiter,
		httpServer: httpServer,
		cache:      c,
		producer:   producer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.pipeline.Start(runCtx)
	a.dash.Start(runCtx)
	go a.limiter.Run(runCtx, time.Minute)
	a.log.Info("dashboard started",
		applogger.String("scoring", a.cfg.Scoring.BaseURL),
		applogger.Duration("poll_interval", a.cfg.Poller.Interval),
		applogger.Bool("kafka", a.producer != nil))

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		cancel()
		return errors.Join(err, a.shutdown())
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	err := a.shutdown()
	cancel()
	return err
}

// shutdown stops intake first, then the flows, then drains events and closes clients.
func (a *App) shutdown() error {
	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()

	a.hub.Close()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	a.dash.Stop()
	a.pipeline.Stop()

	// The collector publishes through the producer, so it goes first.
	a.log.RemoveCollector()
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
