//go:build wireinject
// +build wireinject

package di

import (
	"FraudDash/pkg/config"
	"FraudDash/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,

		// Event stream
		ProvideKafkaProducer,
		ProvideEventPublisher,
		ProvideEventPipeline,

		// Scoring and flows
		ProvideScorer,
		ProvideDashboard,

		// Transport
		ProvideHub,
		ProvideLimiter,
		ProvideDashboardHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
