//go:build wireinject
// +build wireinject

package di

import (
	"CoinPulse/pkg/config"
	"CoinPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Sinks come first so the logger can attach its collector.
		ProvideKafkaProducer,
		ProvideScorecardPublisher,
		ProvideLogger,

		// Metrics
		ProvideRegisterer,
		ProvideMetrics,

		// Rate limiting
		ProvideCacheService,
		ProvideProviderLimiter,
		ProvideClientLimiter,

		// Providers
		ProvideMarketFactory,
		ProvideSearchProvider,
		ProvideSynthesizer,
		ProvideNotifier,

		// Use cases
		ProvidePipeline,

		// HTTP
		ProvideResearchHandler,
		ProvideHTTPServer,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
