//go:build wireinject
// +build wireinject

package di

import (
	"AquaWatch/pkg/config"
	"AquaWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Models and inference
		ProvideModelCache,
		ProvideEnsemble,
		ProvideReasoner,
		ProvideEngine,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCacheService,
		ProvideEventPublisher,
		ProvideKafkaConsumer,

		// Repositories
		ProvideHistoryStore,
		ProvideDecisionCache,

		// Fan-out and ingestion
		ProvideHub,
		ProvideSampleProcessor,
		ProvideIngestPipeline,
		ProvideSimulator,
		ProvideSamplesHandler,

		// API
		ProvidePrioritizeUseCase,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
