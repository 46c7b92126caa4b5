//go:build wireinject
// +build wireinject

package di

import (
	"BtcPulse/pkg/config"
	"BtcPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideRedisCache,

		// Repositories
		ProvideSnapshotStore,
		ProvideHistoryLookup,
		ProvideAlertStore,
		ProvideAlertPublisher,
		ProvideCooldownStore,

		// Rule table and sources
		ProvideRuleTable,
		ProvidePriceSource,
		ProvideSentimentSource,
		ProvideNetworkSource,

		// Use cases
		ProvideResolver,
		ProvideRuleEngine,
		ProvideCollector,
		ProvideWSHub,
		ProvideRedeliverQueue,
		ProvideDispatcher,
		ProvideMonitor,
		ProvideKafkaConsumer,
		ProvideAlertsArchiver,

		// HTTP handlers
		ProvideAlertsHandler,
		ProvideEchoHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
