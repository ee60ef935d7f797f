//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"listenerd/internal"
	"listenerd/internal/archive"
	"listenerd/internal/collector"
	"listenerd/internal/controllers"
	"listenerd/internal/events"
	"listenerd/internal/providers"
	"listenerd/internal/services"
	"listenerd/internal/statistic"
	"listenerd/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		services.NewListenerService,
		collector.NewHTTPFetcher,
		collector.NewAggregator,
		archive.NewArchive,
		archive.NewSampleMirror,
		events.NewSchedule,

		statistic.NewZstdCompressor,
		statistic.NewFileManager,
		statistic.NewScheduler,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
