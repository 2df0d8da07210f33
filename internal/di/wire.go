//go:build wireinject
// +build wireinject

package di

import (
	"FXForge/pkg/config"
	"FXForge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,

		ProvideSources,
		ProvidePipeline,
		ProvideCollector,
		ProvideSink,

		ProvideFeaturesHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
