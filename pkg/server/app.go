package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"FXForge/internal/domain/repository"
	"FXForge/internal/handler/api"
	internalrepo "FXForge/internal/repository"
	"FXForge/internal/usecase"
	"FXForge/pkg/config"
	xhttp "FXForge/pkg/http"
	applogger "FXForge/pkg/logger"
)

// App encapsulates the application lifecycle: fetch all sources, run the
// pipeline once, write the sink, then serve the result API until a signal.
type App struct {
	cfg       *config.Config
	sources   []repository.SeriesSource
	pipeline  *usecase.Pipeline
	collector *usecase.Collector
	sink      repository.FeatureSink
	handler   *api.FeaturesHandler
	logger    *applogger.Logger

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. A nil collector
// disables the live-collection pass.
func New(
	cfg *config.Config,
	sources []repository.SeriesSource,
	pipeline *usecase.Pipeline,
	collector *usecase.Collector,
	sink repository.FeatureSink,
	handler *api.FeaturesHandler,
	logger *applogger.Logger,
) *App {
	return &App{
		cfg:       cfg,
		sources:   sources,
		pipeline:  pipeline,
		collector: collector,
		sink:      sink,
		handler:   handler,
		logger:    logger,
	}
}

// Run executes one pipeline pass and blocks serving the API until
// interrupted. With the server disabled it returns after the sink write.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.runOnce(ctx); err != nil {
		return err
	}
	if !a.cfg.Server.Enabled {
		return a.close()
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("serving run results", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) runOnce(ctx context.Context) error {
	from, to, err := a.cfg.Window()
	if err != nil {
		return err
	}

	store := internalrepo.NewSeriesStore()
	for _, src := range a.sources {
		series, err := src.Fetch(ctx, from, to)
		if err != nil {
			return fmt.Errorf("source %s: %w", src.Name(), err)
		}
		for _, s := range series {
			if err := store.Put(s); err != nil {
				return fmt.Errorf("source %s: %w", src.Name(), err)
			}
		}
		a.logger.Info("source fetched",
			applogger.String("source", src.Name()),
			applogger.Int("series", len(series)),
		)
	}

	if a.collector != nil {
		a.logger.Info("collecting live ticks",
			applogger.Duration("window", a.cfg.OANDA.CollectWindow))
		if err := a.collector.Collect(ctx, a.cfg.OANDA.CollectWindow, store); err != nil {
			return fmt.Errorf("collect: %w", err)
		}
	}

	table, manifest, err := a.pipeline.Run(ctx, store)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := a.sink.Write(ctx, table, manifest); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	if a.handler != nil {
		a.handler.SetResult(table, manifest)
	}
	return nil
}

func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.logger.Error("http shutdown error", applogger.Error(err))
		}
	}
	return a.close()
}

func (a *App) close() error {
	if err := a.sink.Close(); err != nil {
		a.logger.Warn("sink close error", applogger.Error(err))
		return err
	}
	a.logger.Info("shutdown complete")
	return nil
}
