package di

import (
	"context"
	"fmt"
	"time"

	"FXForge/internal/domain/models"
	"FXForge/internal/domain/repository"
	"FXForge/internal/handler/api"
	internalrepo "FXForge/internal/repository"
	"FXForge/internal/service/fred"
	"FXForge/internal/service/oanda"
	"FXForge/internal/services/assemble"
	"FXForge/internal/services/cross"
	"FXForge/internal/services/indicators"
	"FXForge/internal/services/rolling"
	"FXForge/internal/usecase"
	pkgcache "FXForge/pkg/cache"
	pkgch "FXForge/pkg/clickhouse"
	"FXForge/pkg/config"
	pkgkafka "FXForge/pkg/kafka"
	applogger "FXForge/pkg/logger"
	"FXForge/pkg/metrics"
	"FXForge/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the source payload cache.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	switch cfg.Cache.Type {
	case "redis":
		c, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(cfg.Cache.Redis.Host),
			pkgcache.WithRedisPort(cfg.Cache.Redis.Port),
			pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
			pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	case "layered":
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(cfg.Cache.Redis.Host),
			pkgcache.WithRedisPort(cfg.Cache.Redis.Port),
			pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
			pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("layered cache: %w", err)
		}
		return pkgcache.NewLayeredCache(rc,
			pkgcache.WithLayeredMemorySize(cfg.Cache.MaxItems),
		), nil
	default:
		return pkgcache.NewMemoryCache(
			pkgcache.WithMemoryMaxSize(cfg.Cache.MaxItems),
		), nil
	}
}

// ProvideSources creates the configured source collaborators.
func ProvideSources(cfg *config.Config, cache pkgcache.Service, l *applogger.Logger) []repository.SeriesSource {
	var sources []repository.SeriesSource

	oc := oanda.NewClient(oanda.ClientConfig{
		BaseURL:     cfg.OANDA.BaseURL,
		APIKey:      cfg.OANDA.APIKey,
		Instruments: cfg.OANDA.Instruments,
		Granularity: cfg.OANDA.Granularity,
		Timeout:     cfg.OANDA.Timeout,
		CacheTTL:    cfg.OANDA.CacheTTL,
	}, cache)
	oc.SetLogger(l)
	sources = append(sources, oc)

	if len(cfg.FRED.Series) > 0 {
		specs := make([]fred.SeriesSpec, len(cfg.FRED.Series))
		for i, s := range cfg.FRED.Series {
			specs[i] = fred.SeriesSpec{ID: s.ID, Name: s.Name, Granularity: s.Granularity}
		}
		fc := fred.NewClient(fred.ClientConfig{
			BaseURL:  cfg.FRED.BaseURL,
			APIKey:   cfg.FRED.APIKey,
			Series:   specs,
			Timeout:  cfg.FRED.Timeout,
			CacheTTL: cfg.FRED.CacheTTL,
		}, cache)
		fc.SetLogger(l)
		sources = append(sources, fc)
	}
	return sources
}

// pipelineConfig maps the yaml surface onto the pipeline configuration.
// A family left empty in yaml keeps its default catalog.
func pipelineConfig(cfg *config.Config) (usecase.Config, error) {
	from, to, err := cfg.Window()
	if err != nil {
		return usecase.Config{}, err
	}

	ind := indicators.DefaultConfig()
	if len(cfg.Pipeline.SMAWindows) > 0 {
		ind.SMAWindows = cfg.Pipeline.SMAWindows
	}
	if len(cfg.Pipeline.EMAWindows) > 0 {
		ind.EMAWindows = cfg.Pipeline.EMAWindows
	}
	if len(cfg.Pipeline.RSIPeriods) > 0 {
		ind.RSIPeriods = cfg.Pipeline.RSIPeriods
	}

	roll := rolling.DefaultConfig()
	if len(cfg.Pipeline.Lags) > 0 {
		roll.Lags = cfg.Pipeline.Lags
	}
	if len(cfg.Pipeline.ReturnLags) > 0 {
		roll.ReturnLags = cfg.Pipeline.ReturnLags
	}
	if len(cfg.Pipeline.RollingWindows) > 0 {
		roll.Windows = cfg.Pipeline.RollingWindows
	}

	cr := cross.DefaultConfig()
	if len(cfg.Pipeline.CorrWindows) > 0 {
		cr.Windows = cfg.Pipeline.CorrWindows
	}
	for _, s := range cfg.Pipeline.Strength {
		cr.Strength = append(cr.Strength, cross.StrengthSpec{
			Name:   s.Name,
			Longs:  s.Longs,
			Shorts: s.Shorts,
			Window: s.Window,
		})
	}

	spreads := make([]usecase.SpreadSpec, len(cfg.Pipeline.Spreads))
	for i, s := range cfg.Pipeline.Spreads {
		spreads[i] = usecase.SpreadSpec{Name: s.Name, Minuend: s.Minuend, Subtrahend: s.Subtrahend}
	}

	return usecase.Config{
		Instrument: cfg.Pipeline.Instrument,
		From:       from,
		To:         to,
		Workers:    cfg.Pipeline.Workers,
		Indicators: ind,
		Rolling:    roll,
		Cross:      cr,
		Assembler:  assemble.Config{MinCompleteness: cfg.Pipeline.MinCompleteness},
		Spreads:    spreads,
	}, nil
}

// ProvidePipeline creates the pipeline use case.
func ProvidePipeline(cfg *config.Config, m repository.Metrics, l *applogger.Logger) (*usecase.Pipeline, error) {
	pcfg, err := pipelineConfig(cfg)
	if err != nil {
		return nil, err
	}
	p := usecase.NewPipeline(pcfg, m)
	p.SetLogger(l)
	return p, nil
}

// ProvideCollector creates the live tick collector when a stream URL is
// configured; a nil collector disables the collection pass.
func ProvideCollector(cfg *config.Config, m repository.Metrics, l *applogger.Logger) *usecase.Collector {
	if cfg.OANDA.StreamURL == "" {
		return nil
	}
	instruments := cfg.OANDA.CollectInstruments
	if len(instruments) == 0 {
		instruments = cfg.OANDA.Instruments
	}
	stream := oanda.NewStream(oanda.StreamConfig{
		URL:         cfg.OANDA.StreamURL,
		APIKey:      cfg.OANDA.APIKey,
		Instruments: instruments,
	})
	stream.SetLogger(l)
	return usecase.NewCollector(stream, models.Granularity(cfg.OANDA.CollectGranularity), m, l)
}

// ProvideSink creates the configured feature sink.
func ProvideSink(cfg *config.Config, l *applogger.Logger) (repository.FeatureSink, error) {
	switch cfg.Sink.Type {
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		sink, err := internalrepo.NewCHSink(ctx, client)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse sink: %w", err)
		}
		sink.SetLogger(l)
		return sink, nil

	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
			pkgkafka.WithBatchBytes(cfg.Kafka.BatchBytes),
			pkgkafka.WithBatchTimeout(cfg.Kafka.Linger),
			pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
			pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		sink := internalrepo.NewKafkaSink(producer, cfg.Sink.RowTopic, cfg.Sink.ManifestTopic)
		sink.SetLogger(l)
		return sink, nil

	default:
		sink := internalrepo.NewCSVStore(cfg.Sink.CSVDir)
		sink.SetLogger(l)
		return sink, nil
	}
}

// ProvideFeaturesHandler creates the HTTP handler for run results.
func ProvideFeaturesHandler(l *applogger.Logger) *api.FeaturesHandler {
	return api.NewFeaturesHandler(l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	sources []repository.SeriesSource,
	pipeline *usecase.Pipeline,
	collector *usecase.Collector,
	sink repository.FeatureSink,
	handler *api.FeaturesHandler,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, sources, pipeline, collector, sink, handler, l)
}
