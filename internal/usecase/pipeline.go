package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"FXForge/internal/domain/models"
	drepo "FXForge/internal/domain/repository"
	"FXForge/internal/services/align"
	"FXForge/internal/services/assemble"
	"FXForge/internal/services/calendar"
	"FXForge/internal/services/cross"
	"FXForge/internal/services/indicators"
	"FXForge/internal/services/rolling"
	applogger "FXForge/pkg/logger"
	"FXForge/pkg/queue"
)

// SeriesReader is the read side of the series store the pipeline consumes.
type SeriesReader interface {
	Names() []string
	Get(name string) (*models.Series, error)
}

// SpreadSpec declares a derived column as the difference of two aligned
// scalar series. Markers in either operand propagate.
type SpreadSpec struct {
	Name       string `yaml:"name" validate:"required"`
	Minuend    string `yaml:"minuend" validate:"required"`
	Subtrahend string `yaml:"subtrahend" validate:"required"`
}

// Config drives one pipeline run.
type Config struct {
	// Instrument names the primary OHLCV series. Its raw and derived
	// columns are unprefixed; every other series is prefixed with its name.
	Instrument string
	From, To   time.Time
	Workers    int
	Indicators indicators.Config
	Rolling    rolling.Config
	Cross      cross.Config
	Assembler  assemble.Config
	Spreads    []SpreadSpec
}

// Pipeline runs the batch derivation: align every stored series onto the
// canonical daily index, derive the full feature catalog, assemble and
// validate. A run either returns a complete table or an error.
type Pipeline struct {
	cfg       Config
	engine    *indicators.Engine
	generator *rolling.Generator
	crosser   *cross.Generator
	assembler *assemble.Assembler
	metrics   drepo.Metrics
	l         *applogger.Logger
}

// NewPipeline creates a pipeline.
func NewPipeline(cfg Config, metrics drepo.Metrics) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Pipeline{
		cfg:       cfg,
		engine:    indicators.NewEngine(cfg.Indicators),
		generator: rolling.NewGenerator(cfg.Rolling),
		crosser:   cross.New(cfg.Cross),
		assembler: assemble.New(cfg.Assembler),
		metrics:   metrics,
	}
}

// SetLogger injects a structured logger.
func (p *Pipeline) SetLogger(l *applogger.Logger) { p.l = l }

type alignedSet struct {
	mu      sync.Mutex
	scalars map[string]*models.AlignedSeries
	ohlcv   map[string]*models.AlignedOHLCV
}

// Run executes one batch pass over the store.
func (p *Pipeline) Run(ctx context.Context, store SeriesReader) (*models.FeatureTable, *models.Manifest, error) {
	start := time.Now()
	index := align.BuildDailyIndex(p.cfg.From, p.cfg.To)
	if index.Len() == 0 {
		return nil, nil, fmt.Errorf("empty canonical window %s..%s",
			p.cfg.From.Format("2006-01-02"), p.cfg.To.Format("2006-01-02"))
	}
	aligner := align.New(index)
	names := store.Names()

	set := &alignedSet{
		scalars: make(map[string]*models.AlignedSeries, len(names)),
		ohlcv:   make(map[string]*models.AlignedOHLCV, len(names)),
	}
	pool := queue.NewPool(ctx, queue.PoolConfig{Workers: p.cfg.Workers, QueueSize: len(names)})
	for _, name := range names {
		name := name
		pool.Submit(func(ctx context.Context) error {
			return p.alignOne(store, aligner, name, set)
		})
	}
	if errs := pool.Wait(); len(errs) > 0 {
		p.recordError("align")
		return nil, nil, fmt.Errorf("align series: %w", errs[0])
	}

	if _, ok := set.ohlcv[p.cfg.Instrument]; !ok {
		p.recordError("config")
		return nil, nil, fmt.Errorf("primary instrument %q is not a stored OHLCV series", p.cfg.Instrument)
	}

	// Derivation fans out per series; assembly order is fixed by the
	// sorted store names, so worker scheduling never changes the output.
	derived := make(map[string][]models.FeatureColumn, len(names))
	var derivedMu sync.Mutex
	pool = queue.NewPool(ctx, queue.PoolConfig{Workers: p.cfg.Workers, QueueSize: len(names)})
	for _, name := range names {
		name := name
		pool.Submit(func(ctx context.Context) error {
			cols := p.deriveOne(name, set)
			derivedMu.Lock()
			derived[name] = cols
			derivedMu.Unlock()
			return nil
		})
	}
	if errs := pool.Wait(); len(errs) > 0 {
		p.recordError("derive")
		return nil, nil, fmt.Errorf("derive features: %w", errs[0])
	}

	cols := make([]models.FeatureColumn, 0, 512)
	for _, name := range orderedNames(names, p.cfg.Instrument) {
		cols = append(cols, derived[name]...)
	}
	spreadCols, err := p.spreadColumns(index, set)
	if err != nil {
		p.recordError("spread")
		return nil, nil, err
	}
	cols = append(cols, spreadCols...)
	cols = append(cols, p.crossColumns(set)...)
	cols = append(cols, calendar.Compute(index)...)

	table, manifest, err := p.assembler.Assemble(p.cfg.Instrument, index, cols)
	if err != nil {
		p.recordError("assemble")
		return nil, nil, fmt.Errorf("assemble table: %w", err)
	}
	if p.metrics != nil {
		p.metrics.RecordColumnsBuilt(len(cols))
		p.metrics.RecordRunDuration(time.Since(start).Seconds())
	}
	if p.l != nil {
		p.l.Info("pipeline run ok",
			applogger.String("instrument", p.cfg.Instrument),
			applogger.Int("series", len(names)),
			applogger.Int("rows", table.Rows()),
			applogger.Int("columns", len(table.Columns)),
			applogger.Int("flagged", len(manifest.Flagged)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return table, manifest, nil
}

func (p *Pipeline) alignOne(store SeriesReader, aligner *align.Aligner, name string, set *alignedSet) error {
	s, err := store.Get(name)
	if err != nil {
		return err
	}
	if s.IsOHLCV() {
		a, err := aligner.AlignOHLCV(s)
		if err != nil {
			return err
		}
		set.mu.Lock()
		set.ohlcv[name] = a
		set.mu.Unlock()
	} else {
		a, err := aligner.AlignScalar(s)
		if err != nil {
			return err
		}
		set.mu.Lock()
		set.scalars[name] = a
		set.mu.Unlock()
	}
	if p.metrics != nil {
		p.metrics.RecordSeriesAligned(name)
	}
	return nil
}

// deriveOne produces the raw and derived columns of one aligned series.
// Alignment is complete before derivation starts, so the set is read-only
// here.
func (p *Pipeline) deriveOne(name string, set *alignedSet) []models.FeatureColumn {
	prefix := name + "_"
	primary := name == p.cfg.Instrument
	if primary {
		prefix = ""
	}

	if a, ok := set.ohlcv[name]; ok {
		cols := rawOHLCVColumns(prefix, a)
		cols = append(cols, p.engine.Compute(prefix, a)...)
		if primary {
			cols = append(cols, p.generator.Compute(prefix, "close", a.Close)...)
		}
		return cols
	}
	a := set.scalars[name]
	return []models.FeatureColumn{{Name: name, Source: models.SourceRaw, Values: a.Values}}
}

func (p *Pipeline) spreadColumns(index models.Index, set *alignedSet) ([]models.FeatureColumn, error) {
	cols := make([]models.FeatureColumn, 0, len(p.cfg.Spreads))
	for _, spec := range p.cfg.Spreads {
		a, ok := set.scalars[spec.Minuend]
		if !ok {
			return nil, &models.NotFoundError{Name: spec.Minuend}
		}
		b, ok := set.scalars[spec.Subtrahend]
		if !ok {
			return nil, &models.NotFoundError{Name: spec.Subtrahend}
		}
		vals := make([]float64, index.Len())
		for i := range vals {
			if models.IsMarker(a.Values[i]) || models.IsMarker(b.Values[i]) {
				vals[i] = models.Marker()
				continue
			}
			vals[i] = a.Values[i] - b.Values[i]
		}
		cols = append(cols, models.FeatureColumn{Name: spec.Name, Source: models.SourceRaw, Values: vals})
	}
	return cols, nil
}

// crossColumns derives the cross-instrument block from every aligned
// OHLCV close.
func (p *Pipeline) crossColumns(set *alignedSet) []models.FeatureColumn {
	closes := make(map[string][]float64, len(set.ohlcv))
	for name, a := range set.ohlcv {
		closes[name] = a.Close
	}
	return p.crosser.Compute(p.cfg.Instrument, closes)
}

func rawOHLCVColumns(prefix string, a *models.AlignedOHLCV) []models.FeatureColumn {
	col := func(name string, vals []float64) models.FeatureColumn {
		return models.FeatureColumn{Name: prefix + name, Source: models.SourceRaw, Values: vals}
	}
	return []models.FeatureColumn{
		col("open", a.Open),
		col("high", a.High),
		col("low", a.Low),
		col("close", a.Close),
		col("volume", a.Volume),
	}
}

// orderedNames puts the primary instrument first, the rest sorted.
func orderedNames(names []string, primary string) []string {
	out := make([]string, 0, len(names))
	out = append(out, primary)
	rest := make([]string, 0, len(names)-1)
	for _, n := range names {
		if n != primary {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func (p *Pipeline) recordError(kind string) {
	if p.metrics != nil {
		p.metrics.RecordError(kind)
	}
}
