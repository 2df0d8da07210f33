// Package indicators computes the technical-indicator catalog over aligned
// OHLCV series. Every indicator is a pure function of the bar history up to
// and including the current instant; the only columns that project past the
// current instant are the Ichimoku leading spans, whose forward shift is a
// charting display offset, not a use of future data.
//
// Unobserved bars (market holidays, weekends) are skipped: indicators are
// computed over the sequence of observed bars, and unobserved instants stay
// markers in every output column. Warm-up is uniform: an indicator with
// window n emits markers for its first n-1 observed bars.
package indicators

import (
	"fmt"

	"FXForge/internal/domain/models"
)

// MACDParams parameterizes one MACD column set.
type MACDParams struct {
	Fast   int `yaml:"fast"`
	Slow   int `yaml:"slow"`
	Signal int `yaml:"signal"`
}

// IchimokuParams parameterizes the Ichimoku component windows.
type IchimokuParams struct {
	Conversion   int `yaml:"conversion" default:"9"`
	Base         int `yaml:"base" default:"26"`
	SpanB        int `yaml:"span_b" default:"52"`
	Displacement int `yaml:"displacement" default:"26"`
}

// Config selects the indicator catalog. Zero-valued slices disable the
// corresponding family.
type Config struct {
	SMAWindows       []int
	EMAWindows       []int
	MACD             []MACDParams
	RSIPeriods       []int
	StochPeriods     []int
	WilliamsPeriods  []int
	CCIPeriods       []int
	ATRPeriods       []int
	ADXPeriod        int
	BollingerWindows []int
	BollingerK       float64
	ROCPeriods       []int
	MFIPeriod        int
	OBV              bool
	VolWindows       []int
	Ichimoku         *IchimokuParams
}

// DefaultConfig mirrors the catalog the collection scripts computed per
// instrument.
func DefaultConfig() Config {
	return Config{
		SMAWindows:       []int{5, 10, 20, 50, 100, 200},
		EMAWindows:       []int{5, 10, 20, 50, 100, 200},
		MACD:             []MACDParams{{5, 10, 9}, {12, 26, 9}, {19, 39, 9}},
		RSIPeriods:       []int{5, 7, 9, 14, 21, 28},
		StochPeriods:     []int{5, 9, 14, 21},
		WilliamsPeriods:  []int{7, 14, 21},
		CCIPeriods:       []int{10, 14, 20},
		ATRPeriods:       []int{7, 14, 21},
		ADXPeriod:        14,
		BollingerWindows: []int{10, 20, 50},
		BollingerK:       2,
		ROCPeriods:       []int{5, 10, 20, 50},
		MFIPeriod:        14,
		OBV:              true,
		VolWindows:       []int{20, 60},
		Ichimoku:         &IchimokuParams{Conversion: 9, Base: 26, SpanB: 52, Displacement: 26},
	}
}

// Engine computes the configured catalog.
type Engine struct {
	cfg Config
}

// NewEngine creates an indicator engine.
func NewEngine(cfg Config) *Engine {
	if cfg.BollingerK == 0 {
		cfg.BollingerK = 2
	}
	return &Engine{cfg: cfg}
}

// bars is an aligned OHLCV series compacted to its observed positions.
// idx[j] is the canonical position of observed bar j.
type bars struct {
	idx        []int
	o, h, l, c []float64
	v          []float64
	total      int
}

func compact(a *models.AlignedOHLCV) *bars {
	b := &bars{total: len(a.Close)}
	for i := range a.Close {
		if models.IsMarker(a.Close[i]) {
			continue
		}
		b.idx = append(b.idx, i)
		b.o = append(b.o, a.Open[i])
		b.h = append(b.h, a.High[i])
		b.l = append(b.l, a.Low[i])
		b.c = append(b.c, a.Close[i])
		b.v = append(b.v, a.Volume[i])
	}
	return b
}

// scatter expands a compact column back onto the canonical index.
func (b *bars) scatter(compactVals []float64) []float64 {
	out := make([]float64, b.total)
	for i := range out {
		out[i] = models.Marker()
	}
	for j, i := range b.idx {
		out[i] = compactVals[j]
	}
	return out
}

// Compute derives all configured indicator columns from one aligned OHLCV
// series. Column names are prefixed with prefix (empty for the primary
// instrument). Short input never fails; it yields all-marker columns.
func (e *Engine) Compute(prefix string, a *models.AlignedOHLCV) []models.FeatureColumn {
	b := compact(a)
	var cols []models.FeatureColumn
	add := func(name string, compactVals []float64) {
		cols = append(cols, models.FeatureColumn{
			Name:   prefix + name,
			Source: models.SourceIndicator,
			Values: b.scatter(compactVals),
		})
	}

	for _, n := range e.cfg.SMAWindows {
		add(fmt.Sprintf("sma_%d", n), sma(b.c, n))
	}
	for _, n := range e.cfg.EMAWindows {
		add(fmt.Sprintf("ema_%d", n), ema(b.c, n))
	}
	for _, p := range e.cfg.MACD {
		line, signal, hist := macd(b.c, p.Fast, p.Slow, p.Signal)
		add(fmt.Sprintf("macd_%d_%d", p.Fast, p.Slow), line)
		add(fmt.Sprintf("macd_signal_%d_%d", p.Fast, p.Slow), signal)
		add(fmt.Sprintf("macd_hist_%d_%d", p.Fast, p.Slow), hist)
	}
	for _, n := range e.cfg.RSIPeriods {
		add(fmt.Sprintf("rsi_%d", n), rsi(b.c, n))
	}
	for _, n := range e.cfg.StochPeriods {
		k, d := stochastic(b.h, b.l, b.c, n, 3)
		add(fmt.Sprintf("stoch_k_%d", n), k)
		add(fmt.Sprintf("stoch_d_%d", n), d)
	}
	for _, n := range e.cfg.WilliamsPeriods {
		add(fmt.Sprintf("williams_r_%d", n), williamsR(b.h, b.l, b.c, n))
	}
	for _, n := range e.cfg.CCIPeriods {
		add(fmt.Sprintf("cci_%d", n), cci(b.h, b.l, b.c, n))
	}
	for _, n := range e.cfg.ATRPeriods {
		atrVals := atr(b.h, b.l, b.c, n)
		add(fmt.Sprintf("atr_%d", n), atrVals)
		add(fmt.Sprintf("atr_pct_%d", n), divide(atrVals, b.c))
	}
	if n := e.cfg.ADXPeriod; n > 0 {
		adxVals, plusDI, minusDI := adx(b.h, b.l, b.c, n)
		add("adx", adxVals)
		add("plus_di", plusDI)
		add("minus_di", minusDI)
		add("di_diff", subtract(plusDI, minusDI))
	}
	for _, n := range e.cfg.BollingerWindows {
		upper, lower, width, pos := bollinger(b.c, n, e.cfg.BollingerK)
		add(fmt.Sprintf("bb_upper_%d", n), upper)
		add(fmt.Sprintf("bb_lower_%d", n), lower)
		add(fmt.Sprintf("bb_width_%d", n), width)
		add(fmt.Sprintf("bb_position_%d", n), pos)
	}
	for _, n := range e.cfg.ROCPeriods {
		add(fmt.Sprintf("roc_%d", n), roc(b.c, n))
		add(fmt.Sprintf("momentum_%d", n), momentum(b.c, n))
	}
	if n := e.cfg.MFIPeriod; n > 0 {
		add(fmt.Sprintf("mfi_%d", n), mfi(b.h, b.l, b.c, b.v, n))
	}
	if e.cfg.OBV {
		obvVals := obv(b.c, b.v)
		add("obv", obvVals)
		add("obv_sma_20", sma(obvVals, 20))
		add("obv_momentum_20", momentum(obvVals, 20))
	}
	for _, n := range e.cfg.VolWindows {
		add(fmt.Sprintf("volatility_%d", n), realizedVol(b.c, n))
	}
	if p := e.cfg.Ichimoku; p != nil {
		conv, base, spanA, spanB := ichimoku(b.h, b.l, *p)
		add("ichimoku_conversion", conv)
		add("ichimoku_base", base)
		add("ichimoku_span_a", spanA)
		add("ichimoku_span_b", spanB)
	}

	return cols
}

func markerSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = models.Marker()
	}
	return out
}

func divide(a, b []float64) []float64 {
	out := markerSlice(len(a))
	for i := range a {
		if models.IsMarker(a[i]) || models.IsMarker(b[i]) || b[i] == 0 {
			continue
		}
		out[i] = a[i] / b[i]
	}
	return out
}

func subtract(a, b []float64) []float64 {
	out := markerSlice(len(a))
	for i := range a {
		if models.IsMarker(a[i]) || models.IsMarker(b[i]) {
			continue
		}
		out[i] = a[i] - b[i]
	}
	return out
}
