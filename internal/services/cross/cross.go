// Package cross derives cross-instrument columns: rolling correlations of
// close returns between the primary instrument and its peers, and basket
// strength averages over groups of pairs. Returns are one-step percent
// changes on the canonical index, so a marker on either side of a step
// keeps the return a marker.
package cross

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"FXForge/internal/domain/models"
	"FXForge/internal/services/rolling"
)

// StrengthSpec declares a basket strength column: the rolling mean of the
// averaged one-step returns of its legs. Longs enter positively, shorts
// negated, so a USD basket lists usd-base pairs as longs and a JPY basket
// lists jpy-quote pairs as shorts.
type StrengthSpec struct {
	Name   string   `yaml:"name" validate:"required"`
	Longs  []string `yaml:"longs"`
	Shorts []string `yaml:"shorts"`
	Window int      `yaml:"window" default:"20"`
}

// Config selects the cross-instrument columns. Empty Windows disables the
// correlation family.
type Config struct {
	Windows  []int
	Strength []StrengthSpec
}

// DefaultConfig trims the collection scripts' hourly horizons to daily.
func DefaultConfig() Config {
	return Config{Windows: []int{5, 20, 60}}
}

// Generator derives the configured cross columns.
type Generator struct {
	cfg Config
}

func New(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// Compute derives all cross columns from aligned close columns keyed by
// instrument name. Correlation columns pair the primary with every other
// instrument, iterated in sorted order so output order is deterministic.
// A strength leg naming an absent instrument is skipped; a spec with no
// resolvable legs produces no column.
func (g *Generator) Compute(primary string, closes map[string][]float64) []models.FeatureColumn {
	returns := make(map[string][]float64, len(closes))
	for name, vals := range closes {
		returns[name] = rolling.PctChange(vals, 1)
	}

	var cols []models.FeatureColumn
	if base, ok := returns[primary]; ok {
		others := make([]string, 0, len(returns))
		for name := range returns {
			if name != primary {
				others = append(others, name)
			}
		}
		sort.Strings(others)
		for _, other := range others {
			for _, w := range g.cfg.Windows {
				cols = append(cols, models.FeatureColumn{
					Name:   fmt.Sprintf("corr_%s_%s_%d", primary, other, w),
					Source: models.SourceRolling,
					Values: rollCorrelation(base, returns[other], w),
				})
			}
		}
	}

	for _, spec := range g.cfg.Strength {
		basket, ok := basketReturns(spec, returns)
		if !ok {
			continue
		}
		cols = append(cols, models.FeatureColumn{
			Name:   spec.Name,
			Source: models.SourceRolling,
			Values: rollMean(basket, spec.Window),
		})
	}
	return cols
}

// rollCorrelation computes the rolling Pearson correlation over the rows
// where both returns are observed, scattered back to those rows. Uniform
// warm-up: the first value sits at the window-th joint observation. A
// window without variance on either side yields a marker.
func rollCorrelation(x, y []float64, window int) []float64 {
	out := markers(len(x))
	if window < 2 {
		return out
	}
	var xs, ys []float64
	var pos []int
	for i := range x {
		if models.IsMarker(x[i]) || models.IsMarker(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
		pos = append(pos, i)
	}
	for j := window - 1; j < len(xs); j++ {
		c := stat.Correlation(xs[j-window+1:j+1], ys[j-window+1:j+1], nil)
		out[pos[j]] = c
	}
	return out
}

// basketReturns averages the observed leg returns per row, markers where
// no leg is observed.
func basketReturns(spec StrengthSpec, returns map[string][]float64) ([]float64, bool) {
	type leg struct {
		vals []float64
		sign float64
	}
	var legs []leg
	n := 0
	for _, name := range spec.Longs {
		if vals, ok := returns[name]; ok {
			legs = append(legs, leg{vals, 1})
			n = len(vals)
		}
	}
	for _, name := range spec.Shorts {
		if vals, ok := returns[name]; ok {
			legs = append(legs, leg{vals, -1})
			n = len(vals)
		}
	}
	if len(legs) == 0 {
		return nil, false
	}
	out := markers(n)
	for i := 0; i < n; i++ {
		sum, count := 0.0, 0
		for _, l := range legs {
			if models.IsMarker(l.vals[i]) {
				continue
			}
			sum += l.sign * l.vals[i]
			count++
		}
		if count > 0 {
			out[i] = sum / float64(count)
		}
	}
	return out, true
}

func rollMean(values []float64, window int) []float64 {
	out := markers(len(values))
	if window < 1 {
		return out
	}
	var obs []float64
	var pos []int
	for i, v := range values {
		if models.IsMarker(v) {
			continue
		}
		obs = append(obs, v)
		pos = append(pos, i)
	}
	for j := window - 1; j < len(obs); j++ {
		out[pos[j]] = stat.Mean(obs[j-window+1:j+1], nil)
	}
	return out
}

func markers(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = models.Marker()
	}
	return out
}
