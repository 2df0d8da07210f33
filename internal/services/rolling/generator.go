// Package rolling derives lag and rolling-statistic columns from any
// aligned column. Lags count canonical steps, so a lag can land on an
// unobserved instant and stays a marker there. Rolling statistics follow
// the indicator engine's convention instead: they run over the observed
// values only, with the uniform warm-up rule.
package rolling

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"FXForge/internal/domain/models"
)

// Config selects the derived columns.
type Config struct {
	Lags       []int
	ReturnLags []int
	Windows    []int
}

// DefaultConfig mirrors the lag/rolling families of the collection scripts,
// trimmed to daily horizons.
func DefaultConfig() Config {
	return Config{
		Lags:       []int{1, 2, 3, 5, 10, 20, 30},
		ReturnLags: []int{1, 2, 3, 5, 10, 20, 30},
		Windows:    []int{5, 10, 20, 50, 100, 200},
	}
}

// Generator derives lag and rolling columns.
type Generator struct {
	cfg Config
}

// NewGenerator creates a generator.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// Compute derives all configured columns from one aligned column. The
// source column is identified by base (e.g. "close"), prefixed like the
// indicator engine's columns.
func (g *Generator) Compute(prefix, base string, values []float64) []models.FeatureColumn {
	var cols []models.FeatureColumn
	add := func(name string, src models.ColumnSource, vals []float64) {
		cols = append(cols, models.FeatureColumn{Name: prefix + name, Source: src, Values: vals})
	}

	for _, k := range g.cfg.Lags {
		add(fmt.Sprintf("%s_lag_%d", base, k), models.SourceLag, Lag(values, k))
	}
	for _, k := range g.cfg.ReturnLags {
		add(fmt.Sprintf("%s_return_%d", base, k), models.SourceLag, PctChange(values, k))
	}

	obs, pos := compact(values)
	scatter := func(compactVals []float64) []float64 {
		out := markerSlice(len(values))
		for j, i := range pos {
			out[i] = compactVals[j]
		}
		return out
	}
	for _, n := range g.cfg.Windows {
		mean, sd := rollMeanStd(obs, n)
		add(fmt.Sprintf("%s_mean_%d", base, n), models.SourceRolling, scatter(mean))
		add(fmt.Sprintf("%s_std_%d", base, n), models.SourceRolling, scatter(sd))
		hi, lo := rollExtremes(obs, n)
		add(fmt.Sprintf("%s_max_%d", base, n), models.SourceRolling, scatter(hi))
		add(fmt.Sprintf("%s_min_%d", base, n), models.SourceRolling, scatter(lo))
		add(fmt.Sprintf("%s_range_%d", base, n), models.SourceRolling, scatter(diff(hi, lo)))
		add(fmt.Sprintf("%s_zscore_%d", base, n), models.SourceRolling, scatter(zscore(obs, mean, sd)))
		add(fmt.Sprintf("%s_position_%d", base, n), models.SourceRolling, scatter(position(obs, hi, lo)))
		add(fmt.Sprintf("%s_skew_%d", base, n), models.SourceRolling, scatter(rollSkew(obs, n)))
		add(fmt.Sprintf("%s_kurtosis_%d", base, n), models.SourceRolling, scatter(rollKurtosis(obs, n)))
	}
	return cols
}

// Lag shifts the column k canonical steps back: the value at position i is
// the source value at i-k. The first k positions have no history.
func Lag(values []float64, k int) []float64 {
	out := markerSlice(len(values))
	for i := k; i < len(values); i++ {
		out[i] = values[i-k]
	}
	return out
}

// PctChange is the relative change over k canonical steps. Markers at
// either end of the span propagate.
func PctChange(values []float64, k int) []float64 {
	out := markerSlice(len(values))
	for i := k; i < len(values); i++ {
		prev := values[i-k]
		if models.IsMarker(values[i]) || models.IsMarker(prev) || prev == 0 {
			continue
		}
		out[i] = values[i]/prev - 1
	}
	return out
}

func compact(values []float64) (obs []float64, pos []int) {
	for i, v := range values {
		if models.IsMarker(v) {
			continue
		}
		obs = append(obs, v)
		pos = append(pos, i)
	}
	return obs, pos
}

func rollMeanStd(vals []float64, n int) (mean, sd []float64) {
	mean = markerSlice(len(vals))
	sd = markerSlice(len(vals))
	if n <= 0 || len(vals) < n {
		return mean, sd
	}
	for i := n - 1; i < len(vals); i++ {
		w := vals[i-n+1 : i+1]
		mean[i] = stat.Mean(w, nil)
		if n > 1 {
			sd[i] = stat.StdDev(w, nil)
		}
	}
	return mean, sd
}

func rollExtremes(vals []float64, n int) (hi, lo []float64) {
	hi = markerSlice(len(vals))
	lo = markerSlice(len(vals))
	if n <= 0 || len(vals) < n {
		return hi, lo
	}
	for i := n - 1; i < len(vals); i++ {
		h, l := vals[i], vals[i]
		for j := i - n + 1; j <= i; j++ {
			if vals[j] > h {
				h = vals[j]
			}
			if vals[j] < l {
				l = vals[j]
			}
		}
		hi[i], lo[i] = h, l
	}
	return hi, lo
}

// rollSkew is the rolling skewness of one-step returns over n returns.
func rollSkew(vals []float64, n int) []float64 {
	out := markerSlice(len(vals))
	rets := returns(vals)
	if n <= 2 || len(vals) <= n {
		return out
	}
	for i := n; i < len(vals); i++ {
		out[i] = stat.Skew(rets[i-n+1:i+1], nil)
	}
	return out
}

// rollKurtosis is the rolling excess kurtosis of one-step returns.
func rollKurtosis(vals []float64, n int) []float64 {
	out := markerSlice(len(vals))
	rets := returns(vals)
	if n <= 3 || len(vals) <= n {
		return out
	}
	for i := n; i < len(vals); i++ {
		out[i] = stat.ExKurtosis(rets[i-n+1:i+1], nil)
	}
	return out
}

func returns(vals []float64) []float64 {
	rets := make([]float64, len(vals))
	for i := 1; i < len(vals); i++ {
		if vals[i-1] == 0 {
			continue
		}
		rets[i] = vals[i]/vals[i-1] - 1
	}
	return rets
}

func zscore(vals, mean, sd []float64) []float64 {
	out := markerSlice(len(vals))
	for i := range vals {
		if models.IsMarker(mean[i]) || models.IsMarker(sd[i]) || sd[i] == 0 {
			continue
		}
		out[i] = (vals[i] - mean[i]) / sd[i]
	}
	return out
}

func position(vals, hi, lo []float64) []float64 {
	out := markerSlice(len(vals))
	for i := range vals {
		if models.IsMarker(hi[i]) || models.IsMarker(lo[i]) {
			continue
		}
		if hi[i] == lo[i] {
			out[i] = 0.5
			continue
		}
		out[i] = (vals[i] - lo[i]) / (hi[i] - lo[i])
	}
	return out
}

func diff(a, b []float64) []float64 {
	out := markerSlice(len(a))
	for i := range a {
		if models.IsMarker(a[i]) || models.IsMarker(b[i]) {
			continue
		}
		out[i] = a[i] - b[i]
	}
	return out
}

func markerSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = models.Marker()
	}
	return out
}
