package rolling

import (
	"math"
	"testing"

	"FXForge/internal/domain/models"
)

func ramp(n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = 100 + float64(i)
	}
	return vals
}

func TestLagShiftsByCanonicalSteps(t *testing.T) {
	vals := ramp(10)
	out := Lag(vals, 3)
	for i := 0; i < 3; i++ {
		if !models.IsMarker(out[i]) {
			t.Fatalf("lag position %d: want marker, got %v", i, out[i])
		}
	}
	for i := 3; i < 10; i++ {
		if out[i] != vals[i-3] {
			t.Fatalf("lag position %d: want %v, got %v", i, vals[i-3], out[i])
		}
	}
}

func TestLagLandsOnUnobservedInstant(t *testing.T) {
	vals := ramp(10)
	vals[4] = models.Marker()
	out := Lag(vals, 2)
	if !models.IsMarker(out[6]) {
		t.Fatalf("lag over an unobserved instant must stay a marker, got %v", out[6])
	}
	if out[7] != vals[5] {
		t.Fatalf("lag position 7: want %v, got %v", vals[5], out[7])
	}
}

func TestPctChange(t *testing.T) {
	vals := []float64{100, 110, 99, 99}
	out := PctChange(vals, 1)
	if !models.IsMarker(out[0]) {
		t.Fatalf("first position: want marker")
	}
	if math.Abs(out[1]-0.10) > 1e-12 {
		t.Fatalf("return at 1: want 0.10, got %v", out[1])
	}
	if math.Abs(out[2]-(-0.10)) > 1e-12 {
		t.Fatalf("return at 2: want -0.10, got %v", out[2])
	}
	if out[3] != 0 {
		t.Fatalf("flat return: want 0, got %v", out[3])
	}
}

func TestRollingMeanWarmup(t *testing.T) {
	g := NewGenerator(Config{Windows: []int{5}})
	cols := g.Compute("eurusd_", "close", ramp(12))
	mean := findColumn(t, cols, "eurusd_close_mean_5")
	for i := 0; i < 4; i++ {
		if !models.IsMarker(mean.Values[i]) {
			t.Fatalf("row %d inside warm-up: want marker, got %v", i, mean.Values[i])
		}
	}
	// mean of 100..104 at row 4
	if math.Abs(mean.Values[4]-102) > 1e-12 {
		t.Fatalf("first mean: want 102, got %v", mean.Values[4])
	}
	if math.Abs(mean.Values[11]-109) > 1e-12 {
		t.Fatalf("last mean: want 109, got %v", mean.Values[11])
	}
}

func TestRollingSkipsUnobserved(t *testing.T) {
	vals := ramp(12)
	vals[3] = models.Marker()
	vals[7] = models.Marker()
	g := NewGenerator(Config{Windows: []int{5}})
	cols := g.Compute("", "close", vals)
	mean := findColumn(t, cols, "close_mean_5")
	if !models.IsMarker(mean.Values[3]) || !models.IsMarker(mean.Values[7]) {
		t.Fatalf("unobserved rows must stay markers")
	}
	// The fifth observed value sits at canonical row 5; its window is
	// rows {0,1,2,4,5}.
	want := (100.0 + 101 + 102 + 104 + 105) / 5
	if math.Abs(mean.Values[5]-want) > 1e-12 {
		t.Fatalf("mean over observed window: want %v, got %v", want, mean.Values[5])
	}
}

func TestRollingExtremesAndPosition(t *testing.T) {
	vals := []float64{3, 1, 4, 1, 5, 9, 0, 6}
	g := NewGenerator(Config{Windows: []int{4}})
	cols := g.Compute("", "close", vals)
	hi := findColumn(t, cols, "close_max_4")
	lo := findColumn(t, cols, "close_min_4")
	pos := findColumn(t, cols, "close_position_4")
	if hi.Values[4] != 5 || lo.Values[4] != 1 {
		t.Fatalf("extremes at 4: want 5/1, got %v/%v", hi.Values[4], lo.Values[4])
	}
	if pos.Values[5] != 1 {
		t.Fatalf("new high should sit at position 1, got %v", pos.Values[5])
	}
	if pos.Values[6] != 0 {
		t.Fatalf("new low should sit at position 0, got %v", pos.Values[6])
	}
}

func TestZscoreZeroStdIsMarker(t *testing.T) {
	vals := make([]float64, 10)
	for i := range vals {
		vals[i] = 100
	}
	g := NewGenerator(Config{Windows: []int{5}})
	cols := g.Compute("", "close", vals)
	z := findColumn(t, cols, "close_zscore_5")
	for i, v := range z.Values {
		if !models.IsMarker(v) {
			t.Fatalf("row %d: zero-variance window must yield marker, got %v", i, v)
		}
	}
	p := findColumn(t, cols, "close_position_5")
	if p.Values[9] != 0.5 {
		t.Fatalf("degenerate window position: want 0.5, got %v", p.Values[9])
	}
}

func TestDefaultConfigColumnCount(t *testing.T) {
	cfg := DefaultConfig()
	g := NewGenerator(cfg)
	cols := g.Compute("", "close", ramp(250))
	want := len(cfg.Lags) + len(cfg.ReturnLags) + 9*len(cfg.Windows)
	if len(cols) != want {
		t.Fatalf("column count: want %d, got %d", want, len(cols))
	}
	seen := map[string]bool{}
	for _, c := range cols {
		if seen[c.Name] {
			t.Fatalf("duplicate column %q", c.Name)
		}
		seen[c.Name] = true
	}
}

func findColumn(t *testing.T, cols []models.FeatureColumn, name string) models.FeatureColumn {
	t.Helper()
	for _, c := range cols {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %q not produced", name)
	return models.FeatureColumn{}
}
