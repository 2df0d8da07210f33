package cross

import (
	"math"
	"testing"

	"FXForge/internal/domain/models"
)

func findColumn(t *testing.T, cols []models.FeatureColumn, name string) models.FeatureColumn {
	t.Helper()
	for _, c := range cols {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %s not found", name)
	return models.FeatureColumn{}
}

func TestCorrelationOfProportionalReturns(t *testing.T) {
	// b is a scaled copy of a, so their returns are identical and the
	// rolling correlation is 1 wherever it is defined.
	a := []float64{1, 2, 3, 4, 6, 9}
	b := []float64{2, 4, 6, 8, 12, 18}
	g := New(Config{Windows: []int{3}})

	cols := g.Compute("eurusd", map[string][]float64{"eurusd": a, "gbpusd": b})
	c := findColumn(t, cols, "corr_eurusd_gbpusd_3")
	if len(c.Values) != len(a) {
		t.Fatalf("column length %d, want %d", len(c.Values), len(a))
	}
	// Returns start at row 1, so the first window of 3 closes at row 3.
	for i := 0; i < 3; i++ {
		if !models.IsMarker(c.Values[i]) {
			t.Fatalf("row %d: want warm-up marker, got %v", i, c.Values[i])
		}
	}
	for i := 3; i < len(a); i++ {
		if math.Abs(c.Values[i]-1) > 1e-12 {
			t.Fatalf("row %d: corr = %v, want 1", i, c.Values[i])
		}
	}
}

func TestCorrelationOfMirroredReturns(t *testing.T) {
	a := []float64{1, 2, 3, 4.5, 6}
	b := make([]float64, len(a))
	b[0] = 100
	for i := 1; i < len(a); i++ {
		r := a[i]/a[i-1] - 1
		b[i] = b[i-1] * (1 - r)
	}
	g := New(Config{Windows: []int{3}})

	cols := g.Compute("eurusd", map[string][]float64{"eurusd": a, "usdchf": b})
	c := findColumn(t, cols, "corr_eurusd_usdchf_3")
	for i := 3; i < len(a); i++ {
		if math.Abs(c.Values[i]+1) > 1e-9 {
			t.Fatalf("row %d: corr = %v, want -1", i, c.Values[i])
		}
	}
}

func TestCorrelationSkipsUnobservedRows(t *testing.T) {
	m := models.Marker()
	a := []float64{1, 2, 3, 4, 6, 9, 18}
	b := []float64{2, 4, m, 8, 12, 18, 36}
	g := New(Config{Windows: []int{3}})

	cols := g.Compute("eurusd", map[string][]float64{"eurusd": a, "gbpusd": b})
	c := findColumn(t, cols, "corr_eurusd_gbpusd_3")

	// b's marker at row 2 kills the returns at rows 2 and 3, so the joint
	// observations sit at rows 1, 4, 5, 6 and the first window closes at
	// row 5.
	for i := 0; i < 5; i++ {
		if !models.IsMarker(c.Values[i]) {
			t.Fatalf("row %d: want marker, got %v", i, c.Values[i])
		}
	}
	if math.Abs(c.Values[5]-1) > 1e-12 || math.Abs(c.Values[6]-1) > 1e-12 {
		t.Fatalf("rows 5,6: corr = %v, %v, want 1", c.Values[5], c.Values[6])
	}
}

func TestCorrelationFlatWindowIsMarker(t *testing.T) {
	// Constant returns leave zero variance in every window.
	a := []float64{1, 2, 4, 8, 16}
	b := []float64{1, 3, 6, 12, 24}
	g := New(Config{Windows: []int{3}})

	cols := g.Compute("eurusd", map[string][]float64{"eurusd": a, "gbpusd": b})
	c := findColumn(t, cols, "corr_eurusd_gbpusd_3")
	for i, v := range c.Values {
		if !models.IsMarker(v) {
			t.Fatalf("row %d: want marker for flat window, got %v", i, v)
		}
	}
}

func TestStrengthAveragesLegReturns(t *testing.T) {
	a := []float64{1, 2, 3, 4.5, 6}
	// b mirrors a's returns, so short-b contributes the same as long-a.
	b := make([]float64, len(a))
	b[0] = 100
	for i := 1; i < len(a); i++ {
		r := a[i]/a[i-1] - 1
		b[i] = b[i-1] * (1 - r)
	}
	g := New(Config{Strength: []StrengthSpec{
		{Name: "usd_strength", Longs: []string{"usdjpy"}, Shorts: []string{"eurusd"}, Window: 2},
	}})

	cols := g.Compute("usdjpy", map[string][]float64{"usdjpy": a, "eurusd": b})
	c := findColumn(t, cols, "usd_strength")
	if !models.IsMarker(c.Values[0]) || !models.IsMarker(c.Values[1]) {
		t.Fatalf("rows 0,1: want warm-up markers, got %v, %v", c.Values[0], c.Values[1])
	}
	// Basket return equals a's return at every row; window-2 mean of the
	// returns at rows 1 and 2 lands at row 2.
	r1 := a[1]/a[0] - 1
	r2 := a[2]/a[1] - 1
	want := (r1 + r2) / 2
	if math.Abs(c.Values[2]-want) > 1e-9 {
		t.Fatalf("row 2: strength = %v, want %v", c.Values[2], want)
	}
}

func TestStrengthSkipsAbsentLegs(t *testing.T) {
	a := []float64{1, 2, 3, 4, 6}
	g := New(Config{Strength: []StrengthSpec{
		{Name: "usd_strength", Longs: []string{"usdjpy", "usdchf"}, Window: 2},
		{Name: "jpy_strength", Shorts: []string{"eurjpy", "gbpjpy"}, Window: 2},
	}})

	cols := g.Compute("usdjpy", map[string][]float64{"usdjpy": a})
	for _, c := range cols {
		if c.Name == "jpy_strength" {
			t.Fatal("jpy_strength built with no resolvable legs")
		}
	}
	c := findColumn(t, cols, "usd_strength")
	r1 := a[1]/a[0] - 1
	r2 := a[2]/a[1] - 1
	if math.Abs(c.Values[2]-(r1+r2)/2) > 1e-9 {
		t.Fatalf("row 2: strength = %v, want %v", c.Values[2], (r1+r2)/2)
	}
}

func TestNoColumnsWithoutPeers(t *testing.T) {
	g := New(DefaultConfig())
	cols := g.Compute("eurusd", map[string][]float64{"eurusd": {1, 2, 3}})
	if len(cols) != 0 {
		t.Fatalf("got %d columns for a lone instrument, want 0", len(cols))
	}
}
