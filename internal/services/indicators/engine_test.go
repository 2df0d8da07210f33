package indicators

import (
	"math"
	"testing"

	"FXForge/internal/domain/models"
)

// flatBars builds an aligned OHLCV series with every bar observed and a
// constant close.
func flatBars(n int, closeV float64) *models.AlignedOHLCV {
	a := &models.AlignedOHLCV{Name: "test"}
	for i := 0; i < n; i++ {
		a.Open = append(a.Open, closeV)
		a.High = append(a.High, closeV)
		a.Low = append(a.Low, closeV)
		a.Close = append(a.Close, closeV)
		a.Volume = append(a.Volume, 100)
	}
	return a
}

// trendBars builds bars with close = start + i and a one-unit daily range.
func trendBars(n int, start float64) *models.AlignedOHLCV {
	a := &models.AlignedOHLCV{Name: "test"}
	for i := 0; i < n; i++ {
		c := start + float64(i)
		a.Open = append(a.Open, c-0.5)
		a.High = append(a.High, c+0.5)
		a.Low = append(a.Low, c-1)
		a.Close = append(a.Close, c)
		a.Volume = append(a.Volume, 100+float64(i))
	}
	return a
}

func TestSMAConstantClose(t *testing.T) {
	// 40 bars of close=100: SMA(20) is marker for the first 19 rows and
	// exactly 100 from row 20 on.
	bars := flatBars(40, 100)
	eng := NewEngine(Config{SMAWindows: []int{20}})
	cols := eng.Compute("", bars)
	if len(cols) != 1 {
		t.Fatalf("expected 1 column, got %d", len(cols))
	}
	vals := cols[0].Values
	for i := 0; i < 19; i++ {
		if !models.IsMarker(vals[i]) {
			t.Fatalf("row %d: expected marker, got %v", i, vals[i])
		}
	}
	for i := 19; i < 40; i++ {
		if vals[i] != 100 {
			t.Fatalf("row %d: expected 100, got %v", i, vals[i])
		}
	}
}

func TestRSISaturatesOnFlatSeries(t *testing.T) {
	bars := flatBars(40, 100)
	vals := rsi(bars.Close, 14)
	for i := 0; i < 13; i++ {
		if !models.IsMarker(vals[i]) {
			t.Fatalf("row %d: expected marker, got %v", i, vals[i])
		}
	}
	// Zero gains and zero losses must not fault; the index saturates.
	for i := 13; i < 40; i++ {
		if vals[i] != 100 {
			t.Fatalf("row %d: expected saturation to 100, got %v", i, vals[i])
		}
	}
}

func TestWarmupInvariant(t *testing.T) {
	bars := trendBars(60, 100)
	for _, n := range []int{1, 5, 14, 30} {
		for name, vals := range map[string][]float64{
			"sma": sma(bars.Close, n),
			"ema": ema(bars.Close, n),
			"rsi": rsi(bars.Close, n),
			"atr": atr(bars.High, bars.Low, bars.Close, n),
		} {
			for i := 0; i < n-1; i++ {
				if !models.IsMarker(vals[i]) {
					t.Fatalf("%s(%d) row %d: expected marker, got %v", name, n, i, vals[i])
				}
			}
			if models.IsMarker(vals[n-1]) {
				t.Fatalf("%s(%d): first value missing at row %d", name, n, n-1)
			}
		}
	}
}

func TestShortInputYieldsAllMarkers(t *testing.T) {
	bars := trendBars(5, 100)
	vals := sma(bars.Close, 20)
	for i, v := range vals {
		if !models.IsMarker(v) {
			t.Fatalf("row %d: expected marker on short input, got %v", i, v)
		}
	}
}

func TestLookaheadSafety(t *testing.T) {
	// Mutating bars strictly after position t must not change any value at
	// or before t, for every catalog column except the Ichimoku leading
	// spans (whose forward shift is a display offset).
	eng := NewEngine(DefaultConfig())
	a := trendBars(80, 100)
	before := eng.Compute("", a)

	mutated := trendBars(80, 100)
	for i := 61; i < 80; i++ {
		mutated.Close[i] = 500 + float64(i)
		mutated.High[i] = 501 + float64(i)
		mutated.Low[i] = 499 + float64(i)
		mutated.Volume[i] = 9999
	}
	after := eng.Compute("", mutated)

	if len(before) != len(after) {
		t.Fatalf("column count changed: %d vs %d", len(before), len(after))
	}
	for ci := range before {
		name := before[ci].Name
		if name == "ichimoku_span_a" || name == "ichimoku_span_b" {
			continue
		}
		for i := 0; i <= 60; i++ {
			b, af := before[ci].Values[i], after[ci].Values[i]
			if models.IsMarker(b) != models.IsMarker(af) {
				t.Fatalf("%s row %d: marker state changed", name, i)
			}
			if !models.IsMarker(b) && b != af {
				t.Fatalf("%s row %d: %v changed to %v after future mutation", name, i, b, af)
			}
		}
	}
}

func TestUnobservedBarsStayMarkers(t *testing.T) {
	a := trendBars(30, 100)
	// Punch weekend-style holes.
	for _, i := range []int{5, 6, 12, 13, 19, 20} {
		a.Open[i] = models.Marker()
		a.High[i] = models.Marker()
		a.Low[i] = models.Marker()
		a.Close[i] = models.Marker()
		a.Volume[i] = models.Marker()
	}
	eng := NewEngine(Config{SMAWindows: []int{5}})
	cols := eng.Compute("", a)
	vals := cols[0].Values
	for _, i := range []int{5, 6, 12, 13, 19, 20} {
		if !models.IsMarker(vals[i]) {
			t.Fatalf("row %d: unobserved instant must stay marker", i)
		}
	}
	// 5 observed bars exist by position 4; value expected there, and on
	// the first few observed rows after the holes.
	if models.IsMarker(vals[4]) {
		t.Fatalf("expected value at row 4")
	}
	if models.IsMarker(vals[29]) {
		t.Fatalf("expected value at row 29")
	}
}

func TestStochasticFlatWindow(t *testing.T) {
	bars := flatBars(20, 100)
	k, d := stochastic(bars.High, bars.Low, bars.Close, 14, 3)
	if k[13] != 50 {
		t.Fatalf("flat window %%K: expected midpoint 50, got %v", k[13])
	}
	if d[16] != 50 {
		t.Fatalf("flat window %%D: expected 50, got %v", d[16])
	}
}

func TestBollingerConstantSeries(t *testing.T) {
	bars := flatBars(30, 100)
	upper, lower, _, pos := bollinger(bars.Close, 20, 2)
	if upper[19] != 100 || lower[19] != 100 {
		t.Fatalf("zero-variance bands should collapse to the mean, got %v/%v", upper[19], lower[19])
	}
	if pos[19] != 0.5 {
		t.Fatalf("degenerate band position should be 0.5, got %v", pos[19])
	}
}

func TestEMAConvergesTowardRecentValues(t *testing.T) {
	vals := make([]float64, 50)
	for i := range vals {
		vals[i] = 100
	}
	vals[49] = 200
	e := ema(vals, 10)
	if e[49] <= 100 || e[49] >= 200 {
		t.Fatalf("ema should move toward the last value, got %v", e[49])
	}
	want := 100 + (200-100)*2.0/11.0
	if math.Abs(e[49]-want) > 1e-9 {
		t.Fatalf("ema step: want %v, got %v", want, e[49])
	}
}

func TestIchimokuSpansAreForwardShifted(t *testing.T) {
	a := trendBars(120, 100)
	p := IchimokuParams{Conversion: 9, Base: 26, SpanB: 52, Displacement: 26}
	conv, base, spanA, _ := ichimoku(a.High, a.Low, p)
	// spanA at i+disp equals the midpoint of conversion and base at i.
	i := 40
	want := (conv[i] + base[i]) / 2
	if got := spanA[i+26]; got != want {
		t.Fatalf("span A displacement: want %v at %d, got %v", want, i+26, got)
	}
	// Nothing is plotted before the displacement horizon.
	for j := 0; j < 26; j++ {
		if !models.IsMarker(spanA[j]) {
			t.Fatalf("span A row %d: expected marker", j)
		}
	}
}

func TestComputeColumnNamesPrefixed(t *testing.T) {
	eng := NewEngine(Config{SMAWindows: []int{5}})
	cols := eng.Compute("eur_usd_", flatBars(10, 1))
	if cols[0].Name != "eur_usd_sma_5" {
		t.Fatalf("unexpected column name %q", cols[0].Name)
	}
	if cols[0].Source != models.SourceIndicator {
		t.Fatalf("unexpected source %q", cols[0].Source)
	}
}
