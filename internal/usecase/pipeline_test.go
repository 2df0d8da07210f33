package usecase

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"FXForge/internal/domain/models"
	"FXForge/internal/repository"
	"FXForge/internal/services/assemble"
	"FXForge/internal/services/cross"
	"FXForge/internal/services/indicators"
	"FXForge/internal/services/rolling"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dailyBars(from time.Time, closes []float64, skip map[int]bool) []models.Bar {
	var bars []models.Bar
	for i, c := range closes {
		if skip[i] {
			continue
		}
		bars = append(bars, models.Bar{
			T:     from.AddDate(0, 0, i),
			OHLCV: models.OHLCV{Open: c, High: c + 0.001, Low: c - 0.001, Close: c, Volume: 1000},
		})
	}
	return bars
}

func testStore(t *testing.T, from time.Time, days int) *repository.SeriesStore {
	t.Helper()
	store := repository.NewSeriesStore()

	closes := make([]float64, days)
	for i := range closes {
		closes[i] = 1.10 + 0.001*float64(i)
	}
	// weekend-style holes
	skip := map[int]bool{5: true, 6: true, 12: true, 13: true}
	put(t, store, &models.Series{
		Name:        "eurusd",
		Source:      "oanda",
		Granularity: models.GranD,
		Bars:        dailyBars(from, closes, skip),
	})

	put(t, store, &models.Series{
		Name:        "us_10y_treasury",
		Source:      "fred",
		Granularity: models.GranIrregular,
		Points: []models.Point{
			{T: from, Value: 4.20},
			{T: from.AddDate(0, 0, 10), Value: 4.35},
		},
	})
	put(t, store, &models.Series{
		Name:        "us_2y_treasury",
		Source:      "fred",
		Granularity: models.GranIrregular,
		Points: []models.Point{
			{T: from, Value: 4.80},
			{T: from.AddDate(0, 0, 10), Value: 4.70},
		},
	})
	put(t, store, &models.Series{
		Name:        "cpi",
		Source:      "fred",
		Granularity: models.GranMonthly,
		Points: []models.Point{
			{T: from.AddDate(0, 0, 14), Value: 308.4},
		},
	})
	return store
}

func put(t *testing.T, store *repository.SeriesStore, s *models.Series) {
	t.Helper()
	if err := store.Put(s); err != nil {
		t.Fatalf("put %s: %v", s.Name, err)
	}
}

func testConfig(from, to time.Time) Config {
	return Config{
		Instrument: "eurusd",
		From:       from,
		To:         to,
		Workers:    3,
		Indicators: indicators.Config{
			SMAWindows: []int{3},
			RSIPeriods: []int{5},
		},
		Rolling:   rolling.Config{Lags: []int{1, 2}, Windows: []int{3}},
		Assembler: assemble.Config{MinCompleteness: 0.2},
		Spreads: []SpreadSpec{
			{Name: "yield_curve", Minuend: "us_10y_treasury", Subtrahend: "us_2y_treasury"},
		},
	}
}

func TestPipelineRun(t *testing.T) {
	from := day(2024, 1, 1)
	to := day(2024, 1, 31)
	store := testStore(t, from, 31)
	p := NewPipeline(testConfig(from, to), nil)

	table, manifest, err := p.Run(context.Background(), store)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if table.Rows() != 31 {
		t.Fatalf("rows: want 31, got %d", table.Rows())
	}
	if manifest.Instrument != "eurusd" || manifest.Columns != len(table.Columns) {
		t.Fatalf("manifest mismatch: %+v", manifest)
	}

	// Primary instrument columns are unprefixed.
	closeCol := table.Column("close")
	if closeCol == nil {
		t.Fatalf("primary close column missing")
	}
	if !models.IsMarker(closeCol.Values[5]) {
		t.Fatalf("unobserved day must stay a marker in raw close")
	}
	if closeCol.Values[0] != 1.10 {
		t.Fatalf("close[0]: want 1.10, got %v", closeCol.Values[0])
	}

	// Scalar series align by forward fill.
	cpi := table.Column("cpi")
	if cpi == nil {
		t.Fatalf("cpi column missing")
	}
	if !models.IsMarker(cpi.Values[13]) {
		t.Fatalf("cpi before first release must be a marker")
	}
	if cpi.Values[14] != 308.4 || cpi.Values[30] != 308.4 {
		t.Fatalf("cpi forward fill wrong: %v, %v", cpi.Values[14], cpi.Values[30])
	}

	// Spread columns subtract aligned scalars, markers propagating.
	yc := table.Column("yield_curve")
	if yc == nil {
		t.Fatalf("yield_curve column missing")
	}
	if got := yc.Values[0]; got != 4.20-4.80 {
		t.Fatalf("yield_curve[0]: want -0.6, got %v", got)
	}
	if got := yc.Values[30]; got != 4.35-4.70 {
		t.Fatalf("yield_curve[30]: want -0.35, got %v", got)
	}

	// Indicator warm-up on the observed subsequence: sma_3's first value
	// appears at the third observed bar.
	sma := table.Column("sma_3")
	if sma == nil {
		t.Fatalf("sma_3 column missing")
	}
	if !models.IsMarker(sma.Values[0]) || !models.IsMarker(sma.Values[1]) {
		t.Fatalf("sma_3 warm-up rows must be markers")
	}
	if models.IsMarker(sma.Values[2]) {
		t.Fatalf("sma_3 must be defined at the third observed bar")
	}

	// Calendar columns are always present and fully defined.
	if dow := table.Column("day_of_week"); dow == nil || models.IsMarker(dow.Values[5]) {
		t.Fatalf("day_of_week must be defined on every row")
	}
}

func TestPipelineCrossInstrumentColumns(t *testing.T) {
	from := day(2024, 1, 1)
	to := day(2024, 1, 10)
	store := testStore(t, from, 10)

	// A scaled copy of the primary's closes: identical returns, so the
	// rolling correlation is exactly 1 wherever it is defined.
	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 2 * (1.10 + 0.001*float64(i))
	}
	put(t, store, &models.Series{
		Name:        "gbpusd",
		Source:      "oanda",
		Granularity: models.GranD,
		Bars:        dailyBars(from, closes, map[int]bool{5: true, 6: true}),
	})

	cfg := testConfig(from, to)
	cfg.Cross = cross.Config{
		Windows: []int{3},
		Strength: []cross.StrengthSpec{
			{Name: "usd_strength", Shorts: []string{"eurusd", "gbpusd"}, Window: 2},
		},
	}
	table, _, err := NewPipeline(cfg, nil).Run(context.Background(), store)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if table.Column("gbpusd_close") == nil {
		t.Fatalf("secondary instrument close column missing")
	}

	corr := table.Column("corr_eurusd_gbpusd_3")
	if corr == nil {
		t.Fatalf("correlation column missing")
	}
	// Returns start at row 1, so the third joint observation is row 3.
	for i := 0; i < 3; i++ {
		if !models.IsMarker(corr.Values[i]) {
			t.Fatalf("corr row %d: want warm-up marker, got %v", i, corr.Values[i])
		}
	}
	if math.Abs(corr.Values[3]-1) > 1e-9 || math.Abs(corr.Values[4]-1) > 1e-9 {
		t.Fatalf("corr rows 3,4: want 1, got %v, %v", corr.Values[3], corr.Values[4])
	}
	// Rows 5 and 6 are unobserved in both instruments.
	if !models.IsMarker(corr.Values[5]) || !models.IsMarker(corr.Values[6]) {
		t.Fatalf("corr on unobserved rows must stay markers")
	}

	strength := table.Column("usd_strength")
	if strength == nil {
		t.Fatalf("strength column missing")
	}
	if !models.IsMarker(strength.Values[1]) {
		t.Fatalf("strength row 1: want warm-up marker, got %v", strength.Values[1])
	}
	r1 := (1.10 + 0.001) / 1.10 - 1
	r2 := (1.10 + 0.002) / (1.10 + 0.001) - 1
	want := -(r1 + r2) / 2
	if math.Abs(strength.Values[2]-want) > 1e-12 {
		t.Fatalf("strength row 2: want %v, got %v", want, strength.Values[2])
	}
}

func TestPipelineDeterministicAcrossRuns(t *testing.T) {
	from := day(2024, 1, 1)
	to := day(2024, 1, 31)
	cfg := testConfig(from, to)

	var outputs [][]byte
	for run := 0; run < 3; run++ {
		store := testStore(t, from, 31)
		table, _, err := NewPipeline(cfg, nil).Run(context.Background(), store)
		if err != nil {
			t.Fatalf("run %d failed: %v", run, err)
		}
		var buf bytes.Buffer
		if err := repository.WriteCSV(&buf, table); err != nil {
			t.Fatalf("run %d serialize: %v", run, err)
		}
		outputs = append(outputs, buf.Bytes())
	}
	for run := 1; run < len(outputs); run++ {
		if !bytes.Equal(outputs[0], outputs[run]) {
			t.Fatalf("run %d output differs from run 0", run)
		}
	}
}

func TestPipelineRejectsMissingPrimary(t *testing.T) {
	from := day(2024, 1, 1)
	store := repository.NewSeriesStore()
	put(t, store, &models.Series{
		Name:        "cpi",
		Source:      "fred",
		Granularity: models.GranMonthly,
		Points:      []models.Point{{T: from, Value: 300}},
	})
	cfg := testConfig(from, day(2024, 1, 10))
	cfg.Spreads = nil
	_, _, err := NewPipeline(cfg, nil).Run(context.Background(), store)
	if err == nil {
		t.Fatalf("want error when primary instrument is absent")
	}
}

func TestPipelineRejectsUnknownSpreadOperand(t *testing.T) {
	from := day(2024, 1, 1)
	store := testStore(t, from, 10)
	cfg := testConfig(from, day(2024, 1, 10))
	cfg.Spreads = []SpreadSpec{{Name: "bad", Minuend: "nope", Subtrahend: "us_2y_treasury"}}
	_, _, err := NewPipeline(cfg, nil).Run(context.Background(), store)
	var nf *models.NotFoundError
	if !errors.As(err, &nf) || nf.Name != "nope" {
		t.Fatalf("want NotFoundError for nope, got %v", err)
	}
}
