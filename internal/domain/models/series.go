package models

import (
	"math"
	"time"
)

// Granularity is the sampling frequency of a source series.
type Granularity string

const (
	GranM1        Granularity = "M1"
	GranM5        Granularity = "M5"
	GranM15       Granularity = "M15"
	GranH1        Granularity = "H1"
	GranH4        Granularity = "H4"
	GranD         Granularity = "D"
	GranMonthly   Granularity = "MONTHLY"
	GranQuarterly Granularity = "QUARTERLY"
	GranIrregular Granularity = "IRREGULAR"
)

// Step returns the bar duration for fixed-step granularities and 0 for
// MONTHLY/QUARTERLY/IRREGULAR, which have no fixed step.
func (g Granularity) Step() time.Duration {
	switch g {
	case GranM1:
		return time.Minute
	case GranM5:
		return 5 * time.Minute
	case GranM15:
		return 15 * time.Minute
	case GranH1:
		return time.Hour
	case GranH4:
		return 4 * time.Hour
	case GranD:
		return 24 * time.Hour
	default:
		return 0
	}
}

// IsValid reports whether g is a supported granularity.
func (g Granularity) IsValid() bool {
	switch g {
	case GranM1, GranM5, GranM15, GranH1, GranH4, GranD, GranMonthly, GranQuarterly, GranIrregular:
		return true
	default:
		return false
	}
}

// Marker is the reserved "unobserved" / "insufficient-history" value.
// It is NaN so it can never be confused with a genuine zero.
func Marker() float64 { return math.NaN() }

// IsMarker reports whether v is the unobserved marker.
func IsMarker(v float64) bool { return math.IsNaN(v) }

// OHLCV is one price bar.
type OHLCV struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Point is a scalar observation (economic release, index level, sentiment score).
type Point struct {
	T     time.Time
	Value float64
}

// Bar is an OHLCV observation.
type Bar struct {
	T time.Time
	OHLCV
}

// Series is a named, typed time series as delivered by a source collaborator.
// Exactly one of Points or Bars is populated. Points/Bars must be strictly
// ascending by timestamp with no duplicates; Validate enforces this once at
// ingestion so downstream stages never re-check.
type Series struct {
	Name        string
	Source      string
	Granularity Granularity

	// Fetch window provenance, as reported by the collaborator.
	FetchedFrom time.Time
	FetchedTo   time.Time

	Points []Point
	Bars   []Bar
}

// IsOHLCV reports whether the series carries price bars rather than scalars.
func (s *Series) IsOHLCV() bool { return s.Bars != nil }

// Len returns the number of observations.
func (s *Series) Len() int {
	if s.IsOHLCV() {
		return len(s.Bars)
	}
	return len(s.Points)
}

// Validate checks the series invariants: a valid granularity, strictly
// ascending timestamps without duplicates, and well-formed bars
// (close > 0, volume >= 0).
func (s *Series) Validate() error {
	if s.Name == "" {
		return &InvalidSeriesError{Name: s.Name, Reason: "empty name"}
	}
	if !s.Granularity.IsValid() {
		return &InvalidSeriesError{Name: s.Name, Reason: "unknown granularity " + string(s.Granularity)}
	}
	if s.Points != nil && s.Bars != nil {
		return &InvalidSeriesError{Name: s.Name, Reason: "both scalar points and bars set"}
	}
	if s.IsOHLCV() {
		var prev time.Time
		for i, b := range s.Bars {
			if i > 0 && !b.T.After(prev) {
				return &InvalidSeriesError{Name: s.Name, Reason: "bars not strictly ascending at " + b.T.Format(time.RFC3339)}
			}
			if b.Close <= 0 {
				return &InvalidSeriesError{Name: s.Name, Reason: "non-positive close at " + b.T.Format(time.RFC3339)}
			}
			if b.Volume < 0 {
				return &InvalidSeriesError{Name: s.Name, Reason: "negative volume at " + b.T.Format(time.RFC3339)}
			}
			prev = b.T
		}
		return nil
	}
	var prev time.Time
	for i, p := range s.Points {
		if i > 0 && !p.T.After(prev) {
			return &InvalidSeriesError{Name: s.Name, Reason: "points not strictly ascending at " + p.T.Format(time.RFC3339)}
		}
		prev = p.T
	}
	return nil
}

// Index is the canonical timeline: a strictly increasing, gap-free sequence
// of instants at a single granularity. All aligned series and feature
// columns are positionally keyed by it.
type Index []time.Time

// Len returns the number of canonical instants.
func (ix Index) Len() int { return len(ix) }

// Range returns the first and last instants, or zero times for an empty index.
func (ix Index) Range() (time.Time, time.Time) {
	if len(ix) == 0 {
		return time.Time{}, time.Time{}
	}
	return ix[0], ix[len(ix)-1]
}

// AlignedSeries is a scalar series re-expressed on the canonical index.
// Values is positionally 1:1 with the index; unobserved instants hold the
// marker. Aligned series are never mutated after creation.
type AlignedSeries struct {
	Name   string
	Values []float64
}

// AlignedOHLCV is an OHLCV series re-expressed on the canonical index.
// A bar is observed or unobserved as a whole: either all five components
// hold values at a position, or all five hold the marker.
type AlignedOHLCV struct {
	Name   string
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// Observed reports whether the bar at position i is observed.
func (a *AlignedOHLCV) Observed(i int) bool { return !IsMarker(a.Close[i]) }
