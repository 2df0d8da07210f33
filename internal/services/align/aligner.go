// Package align resamples heterogeneous source series onto the canonical
// index. It only aggregates or carries values forward; it never
// interpolates, so no aligned value depends on information that was not yet
// known at its instant.
package align

import (
	"time"

	"FXForge/internal/domain/models"
)

// Aligner produces aligned series against one canonical daily index.
type Aligner struct {
	index models.Index
	pos   map[time.Time]int
}

// New creates an aligner for the given canonical index.
func New(index models.Index) *Aligner {
	pos := make(map[time.Time]int, len(index))
	for i, t := range index {
		pos[t] = i
	}
	return &Aligner{index: index, pos: pos}
}

// Index returns the canonical index the aligner was built with.
func (a *Aligner) Index() models.Index { return a.index }

// AlignScalar aligns a scalar series. Sources finer than daily collapse to
// the last value in each day bucket; daily sources map by identity; monthly,
// quarterly and irregular sources forward-fill from each release date until
// superseded. Instants before the first observation stay unobserved.
func (a *Aligner) AlignScalar(s *models.Series) (*models.AlignedSeries, error) {
	if s.IsOHLCV() {
		return nil, &models.InvalidSeriesError{Name: s.Name, Reason: "scalar alignment requested for OHLCV series"}
	}
	values := newMarkerSlice(len(a.index))

	switch {
	case isFinerThanDay(s.Granularity):
		// Last observation in each day bucket wins.
		for _, p := range s.Points {
			if i, ok := a.pos[truncateDay(p.T)]; ok {
				values[i] = p.Value
			}
		}
	case s.Granularity == models.GranD:
		for _, p := range s.Points {
			if i, ok := a.pos[truncateDay(p.T)]; ok {
				values[i] = p.Value
			}
		}
	case s.Granularity == models.GranMonthly || s.Granularity == models.GranQuarterly || s.Granularity == models.GranIrregular:
		a.forwardFill(values, s.Points)
	default:
		return nil, &models.UnsupportedGranularityError{Series: s.Name, Source: s.Granularity, Target: models.GranD}
	}

	return &models.AlignedSeries{Name: s.Name, Values: values}, nil
}

// AlignOHLCV aligns a bar series. Sources finer than daily aggregate each
// day bucket (open = first, high = max, low = min, close = last,
// volume = sum); daily sources map by identity. There is no defined rule
// for bars coarser than the canonical day, so those fail.
func (a *Aligner) AlignOHLCV(s *models.Series) (*models.AlignedOHLCV, error) {
	if !s.IsOHLCV() {
		return nil, &models.InvalidSeriesError{Name: s.Name, Reason: "OHLCV alignment requested for scalar series"}
	}
	out := &models.AlignedOHLCV{
		Name:   s.Name,
		Open:   newMarkerSlice(len(a.index)),
		High:   newMarkerSlice(len(a.index)),
		Low:    newMarkerSlice(len(a.index)),
		Close:  newMarkerSlice(len(a.index)),
		Volume: newMarkerSlice(len(a.index)),
	}

	switch {
	case isFinerThanDay(s.Granularity):
		for _, b := range s.Bars {
			i, ok := a.pos[truncateDay(b.T)]
			if !ok {
				continue
			}
			if models.IsMarker(out.Close[i]) {
				// First bar of the bucket seeds open and the extremes.
				out.Open[i] = b.Open
				out.High[i] = b.High
				out.Low[i] = b.Low
				out.Volume[i] = 0
			} else {
				if b.High > out.High[i] {
					out.High[i] = b.High
				}
				if b.Low < out.Low[i] {
					out.Low[i] = b.Low
				}
			}
			out.Close[i] = b.Close
			out.Volume[i] += b.Volume
		}
	case s.Granularity == models.GranD:
		for _, b := range s.Bars {
			i, ok := a.pos[truncateDay(b.T)]
			if !ok {
				continue
			}
			out.Open[i] = b.Open
			out.High[i] = b.High
			out.Low[i] = b.Low
			out.Close[i] = b.Close
			out.Volume[i] = b.Volume
		}
	default:
		return nil, &models.UnsupportedGranularityError{Series: s.Name, Source: s.Granularity, Target: models.GranD}
	}

	return out, nil
}

// forwardFill carries each observation forward from its (day-truncated)
// timestamp until the next observation supersedes it. Points are already
// strictly ascending, so within one day bucket the later timestamp wins
// naturally.
func (a *Aligner) forwardFill(values []float64, points []models.Point) {
	if len(points) == 0 {
		return
	}
	j := 0
	current := models.Marker()
	for i, t := range a.index {
		for j < len(points) && !truncateDay(points[j].T).After(t) {
			current = points[j].Value
			j++
		}
		values[i] = current
	}
}

func isFinerThanDay(g models.Granularity) bool {
	step := g.Step()
	return step > 0 && step < 24*time.Hour
}

func newMarkerSlice(n int) []float64 {
	vs := make([]float64, n)
	for i := range vs {
		vs[i] = models.Marker()
	}
	return vs
}
