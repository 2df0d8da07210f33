package oanda

import (
	"sort"
	"time"

	"FXForge/internal/domain/models"
)

// BarBuilder folds a tick stream into fixed-interval mid-price bars, one
// running bucket per instrument. Volume counts ticks, which is the only
// volume FX price streams carry.
type BarBuilder struct {
	granularity models.Granularity
	step        time.Duration
	open        map[string]*openBar
	done        map[string][]models.Bar
}

type openBar struct {
	bucket time.Time
	bar    models.OHLCV
}

// NewBarBuilder creates a builder for an intraday granularity.
func NewBarBuilder(g models.Granularity) *BarBuilder {
	return &BarBuilder{
		granularity: g,
		step:        g.Step(),
		open:        make(map[string]*openBar),
		done:        make(map[string][]models.Bar),
	}
}

// Add folds one tick in. Ticks must arrive in time order per instrument;
// out-of-order ticks within the current bucket still update extremes, but a
// tick before the current bucket is dropped.
func (b *BarBuilder) Add(t *models.Tick) {
	bucket := t.T.Truncate(b.step)
	mid := t.Mid()

	cur, ok := b.open[t.Instrument]
	if !ok || bucket.After(cur.bucket) {
		if ok {
			b.done[t.Instrument] = append(b.done[t.Instrument], models.Bar{T: cur.bucket, OHLCV: cur.bar})
		}
		b.open[t.Instrument] = &openBar{
			bucket: bucket,
			bar:    models.OHLCV{Open: mid, High: mid, Low: mid, Close: mid, Volume: 1},
		}
		return
	}
	if bucket.Before(cur.bucket) {
		return
	}
	if mid > cur.bar.High {
		cur.bar.High = mid
	}
	if mid < cur.bar.Low {
		cur.bar.Low = mid
	}
	cur.bar.Close = mid
	cur.bar.Volume++
}

// Flush closes all running buckets and returns one series per instrument,
// sorted by instrument name. The builder is empty afterwards.
func (b *BarBuilder) Flush(source string) []*models.Series {
	for inst, cur := range b.open {
		b.done[inst] = append(b.done[inst], models.Bar{T: cur.bucket, OHLCV: cur.bar})
	}
	b.open = make(map[string]*openBar)

	names := make([]string, 0, len(b.done))
	for inst := range b.done {
		names = append(names, inst)
	}
	sort.Strings(names)

	out := make([]*models.Series, 0, len(names))
	for _, inst := range names {
		bars := b.done[inst]
		out = append(out, &models.Series{
			Name:        inst,
			Source:      source,
			Granularity: b.granularity,
			FetchedFrom: bars[0].T,
			FetchedTo:   bars[len(bars)-1].T,
			Bars:        bars,
		})
	}
	b.done = make(map[string][]models.Bar)
	return out
}
