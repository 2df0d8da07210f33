package usecase

import (
	"context"
	"fmt"
	"time"

	"FXForge/internal/domain/models"
	drepo "FXForge/internal/domain/repository"
	"FXForge/internal/middleware"
	"FXForge/internal/repository"
	"FXForge/internal/service/oanda"
	applogger "FXForge/pkg/logger"
)

// TickStream is the read side of a live price stream.
type TickStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
}

// Collector drains a live tick stream for a bounded window and folds the
// ticks into intraday bar series. The resulting series carry the same shape
// as candle history, so a pipeline run can consume them unchanged.
type Collector struct {
	stream   TickStream
	pipeline *middleware.TickPipeline
	builder  *oanda.BarBuilder
	metrics  drepo.Metrics
	l        *applogger.Logger
}

func NewCollector(stream TickStream, granularity models.Granularity, metrics drepo.Metrics, l *applogger.Logger) *Collector {
	builder := oanda.NewBarBuilder(granularity)
	return &Collector{
		stream:   stream,
		pipeline: middleware.NewTickPipeline(builderHandler{builder}, metrics),
		builder:  builder,
		metrics:  metrics,
		l:        l,
	}
}

// builderHandler adapts BarBuilder to the pipeline's downstream interface.
type builderHandler struct {
	b *oanda.BarBuilder
}

func (h builderHandler) Handle(_ context.Context, t *models.Tick) error {
	h.b.Add(t)
	return nil
}

// Collect reads ticks until the window elapses or ctx is cancelled, then
// flushes the accumulated bars into the store. Collected series are stored
// under "<instrument>_live" so they never collide with candle history
// fetched for the same instrument. Stream read failures trigger a
// reconnect; collection resumes on the new socket.
func (c *Collector) Collect(ctx context.Context, window time.Duration, store *repository.SeriesStore) error {
	if err := c.stream.Connect(ctx); err != nil {
		return fmt.Errorf("collector connect: %w", err)
	}
	defer c.stream.Close()
	if err := c.stream.Subscribe(ctx); err != nil {
		return fmt.Errorf("collector subscribe: %w", err)
	}

	c.pipeline.Start(ctx)
	defer c.pipeline.Stop()

	deadline := time.NewTimer(window)
	defer deadline.Stop()

	ticks, errs := c.stream.Read(ctx)
	accepted := 0
	for {
		select {
		case <-ctx.Done():
			return c.flush(store, accepted)
		case <-deadline.C:
			return c.flush(store, accepted)
		case err, ok := <-errs:
			if !ok || err == nil {
				continue
			}
			if c.l != nil {
				c.l.Warn("stream error, reconnecting", applogger.Error(err))
			}
			c.metrics.RecordError("collector_stream")
			if rerr := c.stream.Reconnect(ctx); rerr != nil {
				return fmt.Errorf("collector reconnect: %w", rerr)
			}
			if serr := c.stream.Subscribe(ctx); serr != nil {
				return fmt.Errorf("collector resubscribe: %w", serr)
			}
			ticks, errs = c.stream.Read(ctx)
		case t, ok := <-ticks:
			if !ok {
				continue
			}
			if err := c.pipeline.Process(ctx, t); err != nil {
				continue
			}
			accepted++
		}
	}
}

func (c *Collector) flush(store *repository.SeriesStore, accepted int) error {
	series := c.builder.Flush("oanda")
	for _, s := range series {
		s.Name += "_live"
		if err := store.Put(s); err != nil {
			return fmt.Errorf("collector store: %w", err)
		}
	}
	if c.l != nil {
		c.l.Info("collection window closed",
			applogger.Int("ticks", accepted),
			applogger.Int("series", len(series)))
	}
	return nil
}
