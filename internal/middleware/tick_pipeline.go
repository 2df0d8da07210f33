package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FXForge/internal/domain/models"
	domrepo "FXForge/internal/domain/repository"
	"FXForge/internal/service/ratelimit"
)

// TickHandler is the minimal downstream interface the pipeline needs.
type TickHandler interface {
	Handle(ctx context.Context, t *models.Tick) error
}

// TickPipeline is a middleware between the price stream and the bar builder.
// It validates, throttles per instrument, and buffers when downstream fails.
type TickPipeline struct {
	next    TickHandler
	metrics domrepo.Metrics
	limiter *ratelimit.Limiter
	maxTPS  float64
	bufSize int
	bufCh   chan *models.Tick
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
}

type PipelineOption func(*TickPipeline)

// WithMaxTicksPerSecond sets the maximum accepted ticks per second per instrument.
func WithMaxTicksPerSecond(n float64) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.maxTPS = n
		}
	}
}

// WithBufferSize sets the retry buffer size used when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewTickPipeline creates a new pipeline in front of next.
func NewTickPipeline(next TickHandler, metrics domrepo.Metrics, opts ...PipelineOption) *TickPipeline {
	p := &TickPipeline{
		next:    next,
		metrics: metrics,
		limiter: ratelimit.New(),
		maxTPS:  20,
		bufSize: 1000,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.Tick, p.bufSize)
	return p
}

// Start launches background flushing of buffered ticks.
func (p *TickPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case t := <-p.bufCh:
				if t == nil {
					continue
				}
				if err := p.next.Handle(ctx, t); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- t:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *TickPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a tick, buffering on downstream errors.
func (p *TickPipeline) Process(ctx context.Context, t *models.Tick) error {
	if err := validateTick(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.limiter.Allow(t.Instrument, p.maxTPS, p.maxTPS) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.next.Handle(ctx, t); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- t:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	return nil
}

func validateTick(t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("tick nil")
	}
	if t.Instrument == "" {
		return fmt.Errorf("instrument empty")
	}
	if t.T.IsZero() {
		return fmt.Errorf("time invalid")
	}
	if t.Bid <= 0 || t.Ask <= 0 {
		return fmt.Errorf("non-positive bid/ask")
	}
	if t.Ask < t.Bid {
		return fmt.Errorf("crossed quote")
	}
	return nil
}
