package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"FXForge/internal/domain/models"
)

type fakeHandler struct {
	mu    sync.Mutex
	ticks []*models.Tick
	fail  bool
}

func (h *fakeHandler) Handle(_ context.Context, t *models.Tick) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fail {
		return fmt.Errorf("downstream down")
	}
	h.ticks = append(h.ticks, t)
	return nil
}

func (h *fakeHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.ticks)
}

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errors: make(map[string]int)} }

func (m *fakeMetrics) RecordSeriesAligned(string) {}
func (m *fakeMetrics) RecordColumnsBuilt(int)     {}
func (m *fakeMetrics) RecordRunDuration(float64)  {}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) errCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func tick(inst string, bid, ask float64) *models.Tick {
	return &models.Tick{Instrument: inst, T: time.Now(), Bid: bid, Ask: ask}
}

func TestTickPipelineForwardsValidTicks(t *testing.T) {
	h := &fakeHandler{}
	p := NewTickPipeline(h, newFakeMetrics(), WithMaxTicksPerSecond(1000))

	for i := 0; i < 5; i++ {
		if err := p.Process(context.Background(), tick("eurusd", 1.1000, 1.1002)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if got := h.count(); got != 5 {
		t.Fatalf("forwarded %d ticks, want 5", got)
	}
}

func TestTickPipelineRejectsInvalidTicks(t *testing.T) {
	h := &fakeHandler{}
	m := newFakeMetrics()
	p := NewTickPipeline(h, m, WithMaxTicksPerSecond(1000))

	bad := []*models.Tick{
		nil,
		{T: time.Now(), Bid: 1.1, Ask: 1.2},
		{Instrument: "eurusd", Bid: 1.1, Ask: 1.2},
		{Instrument: "eurusd", T: time.Now(), Bid: -1, Ask: 1.2},
		{Instrument: "eurusd", T: time.Now(), Bid: 1.2, Ask: 1.1},
	}
	for i, b := range bad {
		if err := p.Process(context.Background(), b); err == nil {
			t.Fatalf("tick %d accepted, want error", i)
		}
	}
	if got := h.count(); got != 0 {
		t.Fatalf("downstream got %d ticks, want 0", got)
	}
	if got := m.errCount("pipeline_validate"); got != len(bad) {
		t.Fatalf("validate errors = %d, want %d", got, len(bad))
	}
}

func TestTickPipelineThrottlesPerInstrument(t *testing.T) {
	h := &fakeHandler{}
	m := newFakeMetrics()
	p := NewTickPipeline(h, m, WithMaxTicksPerSecond(2))

	// Burst far beyond the bucket capacity; throttled ticks drop without error.
	for i := 0; i < 50; i++ {
		if err := p.Process(context.Background(), tick("eurusd", 1.1000, 1.1002)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if got := h.count(); got > 3 {
		t.Fatalf("forwarded %d ticks, want at most 3", got)
	}
	if m.errCount("pipeline_throttle") == 0 {
		t.Fatal("expected throttle drops to be recorded")
	}
}

func TestTickPipelineBuffersOnDownstreamFailure(t *testing.T) {
	h := &fakeHandler{fail: true}
	m := newFakeMetrics()
	p := NewTickPipeline(h, m, WithMaxTicksPerSecond(1000), WithBufferSize(10))

	if err := p.Process(context.Background(), tick("eurusd", 1.1000, 1.1002)); err == nil {
		t.Fatal("expected downstream error")
	}
	if got := m.errCount("pipeline_process"); got != 1 {
		t.Fatalf("process errors = %d, want 1", got)
	}

	// Downstream recovers; the background flusher drains the buffer.
	h.mu.Lock()
	h.fail = false
	h.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for h.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("buffered tick never flushed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
