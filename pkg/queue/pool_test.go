package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestPoolRunsAllTasks(t *testing.T) {
	p := NewPool(context.Background(), PoolConfig{Workers: 4})
	var done int64
	for i := 0; i < 100; i++ {
		p.Submit(func(ctx context.Context) error {
			atomic.AddInt64(&done, 1)
			return nil
		})
	}
	if errs := p.Wait(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if done != 100 {
		t.Fatalf("ran %d of 100 tasks", done)
	}
}

func TestPoolCollectsErrors(t *testing.T) {
	p := NewPool(context.Background(), PoolConfig{Workers: 2})
	boom := errors.New("boom")
	for i := 0; i < 5; i++ {
		i := i
		p.Submit(func(ctx context.Context) error {
			if i%2 == 0 {
				return boom
			}
			return nil
		})
	}
	errs := p.Wait()
	if len(errs) != 3 {
		t.Fatalf("want 3 errors, got %d", len(errs))
	}
	for _, err := range errs {
		if !errors.Is(err, boom) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestPoolHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPool(ctx, PoolConfig{Workers: 1, QueueSize: 10})
	var ran int64
	for i := 0; i < 5; i++ {
		p.Submit(func(ctx context.Context) error {
			atomic.AddInt64(&ran, 1)
			return nil
		})
	}
	errs := p.Wait()
	if ran != 0 {
		t.Fatalf("tasks ran after cancellation: %d", ran)
	}
	if len(errs) != 5 {
		t.Fatalf("want 5 cancellation errors, got %d", len(errs))
	}
}
