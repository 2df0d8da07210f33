// Package queue provides a bounded in-process worker pool for fanning
// independent tasks out across goroutines.
package queue

import (
	"context"
	"sync"
)

// Task is a unit of work submitted to the pool.
type Task func(ctx context.Context) error

// PoolConfig contains the configuration for the pool.
type PoolConfig struct {
	Workers   int // number of workers
	QueueSize int // size of the pending task buffer
}

// Pool runs submitted tasks on a fixed set of workers. Submit and Wait must
// not be interleaved from multiple goroutines.
type Pool struct {
	tasks  chan Task
	wg     sync.WaitGroup
	mu     sync.Mutex
	errs   []error
	cancel context.CancelFunc
}

// NewPool starts the workers. The pool is bound to ctx; cancelling it makes
// remaining tasks return early.
func NewPool(ctx context.Context, cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 2
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		tasks:  make(chan Task, cfg.QueueSize),
		cancel: cancel,
	}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	return p
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for task := range p.tasks {
		if err := ctx.Err(); err != nil {
			p.record(err)
			continue
		}
		if err := task(ctx); err != nil {
			p.record(err)
		}
	}
}

func (p *Pool) record(err error) {
	p.mu.Lock()
	p.errs = append(p.errs, err)
	p.mu.Unlock()
}

// Submit enqueues a task. It blocks when the buffer is full.
func (p *Pool) Submit(task Task) {
	p.tasks <- task
}

// Wait closes the pool, waits for all submitted tasks and returns their
// errors. The pool cannot be reused afterwards.
func (p *Pool) Wait() []error {
	close(p.tasks)
	p.wg.Wait()
	p.cancel()
	return p.errs
}
