package orchestrator

import (
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
)

// WorkerPool bounds the number of concurrent entry sends
type WorkerPool struct {
	pool   *ants.Pool
	logger *slog.Logger
}

func NewWorkerPool(size int, logger *slog.Logger) (*WorkerPool, error) {
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	return &WorkerPool{
		pool:   pool,
		logger: logger,
	}, nil
}

// Submit queues task, blocking while every worker is busy
func (p *WorkerPool) Submit(task func()) error {
	return p.pool.Submit(task)
}

// Shutdown stops accepting tasks and waits up to timeout for running ones
func (p *WorkerPool) Shutdown(timeout time.Duration) {
	p.logger.Info("Shutting down worker pool", "running_workers", p.pool.Running())
	if err := p.pool.ReleaseTimeout(timeout); err != nil {
		p.logger.Warn("Worker pool did not drain before timeout", "error", err)
	}
}

// Running returns the number of running workers in the pool.
func (p *WorkerPool) Running() int {
	return p.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (p *WorkerPool) Capacity() int {
	return p.pool.Cap()
}
