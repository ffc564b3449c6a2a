package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// defaultTaskTimeout bounds a single background task. HTTP timeouts never
// cancel a task; only this deadline or process shutdown does.
const defaultTaskTimeout = 10 * time.Minute

// TaskRunner runs agent work as fire-and-forget background tasks detached
// from the request context. Panics are recovered and logged.
type TaskRunner struct {
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewTaskRunner(log *zap.Logger) *TaskRunner {
	return &TaskRunner{log: log, timeout: defaultTaskTimeout}
}

// Go schedules fn on its own goroutine with a fresh context. The caller
// returns immediately.
func (r *TaskRunner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("background task panicked",
					zap.String("task", name),
					zap.Any("panic", rec))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			r.log.Error("background task failed",
				zap.String("task", name),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return
		}
		r.log.Info("background task finished",
			zap.String("task", name),
			zap.Duration("elapsed", time.Since(start)))
	}()
}

// Wait blocks until all scheduled tasks finish. Used on shutdown.
func (r *TaskRunner) Wait() {
	r.wg.Wait()
}
