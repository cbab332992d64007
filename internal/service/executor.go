package service

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/timmy/analystai/internal/logger"
	"golang.org/x/sync/semaphore"
)

// ErrExecutorClosed is returned by Go after Shutdown has started.
var ErrExecutorClosed = errors.New("executor is shut down")

// Executor runs background jobs without blocking the caller.
// At most maxConcurrent jobs run at once; the rest wait in their own goroutine
// for a slot. Every job gets its own deadline derived from a root context that
// Shutdown cancels.
type Executor struct {
	sem     *semaphore.Weighted
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewExecutor creates an executor.
// Parameters:
//   - parent: root context, normally carrying the process logger.
//   - maxConcurrent: number of jobs allowed to run at once, at least 1.
//   - timeout: deadline for a single job; zero disables it.
//
// Returns:
//   - *Executor: executor ready to accept jobs.
func NewExecutor(parent context.Context, maxConcurrent int64, timeout time.Duration) *Executor {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	ctx, cancel := context.WithCancel(parent)
	return &Executor{
		sem:     semaphore.NewWeighted(maxConcurrent),
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Go schedules fn and returns immediately.
// fn always runs exactly once, even when Shutdown cancels it before a slot frees
// up; in that case its context is already done.
// Parameters:
//   - taskID: identifier attached to the job's log context.
//   - fn: job body; it must honor ctx.
//
// Returns:
//   - error: ErrExecutorClosed if Shutdown has started.
func (e *Executor) Go(taskID string, fn func(ctx context.Context)) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrExecutorClosed
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go e.run(taskID, fn)
	return nil
}

func (e *Executor) run(taskID string, fn func(ctx context.Context)) {
	defer e.wg.Done()

	ctx := logger.SetTaskID(e.ctx, taskID)
	if err := e.sem.Acquire(ctx, 1); err == nil {
		defer e.sem.Release(1)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).WithFields(logger.Fields{
				"recover":             r,
				logger.FieldComponent: "executor",
				"stack":               string(debug.Stack()),
			}).Error("panic recovered")
		}
	}()

	fn(ctx)
}

// Shutdown stops accepting jobs, cancels running and queued ones and waits for
// them to return.
// Parameters:
//   - ctx: bounds the wait.
//
// Returns:
//   - error: ctx.Err() if jobs are still running when ctx ends.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.CtxInfo(e.ctx, "Executor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
