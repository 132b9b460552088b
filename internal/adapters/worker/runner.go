// Package worker drives the queue processing loop: claim the next item,
// run one pipeline operation, repeat.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/model"
	"github.com/jobscout/jobscout/internal/service"
)

// DefaultIdleInterval is the fallback poll interval used when the
// notification channel is quiet or unavailable.
const DefaultIdleInterval = 5 * time.Second

// RunnerOptions configures the worker runner.
type RunnerOptions struct {
	Processor *service.Processor   // Required: the per-item pipeline
	Queue     core.QueueRepository // Required: wakeup notifications

	Concurrency  int           // Optional: worker goroutines, defaults to 1
	IdleInterval time.Duration // Optional: poll fallback while idle
	Logger       *slog.Logger  // Optional: structured logger
}

// Runner hosts a pool of workers that drain the queue. Idle workers block
// on queue notifications instead of hot-polling; a periodic fallback poll
// covers notifications lost during connection churn.
type Runner struct {
	processor    *service.Processor
	queue        core.QueueRepository
	workers      int
	idleInterval time.Duration
	logger       *slog.Logger
}

// NewRunner constructs a worker Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Processor == nil {
		return nil, errors.New("Processor is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("QueueRepository is required")
	}

	workers := opts.Concurrency
	if workers <= 0 {
		workers = 1
	}
	idle := opts.IdleInterval
	if idle <= 0 {
		idle = DefaultIdleInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		processor:    opts.Processor,
		queue:        opts.Queue,
		workers:      workers,
		idleInterval: idle,
		logger:       logger.With("component", "worker"),
	}, nil
}

// Run starts worker goroutines and processes items until the context is
// cancelled. The first infrastructure error cancels all workers.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting workers", "workers", r.workers)

	// first error wins, cancels all workers
	group, ctx := errgroup.WithContext(ctx)
	for i := 0; i < r.workers; i++ {
		group.Go(func() error {
			return r.workerLoop(ctx)
		})
	}

	return group.Wait()
}

func (r *Runner) workerLoop(ctx context.Context) error {
	for ctx.Err() == nil {
		_, err := r.processor.ProcessNext(ctx)
		switch {
		case err == nil:
		case errors.Is(err, model.ErrNoItemsAvailable):
			if !r.waitForWork(ctx) {
				return nil
			}
		case isCancellation(err):
			return nil
		default:
			return fmt.Errorf("process next: %w", err)
		}
	}
	return nil
}

// waitForWork blocks until a queue notification or the idle fallback fires.
// Returns false when the context is done.
func (r *Runner) waitForWork(ctx context.Context) bool {
	waitCtx, cancel := context.WithTimeout(ctx, r.idleInterval)
	defer cancel()

	err := r.queue.WaitForNotification(waitCtx)
	if err != nil && !isCancellation(err) {
		r.logger.WarnContext(ctx, "queue notification wait failed", "error", err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(r.idleInterval):
		}
	}
	return ctx.Err() == nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
