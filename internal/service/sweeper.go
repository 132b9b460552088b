package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/model"
	"github.com/jobscout/jobscout/internal/observability/statsd"
)

// Sweeper defaults.
const (
	DefaultSweepInterval     = time.Minute
	DefaultSweepJitter       = 10 * time.Second
	DefaultSweepBatchSize    = 100
	DefaultSuccessRetention  = 7 * 24 * time.Hour
	DefaultSkippedRetention  = 7 * 24 * time.Hour
	DefaultFilteredRetention = 30 * 24 * time.Hour
	DefaultFailedRetention   = 30 * 24 * time.Hour
)

// SweeperServiceOptions groups dependencies for SweeperService.
type SweeperServiceOptions struct {
	Repo core.SweeperRepository // Required: sweeper repository

	Interval  time.Duration // Optional: time between sweep passes
	Jitter    time.Duration // Optional: random startup delay spread
	BatchSize int           // Optional: rows handled per statement

	SuccessRetention  time.Duration // Optional: how long finished items stay
	SkippedRetention  time.Duration // Optional: how long skipped items stay
	FilteredRetention time.Duration // Optional: how long filtered items stay
	FailedRetention   time.Duration // Optional: how long failed items stay

	Logger *slog.Logger // Optional: structured logger
	Sink   statsd.Sink  // Optional: metric sink
}

// SweeperService periodically reclaims expired claim leases and prunes old
// terminal items. Both operations take an advisory lock in the repository,
// so running multiple sweeper replicas is safe; extras simply no-op.
type SweeperService struct {
	repo      core.SweeperRepository
	interval  time.Duration
	jitter    time.Duration
	batchSize int
	retention map[model.ItemStatus]time.Duration
	logger    *slog.Logger
	sink      statsd.Sink
}

// NewSweeperService constructs a new SweeperService.
func NewSweeperService(opts SweeperServiceOptions) (*SweeperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("SweeperRepository is required")
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	jitter := opts.Jitter
	if jitter < 0 {
		jitter = 0
	} else if jitter == 0 {
		jitter = DefaultSweepJitter
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultSweepBatchSize
	}

	retention := map[model.ItemStatus]time.Duration{
		model.ItemStatusSuccess:  orDefault(opts.SuccessRetention, DefaultSuccessRetention),
		model.ItemStatusSkipped:  orDefault(opts.SkippedRetention, DefaultSkippedRetention),
		model.ItemStatusFiltered: orDefault(opts.FilteredRetention, DefaultFilteredRetention),
		model.ItemStatusFailed:   orDefault(opts.FailedRetention, DefaultFailedRetention),
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "sweeper")
	}

	return &SweeperService{
		repo:      opts.Repo,
		interval:  interval,
		jitter:    jitter,
		batchSize: batchSize,
		retention: retention,
		logger:    logger,
		sink:      opts.Sink,
	}, nil
}

// MustNewSweeperService constructs a new SweeperService and panics on error.
func MustNewSweeperService(opts SweeperServiceOptions) *SweeperService {
	svc, err := NewSweeperService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create SweeperService: %v", err))
	}
	return svc
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Run executes sweep passes until the context is cancelled. Start is spread
// by a random jitter so replicas do not stampede the advisory locks.
func (s *SweeperService) Run(ctx context.Context) error {
	if err := s.waitWithJitter(ctx); err != nil {
		return suppressContextCancellation(err)
	}

	if err := s.Sweep(ctx); err != nil && !isContextCancellation(err) {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "sweep pass failed", "error", err)
		}
	}

	return suppressContextCancellation(s.runLoop(ctx))
}

func (s *SweeperService) runLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				if isContextCancellation(err) {
					return err
				}
				if s.logger != nil {
					s.logger.ErrorContext(ctx, "sweep pass failed", "error", err)
				}
			}
		}
	}
}

// Sweep runs one full pass: reclaim expired leases, then prune each
// terminal status past its retention window. Every step drains in batches
// until a batch comes back empty.
func (s *SweeperService) Sweep(ctx context.Context) error {
	var errs []error

	reclaimed, err := s.drain(ctx, func(ctx context.Context) (int64, error) {
		return s.repo.ReclaimExpired(ctx, s.batchSize)
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("reclaim expired: %w", err))
	}
	if reclaimed > 0 {
		if s.logger != nil {
			s.logger.InfoContext(ctx, "reclaimed expired claims", "count", reclaimed)
		}
		if s.sink != nil {
			s.sink.Count("sweeper.reclaimed", reclaimed, nil)
		}
	}

	for status, maxAge := range s.retention {
		deleted, derr := s.drain(ctx, func(ctx context.Context) (int64, error) {
			return s.repo.DeleteOldItems(ctx, core.DeleteOldItemsParams{
				Status:    status,
				MaxAge:    maxAge,
				BatchSize: s.batchSize,
			})
		})
		if derr != nil {
			errs = append(errs, fmt.Errorf("delete old %s items: %w", status, derr))
			continue
		}
		if deleted > 0 {
			if s.logger != nil {
				s.logger.InfoContext(ctx, "pruned old items", "status", status, "count", deleted)
			}
			if s.sink != nil {
				s.sink.Count("sweeper.pruned", deleted, map[string]string{"status": string(status)})
			}
		}
	}

	return errors.Join(errs...)
}

// drain repeats a batch operation until it reports no work or the context
// is cancelled.
func (s *SweeperService) drain(ctx context.Context, fn func(context.Context) (int64, error)) (int64, error) {
	var total int64
	for {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		n, err := fn(ctx)
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}
	}
}

func (s *SweeperService) waitWithJitter(ctx context.Context) error {
	if s.jitter <= 0 {
		return nil
	}

	max := big.NewInt(int64(s.jitter))
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return fmt.Errorf("generate jitter: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(n.Int64())):
		return nil
	}
}

func isContextCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
