// Package sweeper provides adapters for running the queue sweeper.
package sweeper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jobscout/jobscout/config"
	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/data"
	"github.com/jobscout/jobscout/internal/observability/statsd"
	"github.com/jobscout/jobscout/internal/service"
)

// Runner provides a simple adapter to run the sweeper loop.
// It constructs the sweeper service and runs the reclaim/prune loop.
type Runner struct {
	sweeper *service.SweeperService
	logger  *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB     *sql.DB
	Config config.SweeperConfig
	Logger *slog.Logger

	// Optional dependency injection for testing/decoupling
	Repo    core.SweeperRepository
	Metrics statsd.Sink
}

// NewRunner creates a new sweeper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	sweeper, err := wireSweeperService(opts)
	if err != nil {
		return nil, fmt.Errorf("wire sweeper service: %w", err)
	}

	return &Runner{
		sweeper: sweeper,
		logger:  opts.Logger,
	}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.DB == nil && opts.Repo == nil {
		return errors.New("database connection is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// wireSweeperService wires up all dependencies for the sweeper service.
func wireSweeperService(opts RunnerOptions) (*service.SweeperService, error) {
	repo := opts.Repo
	if repo == nil {
		repo = data.NewQueueRepo(opts.DB, data.QueueRepoConfig{Logger: opts.Logger})
	}

	return service.NewSweeperService(service.SweeperServiceOptions{
		Repo:              repo,
		Interval:          opts.Config.Interval,
		BatchSize:         opts.Config.BatchSize,
		SuccessRetention:  opts.Config.SuccessMaxAge,
		SkippedRetention:  opts.Config.SkippedMaxAge,
		FilteredRetention: opts.Config.FilteredMaxAge,
		FailedRetention:   opts.Config.FailedMaxAge,
		Logger:            opts.Logger,
		Sink:              opts.Metrics,
	})
}

// Run starts the sweeper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting sweeper runner")
	return r.sweeper.Run(ctx)
}
