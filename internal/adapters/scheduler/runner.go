// Package scheduler periodically enqueues scrape items for sources that
// are due for a fresh listing pass.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
	"github.com/jobscout/jobscout/internal/observability/metrics"
	"github.com/jobscout/jobscout/internal/observability/statsd"
	"github.com/jobscout/jobscout/internal/service"
)

// Scheduler defaults.
const (
	DefaultCronSpec       = "@every 15m"
	DefaultScrapeInterval = 6 * time.Hour
	DefaultBatchSize      = 50
)

// RunnerOptions configures the scheduler runner.
type RunnerOptions struct {
	Sources *service.SourceHealthService // Required: due-source listing
	Queue   *service.QueueService        // Required: item submission

	CronSpec       string        // Optional: cron expression for tick cadence
	ScrapeInterval time.Duration // Optional: staleness window per source
	BatchSize      int           // Optional: max sources enqueued per tick
	Logger         *slog.Logger  // Optional: structured logger
	Metrics        statsd.Sink   // Optional: metric sink
}

// Runner drives the scrape schedule. Each tick lists sources whose last
// scrape is older than the scrape interval and submits one scrape item per
// source. Before submitting, the runner checks the queue for live work on
// the same source, so overlapping ticks do not stack duplicate items.
type Runner struct {
	sources        *service.SourceHealthService
	queue          *service.QueueService
	spec           string
	scrapeInterval time.Duration
	batchSize      int
	logger         *slog.Logger
	metrics        statsd.Sink
}

// NewRunner constructs a scheduler Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Sources == nil {
		return nil, errors.New("SourceHealthService is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("QueueService is required")
	}

	spec := opts.CronSpec
	if spec == "" {
		spec = DefaultCronSpec
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}

	interval := opts.ScrapeInterval
	if interval <= 0 {
		interval = DefaultScrapeInterval
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		sources:        opts.Sources,
		queue:          opts.Queue,
		spec:           spec,
		scrapeInterval: interval,
		batchSize:      batchSize,
		logger:         logger.With("component", "scheduler"),
		metrics:        opts.Metrics,
	}, nil
}

// Run ticks on the configured cron schedule until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting scheduler",
		"cron", r.spec,
		"scrape_interval", r.scrapeInterval,
		"batch_size", r.batchSize,
	)

	c := cron.New()
	if _, err := c.AddFunc(r.spec, func() {
		start := time.Now()
		enqueued, err := r.Tick(ctx)
		r.emitTickMetrics(enqueued, time.Since(start), err)

		if err != nil && !errors.Is(err, context.Canceled) {
			r.logger.ErrorContext(ctx, "scheduler tick failed", "error", err)
		} else if enqueued > 0 {
			r.logger.InfoContext(ctx, "enqueued due sources", "count", enqueued)
		}
	}); err != nil {
		return fmt.Errorf("register cron entry: %w", err)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Tick enqueues one scrape item per due source and returns how many were
// actually submitted. A source already sitting in the queue counts as
// skipped, not as an error.
func (r *Runner) Tick(ctx context.Context) (int, error) {
	due, err := r.sources.ListDue(ctx, r.scrapeInterval, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list due sources: %w", err)
	}

	enqueued := 0
	for _, source := range due {
		if ctx.Err() != nil {
			return enqueued, ctx.Err()
		}

		busy, berr := r.queue.HasActiveWork(ctx, model.ItemTypeScrapeSource, source.URL)
		if berr != nil {
			return enqueued, fmt.Errorf("check queued work for %s: %w", source.URL, berr)
		}
		if busy {
			// still in flight from a previous tick
			r.logger.DebugContext(ctx, "source already queued",
				"source_id", source.ID,
				"url", source.URL,
			)
			continue
		}

		item, serr := r.queue.Submit(ctx, &model.SubmitRequest{
			Type: model.ItemTypeScrapeSource,
			URL:  source.URL,
		})
		if serr != nil {
			return enqueued, fmt.Errorf("submit scrape item for %s: %w", source.URL, serr)
		}
		enqueued++
		r.logger.DebugContext(ctx, "scrape item submitted",
			"source_id", source.ID,
			"url", source.URL,
			"item_id", item.ID,
		)
	}
	return enqueued, nil
}

func (r *Runner) emitTickMetrics(enqueued int, elapsed time.Duration, err error) {
	if r.metrics == nil {
		return
	}

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	} else if enqueued == 0 {
		result = metrics.ResultNoop
	}

	tags := map[string]string{"result": result}
	if err != nil {
		if class := apperrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	r.metrics.Count("scheduler.tick", 1, tags)
	if enqueued > 0 {
		r.metrics.Count("scheduler.sources_enqueued", int64(enqueued), tags)
	}
	if elapsed > 0 {
		r.metrics.Timing("scheduler.tick_duration", elapsed, metrics.CloneTags(tags))
	}
	if err == nil {
		r.metrics.Gauge("scheduler.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}
