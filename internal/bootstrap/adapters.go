package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/jobscout/jobscout/config"
	schedrunner "github.com/jobscout/jobscout/internal/adapters/scheduler"
	sweeprunner "github.com/jobscout/jobscout/internal/adapters/sweeper"
	"github.com/jobscout/jobscout/internal/adapters/worker"
	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/data"
	"github.com/jobscout/jobscout/internal/domain/filter"
	"github.com/jobscout/jobscout/internal/observability/statsd"
	"github.com/jobscout/jobscout/internal/service"
)

// WorkerConfig contains configuration for the queue worker.
type WorkerConfig struct {
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
	Worker      config.WorkerConfig
	Pipeline    config.PipelineConfig
	Filter      config.FilterConfig
	Profile     config.ProfileConfig
	Scraper     core.Scraper
	Extractor   core.Extractor
	Metrics     statsd.Sink
}

// RunWorker starts the queue processing workers. The scraper and extractor
// collaborators are external and must be supplied by the caller; without
// them the worker cannot execute fetch or analysis operations.
func RunWorker(ctx context.Context, cfg WorkerConfig) error {
	if cfg.DB == nil {
		return errors.New("database connection is required for worker mode")
	}
	if cfg.Scraper == nil {
		return errors.New("a Scraper implementation is required for worker mode")
	}
	if cfg.Extractor == nil {
		return errors.New("an Extractor implementation is required for worker mode")
	}

	queueRepo := data.NewQueueRepo(cfg.DB, data.QueueRepoConfig{Logger: cfg.Logger})
	jobRepo := data.NewJobRecordRepo(cfg.DB, data.JobRecordRepoConfig{Logger: cfg.Logger})
	companyRepo := data.NewCompanyRepo(cfg.DB, data.CompanyRepoConfig{Logger: cfg.Logger})
	sourceRepo := data.NewSourceRepo(cfg.DB, data.SourceRepoConfig{Logger: cfg.Logger})

	var seenURLs core.SeenURLCache
	if cfg.RedisClient != nil {
		seenURLs = data.NewRedisSeenURLCache(cfg.RedisClient)
	}

	guard, err := service.NewSpawnGuard(service.SpawnGuardOptions{
		Queue:     queueRepo,
		Jobs:      jobRepo,
		Companies: companyRepo,
		MaxDepth:  cfg.Pipeline.MaxSpawnDepth,
		Freshness: cfg.Pipeline.CompanyFreshness,
		Logger:    cfg.Logger,
		Sink:      cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create spawn guard: %w", err)
	}

	sourceHealth, err := service.NewSourceHealthService(service.SourceHealthOptions{
		Repo:             sourceRepo,
		DisableThreshold: cfg.Pipeline.SourceDisableThreshold,
		Logger:           cfg.Logger,
		Sink:             cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create source health service: %w", err)
	}

	processor, err := service.NewProcessor(service.ProcessorOptions{
		Queue:           queueRepo,
		Jobs:            jobRepo,
		Companies:       companyRepo,
		Sources:         sourceRepo,
		Scraper:         cfg.Scraper,
		Extractor:       cfg.Extractor,
		Guard:           guard,
		SourceHealth:    sourceHealth,
		Filter:          filter.NewEngine(cfg.Filter.EngineConfig()),
		Profile:         cfg.Profile.Profile(),
		SeenURLs:        seenURLs,
		Logger:          cfg.Logger,
		Sink:            cfg.Metrics,
		LeaseSeconds:    cfg.Worker.LeaseSeconds(),
		RetryBaseDelay:  cfg.Pipeline.RetryBaseDelay,
		RetryMaxDelay:   cfg.Pipeline.RetryMaxDelay,
		DependencyDelay: cfg.Pipeline.DependencyDelay,
		MaxWaits:        cfg.Pipeline.MaxWaits,
		SeenTTL:         cfg.Pipeline.SeenURLTTL,
	})
	if err != nil {
		return fmt.Errorf("create processor: %w", err)
	}

	runner, err := worker.NewRunner(worker.RunnerOptions{
		Processor:    processor,
		Queue:        queueRepo,
		Concurrency:  cfg.Worker.Concurrency,
		IdleInterval: cfg.Worker.IdleInterval,
		Logger:       cfg.Logger,
	})
	if err != nil {
		return fmt.Errorf("create worker runner: %w", err)
	}

	return runner.Run(ctx)
}

// SchedulerConfig contains configuration for the scrape scheduler.
type SchedulerConfig struct {
	DB        *sql.DB
	Logger    *slog.Logger
	Scheduler config.SchedulerConfig
	Pipeline  config.PipelineConfig
	Metrics   statsd.Sink
}

// RunScheduler starts the scrape scheduler service.
func RunScheduler(ctx context.Context, cfg SchedulerConfig) error {
	if cfg.DB == nil {
		return errors.New("database connection is required for scheduler mode")
	}

	queueRepo := data.NewQueueRepo(cfg.DB, data.QueueRepoConfig{Logger: cfg.Logger})
	sourceRepo := data.NewSourceRepo(cfg.DB, data.SourceRepoConfig{Logger: cfg.Logger})

	sourceHealth, err := service.NewSourceHealthService(service.SourceHealthOptions{
		Repo:             sourceRepo,
		DisableThreshold: cfg.Pipeline.SourceDisableThreshold,
		Logger:           cfg.Logger,
		Sink:             cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create source health service: %w", err)
	}

	queue, err := service.NewQueueService(service.QueueServiceOptions{
		Repo:              queueRepo,
		DefaultMaxRetries: cfg.Pipeline.DefaultMaxRetries,
		Logger:            cfg.Logger,
		Sink:              cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create queue service: %w", err)
	}

	runner, err := schedrunner.NewRunner(schedrunner.RunnerOptions{
		Sources:        sourceHealth,
		Queue:          queue,
		CronSpec:       cfg.Scheduler.CronSpec,
		ScrapeInterval: cfg.Scheduler.ScrapeInterval,
		BatchSize:      cfg.Scheduler.BatchSize,
		Logger:         cfg.Logger,
		Metrics:        cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create scheduler runner: %w", err)
	}

	return runner.Run(ctx)
}

// SweeperRunConfig contains configuration for the sweeper.
type SweeperRunConfig struct {
	DB      *sql.DB
	Logger  *slog.Logger
	Config  config.SweeperConfig
	Metrics statsd.Sink
}

// RunSweeper starts the sweeper service.
func RunSweeper(ctx context.Context, cfg SweeperRunConfig) error {
	runner, err := sweeprunner.NewRunner(sweeprunner.RunnerOptions{
		DB:      cfg.DB,
		Config:  cfg.Config,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create sweeper runner: %w", err)
	}

	return runner.Run(ctx)
}
