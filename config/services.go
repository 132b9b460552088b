package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeWorker runs the queue processing workers.
	ServiceModeWorker ServiceMode = "worker"
	// ServiceModeScheduler runs the source scrape scheduler.
	ServiceModeScheduler ServiceMode = "scheduler"
	// ServiceModeSweeper runs the claim reclaimer and terminal-item pruner.
	ServiceModeSweeper ServiceMode = "sweeper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeWorker,
		ServiceModeScheduler,
		ServiceModeSweeper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeWorker, ServiceModeScheduler, ServiceModeSweeper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: worker, scheduler, sweeper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// WorkerConfig contains queue worker service configuration.
type WorkerConfig struct {
	// Concurrency is the number of worker goroutines.
	Concurrency int `env:"WORKER_CONCURRENCY" envDefault:"4"`

	// Lease is how long a claimed item stays reserved before the sweeper
	// may hand it to another worker.
	Lease time.Duration `env:"WORKER_LEASE" envDefault:"5m"`

	// IdleInterval is the fallback poll interval while the queue is empty.
	IdleInterval time.Duration `env:"WORKER_IDLE_INTERVAL" envDefault:"5s"`
}

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	if w.Concurrency < 1 {
		w.Concurrency = 1
	}
	if w.Lease < 30*time.Second {
		w.Lease = 30 * time.Second
	}
	if w.IdleInterval < time.Second {
		w.IdleInterval = time.Second
	}
}

// LeaseSeconds returns the claim lease in whole seconds.
func (w *WorkerConfig) LeaseSeconds() int {
	return int(w.Lease / time.Second)
}

// SchedulerConfig contains scrape scheduler service configuration.
type SchedulerConfig struct {
	// CronSpec is the tick cadence, in cron syntax or @every form.
	CronSpec string `env:"SCHEDULER_CRON" envDefault:"@every 15m"`

	// ScrapeInterval is how old a source's last scrape may be before the
	// source is due again.
	ScrapeInterval time.Duration `env:"SCHEDULER_SCRAPE_INTERVAL" envDefault:"6h"`

	// BatchSize is the maximum number of sources enqueued per tick.
	BatchSize int `env:"SCHEDULER_BATCH_SIZE" envDefault:"50"`
}

// Sanitize applies guardrails to scheduler configuration values.
func (s *SchedulerConfig) Sanitize() {
	if s.ScrapeInterval < time.Minute {
		s.ScrapeInterval = time.Minute
	}
	if s.BatchSize < 1 {
		s.BatchSize = 1
	}
}

// SweeperConfig contains sweeper service configuration.
type SweeperConfig struct {
	// Interval is the sweep pass interval.
	Interval time.Duration `env:"SWEEPER_INTERVAL" envDefault:"1m"`

	// BatchSize is the maximum number of rows to process per statement.
	// Batching prevents long locks and I/O spikes on large tables.
	BatchSize int `env:"SWEEPER_BATCH_SIZE" envDefault:"100"`

	// SuccessMaxAge is the maximum age for successful items before deletion.
	SuccessMaxAge time.Duration `env:"SWEEPER_SUCCESS_MAX_AGE" envDefault:"168h"` // 7 days

	// SkippedMaxAge is the maximum age for skipped items before deletion.
	SkippedMaxAge time.Duration `env:"SWEEPER_SKIPPED_MAX_AGE" envDefault:"168h"` // 7 days

	// FilteredMaxAge is the maximum age for filtered items before deletion.
	// Filtered items keep their rejection detail inspectable for longer.
	FilteredMaxAge time.Duration `env:"SWEEPER_FILTERED_MAX_AGE" envDefault:"720h"` // 30 days

	// FailedMaxAge is the maximum age for failed items before deletion.
	FailedMaxAge time.Duration `env:"SWEEPER_FAILED_MAX_AGE" envDefault:"720h"` // 30 days
}

// Sanitize applies guardrails to sweeper configuration values.
func (s *SweeperConfig) Sanitize() {
	// Enforce minimum intervals to prevent excessive database load
	if s.Interval < 30*time.Second {
		s.Interval = 30 * time.Second
	}
	if s.SuccessMaxAge < time.Hour {
		s.SuccessMaxAge = time.Hour
	}
	if s.SkippedMaxAge < time.Hour {
		s.SkippedMaxAge = time.Hour
	}
	if s.FilteredMaxAge < time.Hour {
		s.FilteredMaxAge = time.Hour
	}
	if s.FailedMaxAge < time.Hour {
		s.FailedMaxAge = time.Hour
	}

	if s.BatchSize < 1 {
		s.BatchSize = 1
	}
	if s.BatchSize > 10000 {
		s.BatchSize = 10000
	}
}
