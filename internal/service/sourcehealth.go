package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/model"
	"github.com/jobscout/jobscout/internal/observability/statsd"
)

// DefaultDisableThreshold is the consecutive-failure streak at which a
// source is taken out of rotation.
const DefaultDisableThreshold = 5

// SourceHealthOptions groups dependencies for SourceHealthService.
type SourceHealthOptions struct {
	Repo             core.SourceRepository // Required: source repository
	DisableThreshold int                   // Optional: failure streak that disables a source
	Logger           *slog.Logger          // Optional: structured logger
	Sink             statsd.Sink           // Optional: metric sink
}

// SourceHealthService tracks scrape outcomes per source. A success resets
// the failure streak and activates sources still pending validation; a
// failure streak reaching the threshold disables the source until an
// operator re-enables it.
type SourceHealthService struct {
	repo      core.SourceRepository
	threshold int
	logger    *slog.Logger
	sink      statsd.Sink
}

// NewSourceHealthService constructs a new SourceHealthService.
func NewSourceHealthService(opts SourceHealthOptions) (*SourceHealthService, error) {
	if opts.Repo == nil {
		return nil, errors.New("SourceRepository is required")
	}

	threshold := opts.DisableThreshold
	if threshold <= 0 {
		threshold = DefaultDisableThreshold
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "source_health")
	}

	return &SourceHealthService{
		repo:      opts.Repo,
		threshold: threshold,
		logger:    logger,
		sink:      opts.Sink,
	}, nil
}

// MustNewSourceHealthService constructs a new SourceHealthService and panics on error.
func MustNewSourceHealthService(opts SourceHealthOptions) *SourceHealthService {
	svc, err := NewSourceHealthService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create SourceHealthService: %v", err))
	}
	return svc
}

// RecordSuccess marks a good scrape: failure streak reset, last-scraped
// stamped, pending-validation sources promoted to active.
func (s *SourceHealthService) RecordSuccess(ctx context.Context, id string) (*model.SourceRecord, error) {
	record, err := s.repo.RecordSuccess(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("record source success: %w", err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "source scrape succeeded",
			"source_id", record.ID,
			"url", record.URL,
			"status", record.Status,
		)
	}
	if s.sink != nil {
		s.sink.Count("source.scrape", 1, map[string]string{
			"source_type": string(record.SourceType),
			"result":      "success",
		})
	}
	return record, nil
}

// RecordFailure marks a failed scrape and disables the source once the
// streak reaches the threshold. Disabling is logged at warn level so the
// event survives in the durable log stream.
func (s *SourceHealthService) RecordFailure(ctx context.Context, id string, cause error) (*model.SourceRecord, error) {
	record, err := s.repo.RecordFailure(ctx, id, s.threshold)
	if err != nil {
		return nil, fmt.Errorf("record source failure: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "source scrape failed",
			"source_id", record.ID,
			"url", record.URL,
			"consecutive_failures", record.ConsecutiveFailures,
			"error", cause,
		)
		if record.Status == model.SourceStatusDisabled {
			s.logger.WarnContext(ctx, "source disabled after repeated failures",
				"source_id", record.ID,
				"url", record.URL,
				"consecutive_failures", record.ConsecutiveFailures,
				"threshold", s.threshold,
			)
		}
	}
	if s.sink != nil {
		s.sink.Count("source.scrape", 1, map[string]string{
			"source_type": string(record.SourceType),
			"result":      "error",
		})
		if record.Status == model.SourceStatusDisabled {
			s.sink.Count("source.disabled", 1, map[string]string{
				"source_type": string(record.SourceType),
			})
		}
	}
	return record, nil
}

// Register creates a new source record from a validated discovery.
func (s *SourceHealthService) Register(ctx context.Context, req *model.CreateSourceRequest) (*model.SourceRecord, error) {
	record, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "source registered",
			"source_id", record.ID,
			"url", record.URL,
			"source_type", record.SourceType,
			"confidence", record.Confidence,
		)
	}
	return record, nil
}

// ListDue proxies to the repository for scheduler use.
func (s *SourceHealthService) ListDue(ctx context.Context, interval time.Duration, limit int) ([]*model.SourceRecord, error) {
	return s.repo.ListDue(ctx, interval, limit)
}
