package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
	"github.com/jobscout/jobscout/internal/observability/statsd"
	"github.com/jobscout/jobscout/internal/urlutil"
)

// DefaultSubmitMaxRetries is applied to submissions that do not set their
// own retry budget.
const DefaultSubmitMaxRetries = 3

// QueueServiceOptions groups dependencies for QueueService.
type QueueServiceOptions struct {
	Repo              core.QueueRepository // Required: queue repository
	DefaultMaxRetries int                  // Optional: retry budget for submissions that omit one
	Logger            *slog.Logger         // Optional: structured logger
	Sink              statsd.Sink          // Optional: metric sink
}

// QueueService is the external submission surface for the pipeline. Every
// submission becomes a root item: fresh tracking id, empty ancestry, depth
// zero. Follow-on items are only ever created through the spawn guard.
type QueueService struct {
	repo              core.QueueRepository
	defaultMaxRetries int
	logger            *slog.Logger
	sink              statsd.Sink
}

// NewQueueService constructs a new QueueService.
func NewQueueService(opts QueueServiceOptions) (*QueueService, error) {
	if opts.Repo == nil {
		return nil, errors.New("QueueRepository is required")
	}

	defaultMaxRetries := opts.DefaultMaxRetries
	if defaultMaxRetries <= 0 {
		defaultMaxRetries = DefaultSubmitMaxRetries
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "queue_service")
	}

	return &QueueService{
		repo:              opts.Repo,
		defaultMaxRetries: defaultMaxRetries,
		logger:            logger,
		sink:              opts.Sink,
	}, nil
}

// MustNewQueueService constructs a new QueueService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewQueueService(opts QueueServiceOptions) *QueueService {
	svc, err := NewQueueService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create QueueService: %v", err))
	}
	return svc
}

// Submit validates and enqueues a new root item. The URL is normalized
// before storage so duplicate checks and ancestry entries always compare
// canonical forms.
func (s *QueueService) Submit(ctx context.Context, req *model.SubmitRequest) (*model.QueueItem, error) {
	if req == nil {
		return nil, apperrors.Validation("submit request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	url, err := urlutil.Normalize(req.URL)
	if err != nil {
		return nil, apperrors.Validationf("invalid url: %v", err)
	}

	maxRetries := req.MaxRetries
	if maxRetries == 0 {
		maxRetries = s.defaultMaxRetries
	}

	params := core.CreateItemParams{
		Type:       req.Type,
		URL:        url,
		TrackingID: uuid.New().String(),
		Reanalyze:  req.Reanalyze,
		MaxRetries: maxRetries,
	}
	if name := strings.TrimSpace(req.CompanyName); name != "" {
		params.CompanyName = &name
	}

	item, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("submit item: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "item submitted",
			"id", item.ID,
			"type", item.Type,
			"url", item.URL,
			"tracking_id", item.TrackingID,
		)
	}
	if s.sink != nil {
		s.sink.Count("queue.submitted", 1, map[string]string{"type": string(item.Type)})
	}

	return item, nil
}

// HasActiveWork reports whether any pending or processing item already
// covers the given (url, type), across all lineages. Periodic submitters
// use it to avoid stacking duplicate root items for the same work.
func (s *QueueService) HasActiveWork(ctx context.Context, itemType model.ItemType, rawURL string) (bool, error) {
	if !itemType.Valid() {
		return false, apperrors.Validationf("invalid item type: %q", itemType)
	}
	url, err := urlutil.Normalize(rawURL)
	if err != nil {
		return false, apperrors.Validationf("invalid url: %v", err)
	}
	return s.repo.HasActiveDuplicate(ctx, core.DuplicateLookupParams{
		URL:  url,
		Type: itemType,
	})
}

// GetByID retrieves a queue item by its ID.
func (s *QueueService) GetByID(ctx context.Context, id string) (*model.QueueItem, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.Validation("item id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// Stats returns per-status counts for the given item type.
func (s *QueueService) Stats(ctx context.Context, itemType model.ItemType) (*model.QueueStats, error) {
	if !itemType.Valid() {
		return nil, apperrors.Validationf("invalid item type: %q", itemType)
	}
	return s.repo.Stats(ctx, itemType)
}
