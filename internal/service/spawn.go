package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
	"github.com/jobscout/jobscout/internal/observability/statsd"
	"github.com/jobscout/jobscout/internal/urlutil"
)

// DefaultMaxSpawnDepth bounds how deep a spawn chain can grow.
const DefaultMaxSpawnDepth = 10

// Spawn rejection check names, used in logs and metrics.
const (
	RejectMaxDepth        = "max_depth"
	RejectCircular        = "circular_dependency"
	RejectDuplicateActive = "duplicate_work"
	RejectAlreadyDone     = "already_complete"
)

// SpawnRejection explains why a spawn candidate was not enqueued. Rejections
// are an expected outcome of the guard, not errors.
type SpawnRejection struct {
	Check  string
	Reason string
}

// SpawnGuardOptions groups dependencies for SpawnGuard.
type SpawnGuardOptions struct {
	Queue     core.QueueRepository     // Required: queue repository
	Jobs      core.JobRecordRepository // Required: job records for the already-done check
	Companies core.CompanyRepository   // Required: company records for the already-done check
	MaxDepth  int                      // Optional: spawn depth bound, defaults to DefaultMaxSpawnDepth
	Freshness time.Duration            // Optional: company freshness window for the already-done check
	Logger    *slog.Logger             // Optional: structured logger
	Sink      statsd.Sink              // Optional: metric sink
	Now       func() time.Time         // Optional: clock override for tests
}

// SpawnGuard is the only path through which an item may create follow-on
// work. It runs four ordered checks before enqueueing: depth bound,
// circular-dependency, duplicate-pending and already-done. The duplicate
// check is advisory; the partial unique index on active items is the
// authoritative backstop under concurrency.
type SpawnGuard struct {
	queue     core.QueueRepository
	jobs      core.JobRecordRepository
	companies core.CompanyRepository
	maxDepth  int
	freshness time.Duration
	logger    *slog.Logger
	sink      statsd.Sink
	now       func() time.Time
}

// NewSpawnGuard constructs a new SpawnGuard.
func NewSpawnGuard(opts SpawnGuardOptions) (*SpawnGuard, error) {
	if opts.Queue == nil {
		return nil, errors.New("QueueRepository is required")
	}
	if opts.Jobs == nil {
		return nil, errors.New("JobRecordRepository is required")
	}
	if opts.Companies == nil {
		return nil, errors.New("CompanyRepository is required")
	}

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxSpawnDepth
	}
	freshness := opts.Freshness
	if freshness <= 0 {
		freshness = 30 * 24 * time.Hour
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "spawn_guard")
	}

	return &SpawnGuard{
		queue:     opts.Queue,
		jobs:      opts.Jobs,
		companies: opts.Companies,
		maxDepth:  maxDepth,
		freshness: freshness,
		logger:    logger,
		sink:      opts.Sink,
		now:       now,
	}, nil
}

// MustNewSpawnGuard constructs a new SpawnGuard and panics on error.
func MustNewSpawnGuard(opts SpawnGuardOptions) *SpawnGuard {
	guard, err := NewSpawnGuard(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create SpawnGuard: %v", err))
	}
	return guard
}

// Spawn runs the guard checks and, if all pass, enqueues the candidate as a
// child of parent: same tracking id, parent appended to the ancestry chain,
// depth incremented. A non-nil rejection means the candidate was declined;
// the error return is reserved for infrastructure failures.
func (g *SpawnGuard) Spawn(ctx context.Context, parent *model.QueueItem, candidate model.SpawnCandidate) (*model.QueueItem, *SpawnRejection, error) {
	if parent == nil {
		return nil, nil, errors.New("parent item is required")
	}
	if !candidate.Type.Valid() {
		return nil, nil, apperrors.Validationf("invalid spawn candidate type: %q", candidate.Type)
	}
	// Every spawn appends one ancestry entry and increments the depth, so
	// the two must agree. A mismatch means the lineage was corrupted and
	// the circularity check cannot be trusted.
	if len(parent.Ancestry) != parent.SpawnDepth {
		return nil, nil, apperrors.LoopPrevention(fmt.Sprintf(
			"item %s carries %d ancestry entries at spawn depth %d",
			parent.ID, len(parent.Ancestry), parent.SpawnDepth))
	}

	url, err := normalizeCandidateURL(candidate)
	if err != nil {
		return nil, nil, apperrors.Validationf("invalid spawn candidate url: %v", err)
	}

	if rejection := g.staticChecks(parent, url, candidate.Type); rejection != nil {
		g.observeRejection(ctx, parent, url, candidate.Type, rejection)
		return nil, rejection, nil
	}

	dup, err := g.queue.HasActiveDuplicate(ctx, core.DuplicateLookupParams{
		TrackingID: parent.TrackingID,
		URL:        url,
		Type:       candidate.Type,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("check active duplicate: %w", err)
	}
	if dup {
		rejection := &SpawnRejection{Check: RejectDuplicateActive, Reason: "active item already exists for this work"}
		g.observeRejection(ctx, parent, url, candidate.Type, rejection)
		return nil, rejection, nil
	}

	rejection, err := g.alreadyDone(ctx, url, candidate)
	if err != nil {
		return nil, nil, err
	}
	if rejection != nil {
		g.observeRejection(ctx, parent, url, candidate.Type, rejection)
		return nil, rejection, nil
	}

	item, err := g.enqueue(ctx, parent, url, candidate)
	if err != nil {
		// A concurrent spawner won the race on the active-item unique
		// index. Treat the loss as a duplicate rejection.
		if apperrors.IsConflict(err) {
			rejection := &SpawnRejection{Check: RejectDuplicateActive, Reason: "lost creation race to a concurrent spawner"}
			g.observeRejection(ctx, parent, url, candidate.Type, rejection)
			return nil, rejection, nil
		}
		return nil, nil, err
	}

	if g.logger != nil {
		g.logger.InfoContext(ctx, "item spawned",
			"id", item.ID,
			"type", item.Type,
			"url", item.URL,
			"parent_id", parent.ID,
			"tracking_id", item.TrackingID,
			"depth", item.SpawnDepth,
		)
	}
	if g.sink != nil {
		g.sink.Count("spawn.accepted", 1, map[string]string{"type": string(item.Type)})
	}

	return item, nil, nil
}

// staticChecks covers depth and circularity, which need nothing but the
// parent item itself.
func (g *SpawnGuard) staticChecks(parent *model.QueueItem, url string, itemType model.ItemType) *SpawnRejection {
	if parent.SpawnDepth+1 > g.maxDepth {
		return &SpawnRejection{
			Check:  RejectMaxDepth,
			Reason: fmt.Sprintf("spawn depth %d exceeds limit %d", parent.SpawnDepth+1, g.maxDepth),
		}
	}

	if (parent.URL == url && parent.Type == itemType) || parent.InAncestry(url, itemType) {
		return &SpawnRejection{
			Check:  RejectCircular,
			Reason: "candidate already appears in the spawn chain",
		}
	}
	return nil
}

// alreadyDone consults the entity records: work whose subject is already
// complete and fresh is not re-enqueued unless re-analysis was requested.
func (g *SpawnGuard) alreadyDone(ctx context.Context, url string, candidate model.SpawnCandidate) (*SpawnRejection, error) {
	if candidate.Reanalyze {
		return nil, nil
	}

	switch candidate.Type {
	case model.ItemTypeJob:
		record, err := g.jobs.GetByURL(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("check job record: %w", err)
		}
		if record.Complete() {
			return &SpawnRejection{Check: RejectAlreadyDone, Reason: "job record already complete"}, nil
		}
	case model.ItemTypeCompany:
		record, err := g.companies.GetByKey(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("check company record: %w", err)
		}
		if record != nil && record.Status == model.CompanyStatusActive && !record.Stale(g.now(), g.freshness) {
			return &SpawnRejection{Check: RejectAlreadyDone, Reason: "company record already complete and fresh"}, nil
		}
	case model.ItemTypeSourceDiscovery, model.ItemTypeScrapeSource:
		// Sources have no completion state; scheduling dedupe is handled
		// by the duplicate-pending check.
	}
	return nil, nil
}

func (g *SpawnGuard) enqueue(ctx context.Context, parent *model.QueueItem, url string, candidate model.SpawnCandidate) (*model.QueueItem, error) {
	ancestry := make([]model.AncestryEntry, 0, len(parent.Ancestry)+1)
	ancestry = append(ancestry, parent.Ancestry...)
	ancestry = append(ancestry, model.AncestryEntry{
		ItemID: parent.ID,
		URL:    parent.URL,
		Type:   parent.Type,
	})

	params := core.CreateItemParams{
		Type:          candidate.Type,
		URL:           url,
		TrackingID:    parent.TrackingID,
		Ancestry:      ancestry,
		SpawnDepth:    parent.SpawnDepth + 1,
		OperationHint: candidate.OperationHint,
		Reanalyze:     candidate.Reanalyze,
		MaxRetries:    parent.MaxRetries,
	}
	if name := strings.TrimSpace(candidate.CompanyName); name != "" {
		params.CompanyName = &name
	}
	if from := strings.TrimSpace(candidate.DiscoveredFrom); from != "" {
		params.DiscoveredFrom = &from
	}

	item, err := g.queue.Create(ctx, params)
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, err
		}
		return nil, fmt.Errorf("enqueue spawned item: %w", err)
	}
	return item, nil
}

func (g *SpawnGuard) observeRejection(ctx context.Context, parent *model.QueueItem, url string, itemType model.ItemType, rejection *SpawnRejection) {
	if g.logger != nil {
		g.logger.InfoContext(ctx, "spawn rejected",
			"check", rejection.Check,
			"reason", rejection.Reason,
			"type", itemType,
			"url", url,
			"parent_id", parent.ID,
			"tracking_id", parent.TrackingID,
		)
	}
	if g.sink != nil {
		g.sink.Count("spawn.rejected", 1, map[string]string{
			"type":  string(itemType),
			"check": rejection.Check,
		})
	}
}

// normalizeCandidateURL canonicalizes the candidate URL. Company candidates
// are keyed by company key rather than URL, so they skip URL normalization.
func normalizeCandidateURL(candidate model.SpawnCandidate) (string, error) {
	if candidate.Type == model.ItemTypeCompany {
		key := strings.TrimSpace(candidate.URL)
		if key == "" {
			key = urlutil.CompanyKey(candidate.CompanyName, "")
		}
		if key == "" {
			return "", errors.New("company candidate needs a key or name")
		}
		return key, nil
	}
	return urlutil.Normalize(candidate.URL)
}
