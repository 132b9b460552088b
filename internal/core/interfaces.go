package core

import (
	"context"
	"time"

	"github.com/jobscout/jobscout/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// CreateItemParams groups the fields needed to persist a new queue item.
type CreateItemParams struct {
	Type           model.ItemType
	URL            string
	TrackingID     string
	Ancestry       []model.AncestryEntry
	SpawnDepth     int
	OperationHint  string
	CompanyName    *string
	DiscoveredFrom *string
	Reanalyze      bool
	MaxRetries     int
}

// RequeueParams groups the fields for releasing a claimed item back to pending.
type RequeueParams struct {
	ID    string
	Delay time.Duration
	// CountRetry increments retry_count and records the error. CountWait
	// increments wait_count for a dependency wait. Neither set is a plain
	// stage-progression reschedule that touches no counter.
	CountRetry bool
	CountWait  bool
	LastError  *string
	ErrorClass *string
}

// TerminalParams groups the fields for moving a claimed item to a terminal status.
type TerminalParams struct {
	ID         string
	Status     model.ItemStatus
	Reasons    []string
	LastError  *string
	ErrorClass *string
}

// DuplicateLookupParams identifies a candidate for the duplicate-pending
// check. An empty TrackingID widens the check to every lineage.
type DuplicateLookupParams struct {
	TrackingID string
	URL        string
	Type       model.ItemType
}

// LineageFailureParams identifies a prior failure to consult before retrying.
type LineageFailureParams struct {
	TrackingID string
	URL        string
	Type       model.ItemType
	ErrorClass string
}

// QueueRepository defines the interface for queue item data operations.
type QueueRepository interface {
	Create(ctx context.Context, params CreateItemParams) (*model.QueueItem, error)
	GetByID(ctx context.Context, id string) (*model.QueueItem, error)
	// ClaimNext atomically transitions the oldest eligible pending item to
	// processing with a claim lease. Returns model.ErrNoItemsAvailable when
	// the queue is empty.
	ClaimNext(ctx context.Context, leaseSeconds int) (*model.QueueItem, error)
	WaitForNotification(ctx context.Context) error
	Requeue(ctx context.Context, params RequeueParams) (bool, error)
	MarkTerminal(ctx context.Context, params TerminalParams) (bool, error)
	// HasActiveDuplicate reports whether another item with the same
	// (url, type) is pending or processing within the lineage, or within
	// any lineage when the tracking id is left empty.
	HasActiveDuplicate(ctx context.Context, params DuplicateLookupParams) (bool, error)
	// FindLineageFailure returns an already-failed item in the lineage with
	// the same (url, type, error_class), or nil when none exists.
	FindLineageFailure(ctx context.Context, params LineageFailureParams) (*model.QueueItem, error)
	Stats(ctx context.Context, itemType model.ItemType) (*model.QueueStats, error)
}

// DeleteOldItemsParams groups parameters for DeleteOldItems to keep param count ≤3.
type DeleteOldItemsParams struct {
	Status    model.ItemStatus
	MaxAge    time.Duration
	BatchSize int
}

// SweeperRepository defines the interface for queue cleanup operations.
type SweeperRepository interface {
	// ReclaimExpired resets processing items whose claim lease has lapsed
	// back to pending. Processes up to batchSize items per call and returns
	// the number reclaimed.
	ReclaimExpired(ctx context.Context, batchSize int) (int64, error)

	// DeleteOldItems deletes terminal items with the given status older than
	// maxAge. Processes up to batchSize items per call.
	DeleteOldItems(ctx context.Context, params DeleteOldItemsParams) (int64, error)
}

// JobRecordRepository defines the interface for job record data operations.
// Stage writes are partial updates; a stage field is never cleared once set.
type JobRecordRepository interface {
	GetByURL(ctx context.Context, url string) (*model.JobRecord, error)
	// EnsureExists creates an empty record for the URL if none exists and
	// returns the current record either way.
	EnsureExists(ctx context.Context, url, companyName string) (*model.JobRecord, error)
	SetScraped(ctx context.Context, url string, fields *model.JobFields) error
	SetFilter(ctx context.Context, url string, result *model.FilterResult) error
	SetAnalysis(ctx context.Context, url string, analysis *model.MatchAnalysis) error
}

// CreateCompanyParams groups the fields for idempotent company creation.
type CreateCompanyParams struct {
	Key     string
	Name    string
	Website string
}

// CompanyStatusTransition is a conditional status update; the write only
// lands when the record is currently in From.
type CompanyStatusTransition struct {
	Key  string
	From model.CompanyStatus
	To   model.CompanyStatus
}

// CompanyRepository defines the interface for company record data operations.
type CompanyRepository interface {
	GetByKey(ctx context.Context, key string) (*model.CompanyRecord, error)
	// CreatePending inserts a pending record if none exists. The bool result
	// reports whether this call created it; concurrent callers see false and
	// get the existing record.
	CreatePending(ctx context.Context, params CreateCompanyParams) (*model.CompanyRecord, bool, error)
	SetRawPages(ctx context.Context, key string, pages []string) error
	SetInfo(ctx context.Context, key string, info *model.CompanyFields) error
	SetSummary(ctx context.Context, key string, summary string) error
	TransitionStatus(ctx context.Context, params CompanyStatusTransition) (bool, error)
}

// SourceRepository defines the interface for source record data operations.
type SourceRepository interface {
	Create(ctx context.Context, req *model.CreateSourceRequest) (*model.SourceRecord, error)
	GetByID(ctx context.Context, id string) (*model.SourceRecord, error)
	GetByURL(ctx context.Context, url string) (*model.SourceRecord, error)
	// ListDue returns active sources whose last scrape is older than the
	// scrape interval, capped at limit.
	ListDue(ctx context.Context, interval time.Duration, limit int) ([]*model.SourceRecord, error)
	// RecordSuccess resets consecutive_failures and stamps last_scraped_at.
	RecordSuccess(ctx context.Context, id string) (*model.SourceRecord, error)
	// RecordFailure increments consecutive_failures and flips the source to
	// disabled once the streak reaches disableThreshold.
	RecordFailure(ctx context.Context, id string, disableThreshold int) (*model.SourceRecord, error)
}

// SeenURLCache is a best-effort cache of job URLs already fanned out from
// source listings. A cache miss is never an error; it only costs a duplicate
// spawn attempt that the spawn guard rejects anyway.
type SeenURLCache interface {
	Seen(ctx context.Context, url string) (bool, error)
	MarkSeen(ctx context.Context, urls []string, ttl time.Duration) error
}

// FetchResult is the raw outcome of a page fetch.
type FetchResult struct {
	HTML       string
	StatusCode int
}

// Scraper defines the external page-fetch collaborator.
type Scraper interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
	// FetchCompanyPages locates and fetches public pages describing a
	// company (about, careers, culture). Website may be empty, in which
	// case the scraper resolves the company by name.
	FetchCompanyPages(ctx context.Context, name, website string) ([]string, error)
}

// Extractor defines the external AI collaborator for structured extraction
// and match analysis.
type Extractor interface {
	ExtractJobFields(ctx context.Context, html string) (*model.JobFields, error)
	ExtractCompanyInfo(ctx context.Context, pages []string) (*model.CompanyFields, error)
	// SummarizeCompany condenses extracted company info into the summary
	// stored on the record.
	SummarizeCompany(ctx context.Context, info *model.CompanyFields) (string, error)
	AnalyzeMatch(ctx context.Context, fields *model.JobFields, profile *model.MatchProfile) (*model.MatchAnalysis, error)
}
