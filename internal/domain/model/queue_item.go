// Package model defines the core data types shared across the jobscout pipeline.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ItemType represents the kind of work a queue item carries.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type ItemType string

// ItemStatus represents the current status of a queue item.
type ItemStatus string

const (
	// ItemTypeJob drives a single job posting through scrape, filter and analyze.
	ItemTypeJob ItemType = "job"
	// ItemTypeCompany drives a company profile through fetch, extract, analyze and save.
	ItemTypeCompany ItemType = "company"
	// ItemTypeSourceDiscovery validates a candidate source URL and registers it.
	ItemTypeSourceDiscovery ItemType = "source_discovery"
	// ItemTypeScrapeSource fetches a source listing and fans out job items.
	ItemTypeScrapeSource ItemType = "scrape_source"

	// ItemStatusPending indicates an item is waiting to be claimed.
	ItemStatusPending ItemStatus = "pending"
	// ItemStatusProcessing indicates an item is claimed by a worker.
	ItemStatusProcessing ItemStatus = "processing"
	// ItemStatusFiltered indicates the job was rejected by the strike filter. Terminal.
	ItemStatusFiltered ItemStatus = "filtered"
	// ItemStatusSkipped indicates the item had nothing to do (e.g. disabled source). Terminal.
	ItemStatusSkipped ItemStatus = "skipped"
	// ItemStatusSuccess indicates the item completed all of its stages. Terminal.
	ItemStatusSuccess ItemStatus = "success"
	// ItemStatusFailed indicates the item exhausted retries or hit a permanent error. Terminal.
	ItemStatusFailed ItemStatus = "failed"
)

// ErrNoItemsAvailable is returned when no queue items are available to claim.
var ErrNoItemsAvailable = errors.New("no items available")

// HintRefresh marks a spawned company item as a data refresh: stages whose
// output predates the item are re-run instead of being treated as done.
const HintRefresh = "refresh"

// UnmarshalText implements encoding.TextUnmarshaler for ItemType to allow env parsing.
func (t *ItemType) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	it := ItemType(v)
	if it.Valid() {
		*t = it
		return nil
	}
	return fmt.Errorf("invalid ItemType: %q", v)
}

// Valid returns true if the ItemType is valid.
func (t ItemType) Valid() bool {
	return t == ItemTypeJob || t == ItemTypeCompany ||
		t == ItemTypeSourceDiscovery || t == ItemTypeScrapeSource
}

// Valid returns true if the ItemStatus is valid.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusPending, ItemStatusProcessing, ItemStatusFiltered,
		ItemStatusSkipped, ItemStatusSuccess, ItemStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further processing happens from this status.
func (s ItemStatus) Terminal() bool {
	switch s {
	case ItemStatusFiltered, ItemStatusSkipped, ItemStatusSuccess, ItemStatusFailed:
		return true
	default:
		return false
	}
}

// AncestryEntry identifies one ancestor in an item's spawn chain.
// URL is stored normalized so circularity checks compare like with like.
type AncestryEntry struct {
	ItemID string   `json:"item_id"`
	URL    string   `json:"url"`
	Type   ItemType `json:"type"`
}

// QueueItem is one unit of work. All pipeline state lives in the entity
// records; the item only carries identity, lineage and retry bookkeeping.
type QueueItem struct {
	ID             string          `json:"id"                        db:"id"`
	Type           ItemType        `json:"type"                      db:"type"`
	URL            string          `json:"url"                       db:"url"`
	Status         ItemStatus      `json:"status"                    db:"status"`
	TrackingID     string          `json:"tracking_id"               db:"tracking_id"`
	Ancestry       []AncestryEntry `json:"ancestry"                  db:"ancestry"`
	SpawnDepth     int             `json:"spawn_depth"               db:"spawn_depth"`
	OperationHint  string          `json:"operation_hint,omitempty"  db:"operation_hint"`
	DiscoveredFrom *string         `json:"discovered_from,omitempty" db:"discovered_from"`
	CompanyName    *string         `json:"company_name,omitempty"    db:"company_name"`
	Reanalyze      bool            `json:"reanalyze"                 db:"reanalyze"`
	RetryCount     int             `json:"retry_count"               db:"retry_count"`
	MaxRetries     int             `json:"max_retries"               db:"max_retries"`
	WaitCount      int             `json:"wait_count"                db:"wait_count"`
	LastError      *string         `json:"last_error,omitempty"      db:"last_error"`
	ErrorClass     *string         `json:"error_class,omitempty"     db:"error_class"`
	Reasons        []string        `json:"reasons,omitempty"         db:"reasons"`
	ScheduledAt    time.Time       `json:"scheduled_at"              db:"scheduled_at"`
	ClaimExpiresAt *time.Time      `json:"claim_expires_at,omitempty" db:"claim_expires_at"`
	CreatedAt      time.Time       `json:"created_at"                db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"                db:"updated_at"`
}

// InAncestry reports whether the given normalized (url, type) pair already
// appears anywhere in the item's spawn chain.
func (q *QueueItem) InAncestry(url string, itemType ItemType) bool {
	for _, entry := range q.Ancestry {
		if entry.URL == url && entry.Type == itemType {
			return true
		}
	}
	return false
}

// AncestryJSON renders the ancestry chain for storage in a JSONB column.
func (q *QueueItem) AncestryJSON() (json.RawMessage, error) {
	if len(q.Ancestry) == 0 {
		return json.RawMessage(`[]`), nil
	}
	raw, err := json.Marshal(q.Ancestry)
	if err != nil {
		return nil, fmt.Errorf("marshal ancestry: %w", err)
	}
	return raw, nil
}

// SubmitRequest is the external submission surface for new root items.
type SubmitRequest struct {
	Type        ItemType `json:"type"`
	URL         string   `json:"url"`
	CompanyName string   `json:"company_name,omitempty"`
	Reanalyze   bool     `json:"allow_reanalysis,omitempty"`
	MaxRetries  int      `json:"max_retries,omitempty"`
}

// Validate validates the SubmitRequest fields.
func (r *SubmitRequest) Validate() error {
	if !r.Type.Valid() {
		return errors.New("invalid item type")
	}
	if strings.TrimSpace(r.URL) == "" {
		return errors.New("url is required")
	}
	if r.MaxRetries < 0 {
		return errors.New("max retries must be >= 0")
	}
	return nil
}

// SpawnCandidate describes a follow-on item a parent wants to create.
type SpawnCandidate struct {
	Type           ItemType
	URL            string
	CompanyName    string
	DiscoveredFrom string
	OperationHint  string
	Reanalyze      bool
}

// QueueStats holds per-status counts for one item type.
type QueueStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Filtered   int `json:"filtered"`
	Skipped    int `json:"skipped"`
	Success    int `json:"success"`
	Failed     int `json:"failed"`
}
