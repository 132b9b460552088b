package model

import (
	"errors"
	"strings"
	"time"
)

// SourceType classifies how a job source is scraped.
type SourceType string

const (
	// SourceTypeGreenhouse is a Greenhouse ATS board.
	SourceTypeGreenhouse SourceType = "greenhouse"
	// SourceTypeWorkday is a Workday ATS board.
	SourceTypeWorkday SourceType = "workday"
	// SourceTypeLever is a Lever ATS board.
	SourceTypeLever SourceType = "lever"
	// SourceTypeRSS is an RSS or Atom feed of postings.
	SourceTypeRSS SourceType = "rss"
	// SourceTypeAPI is a JSON API returning listings.
	SourceTypeAPI SourceType = "api"
	// SourceTypeGenericHTML is a plain careers page.
	SourceTypeGenericHTML SourceType = "generic_html"
)

// Valid returns true if the SourceType is a known value.
func (t SourceType) Valid() bool {
	switch t {
	case SourceTypeGreenhouse, SourceTypeWorkday, SourceTypeLever,
		SourceTypeRSS, SourceTypeAPI, SourceTypeGenericHTML:
		return true
	default:
		return false
	}
}

// SourceStatus represents the lifecycle of a registered source.
type SourceStatus string

const (
	// SourceStatusPendingValidation means the source was registered but not yet scraped.
	SourceStatusPendingValidation SourceStatus = "pending_validation"
	// SourceStatusActive means the source is eligible for scheduled scrapes.
	SourceStatusActive SourceStatus = "active"
	// SourceStatusDisabled means the failure streak hit the disable threshold.
	// Re-enabling requires an explicit operator action.
	SourceStatusDisabled SourceStatus = "disabled"
	// SourceStatusFailed means the source never validated.
	SourceStatusFailed SourceStatus = "failed"
)

// SourceConfidence grades how sure discovery was about the source type.
type SourceConfidence string

const (
	// ConfidenceHigh means the URL matched a known ATS signature.
	ConfidenceHigh SourceConfidence = "high"
	// ConfidenceMedium means the URL matched a weaker structural hint.
	ConfidenceMedium SourceConfidence = "medium"
	// ConfidenceLow means the URL was accepted as a generic page.
	ConfidenceLow SourceConfidence = "low"
)

// SourceRecord is a registered job source.
type SourceRecord struct {
	ID                  string           `json:"id"                        db:"id"`
	URL                 string           `json:"url"                       db:"url"`
	SourceType          SourceType       `json:"source_type"               db:"source_type"`
	Status              SourceStatus     `json:"status"                    db:"status"`
	Confidence          SourceConfidence `json:"confidence"                db:"confidence"`
	ConsecutiveFailures int              `json:"consecutive_failures"      db:"consecutive_failures"`
	LastScrapedAt       *time.Time       `json:"last_scraped_at,omitempty" db:"last_scraped_at"`
	CreatedAt           time.Time        `json:"created_at"                db:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"                db:"updated_at"`
}

// CreateSourceRequest registers a new source after discovery validation.
type CreateSourceRequest struct {
	URL        string           `json:"url"`
	SourceType SourceType       `json:"source_type"`
	Status     SourceStatus     `json:"status"`
	Confidence SourceConfidence `json:"confidence"`
}

// Validate validates the CreateSourceRequest fields.
func (r *CreateSourceRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return errors.New("url is required")
	}
	if !r.SourceType.Valid() {
		return errors.New("invalid source type")
	}
	return nil
}

// DueForScrape reports whether the source should be scheduled for a scrape.
// Disabled and failed sources are never due.
func (s *SourceRecord) DueForScrape(now time.Time, interval time.Duration) bool {
	if s.Status != SourceStatusActive {
		return false
	}
	if s.LastScrapedAt == nil {
		return true
	}
	return now.Sub(*s.LastScrapedAt) >= interval
}
