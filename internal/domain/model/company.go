package model

import (
	"strings"
	"time"
)

// CompanyStatus represents the lifecycle of a company record.
type CompanyStatus string

const (
	// CompanyStatusPending indicates the record exists but has not been analyzed.
	CompanyStatusPending CompanyStatus = "pending"
	// CompanyStatusAnalyzing indicates an item is actively working on the record.
	CompanyStatusAnalyzing CompanyStatus = "analyzing"
	// CompanyStatusActive indicates the record is complete and usable. Terminal.
	CompanyStatusActive CompanyStatus = "active"
	// CompanyStatusFailed indicates enrichment permanently failed. Terminal.
	CompanyStatusFailed CompanyStatus = "failed"
)

// Terminal returns true when no further enrichment happens from this status.
func (s CompanyStatus) Terminal() bool {
	return s == CompanyStatusActive || s == CompanyStatusFailed
}

// CompanyQuality is a coarse classification of how complete a company
// record's descriptive fields are.
type CompanyQuality string

const (
	// QualityPoor means neither about nor culture carries meaningful content.
	QualityPoor CompanyQuality = "poor"
	// QualityMinimal means only sparse content is present.
	QualityMinimal CompanyQuality = "minimal"
	// QualityGood means both about and culture are reasonably filled.
	QualityGood CompanyQuality = "good"
	// QualityExcellent means rich content including a mission statement.
	QualityExcellent CompanyQuality = "excellent"
)

// CompanyFields holds the structured info extracted from company pages.
type CompanyFields struct {
	About     string   `json:"about,omitempty"`
	Culture   string   `json:"culture,omitempty"`
	Mission   string   `json:"mission,omitempty"`
	TechStack []string `json:"tech_stack,omitempty"`
}

// CompanyRecord is the persisted subject for company items, keyed by
// normalized company name. Stage outputs populate incrementally, mirroring
// JobRecord's monotonic accretion.
type CompanyRecord struct {
	Key         string         `json:"key"                   db:"key"`
	Name        string         `json:"name"                  db:"name"`
	Website     string         `json:"website,omitempty"     db:"website"`
	RawPages    []string       `json:"raw_pages,omitempty"   db:"raw_pages"`
	Info        *CompanyFields `json:"info,omitempty"        db:"info"`
	Summary     string         `json:"summary,omitempty"     db:"summary"`
	Status      CompanyStatus  `json:"status"                db:"status"`
	FetchedAt   *time.Time     `json:"fetched_at,omitempty"  db:"fetched_at"`
	ExtractedAt *time.Time     `json:"extracted_at,omitempty" db:"extracted_at"`
	AnalyzedAt  *time.Time     `json:"analyzed_at,omitempty" db:"analyzed_at"`
	CreatedAt   time.Time      `json:"created_at"            db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"            db:"updated_at"`
}

// Quality buckets content completeness. The good bucket is inclusive at its
// lower bounds: about of exactly 100 with culture of exactly 50 is good.
func (c *CompanyRecord) Quality() CompanyQuality {
	var about, culture, mission string
	if c.Info != nil {
		about = c.Info.About
		culture = c.Info.Culture
		mission = c.Info.Mission
	}
	aboutLen := len(strings.TrimSpace(about))
	cultureLen := len(strings.TrimSpace(culture))

	switch {
	case aboutLen > 200 && cultureLen > 100 && strings.TrimSpace(mission) != "":
		return QualityExcellent
	case aboutLen >= 100 && cultureLen >= 50:
		return QualityGood
	case aboutLen > 50 || cultureLen > 25:
		return QualityMinimal
	default:
		return QualityPoor
	}
}

// Stale reports whether the record should be re-enriched. Poor and minimal
// records are always stale; good and excellent records go stale only after
// the freshness window elapses.
func (c *CompanyRecord) Stale(now time.Time, freshness time.Duration) bool {
	switch c.Quality() {
	case QualityPoor, QualityMinimal:
		return true
	default:
		return now.Sub(c.UpdatedAt) > freshness
	}
}
