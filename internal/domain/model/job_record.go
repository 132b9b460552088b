package model

import "time"

// RemotePolicy classifies how a posting handles remote work.
type RemotePolicy string

const (
	// RemotePolicyFull means fully remote.
	RemotePolicyFull RemotePolicy = "remote"
	// RemotePolicyHybrid means some days on site in a named city.
	RemotePolicyHybrid RemotePolicy = "hybrid"
	// RemotePolicyOnsite means in-office only.
	RemotePolicyOnsite RemotePolicy = "onsite"
	// RemotePolicyUnknown means the posting does not say.
	RemotePolicyUnknown RemotePolicy = "unknown"
)

// JobFields holds the structured fields extracted from a scraped posting.
// Optional numeric fields are pointers: absence of data is neutral and must
// never be conflated with zero.
type JobFields struct {
	Title           string       `json:"title"`
	CompanyName     string       `json:"company_name"`
	Location        string       `json:"location,omitempty"`
	Description     string       `json:"description,omitempty"`
	SalaryMin       *int         `json:"salary_min,omitempty"`
	SalaryMax       *int         `json:"salary_max,omitempty"`
	RemotePolicy    RemotePolicy `json:"remote_policy,omitempty"`
	HybridCity      string       `json:"hybrid_city,omitempty"`
	TechStack       []string     `json:"tech_stack,omitempty"`
	ExperienceYears *int         `json:"experience_years,omitempty"`
	PostedAt        *time.Time   `json:"posted_at,omitempty"`
}

// SalaryCeiling returns the maximum of any stated salary range and whether a
// salary was stated at all. Floor and threshold comparisons always use the
// range maximum.
func (f *JobFields) SalaryCeiling() (int, bool) {
	switch {
	case f.SalaryMax != nil:
		return *f.SalaryMax, true
	case f.SalaryMin != nil:
		return *f.SalaryMin, true
	default:
		return 0, false
	}
}

// RejectionKind distinguishes fatal rejections from accumulated strikes.
type RejectionKind string

const (
	// RejectionHard is an immediate, non-accumulating filter failure.
	RejectionHard RejectionKind = "hard"
	// RejectionStrike is a weighted point toward the strike threshold.
	RejectionStrike RejectionKind = "strike"
)

// Rejection records a single filter rule firing, kept even when the job
// ultimately passes so callers can always explain the outcome.
type Rejection struct {
	Kind     RejectionKind `json:"kind"`
	Category string        `json:"category"`
	Rule     string        `json:"rule"`
	Reason   string        `json:"reason"`
	Points   int           `json:"points"`
}

// FilterResult is the strike filter verdict for a job.
type FilterResult struct {
	Passed       bool        `json:"passed"`
	Rejections   []Rejection `json:"rejections"`
	TotalStrikes int         `json:"total_strikes"`
}

// Reasons renders the rejection list as human-readable strings for terminal
// item records.
func (r *FilterResult) Reasons() []string {
	if len(r.Rejections) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.Rejections))
	for _, rej := range r.Rejections {
		out = append(out, rej.Category+": "+rej.Reason)
	}
	return out
}

// MatchAnalysis is the AI match verdict for a job against the user profile.
type MatchAnalysis struct {
	Score         int      `json:"score"`
	Rationale     string   `json:"rationale"`
	MatchedSkills []string `json:"matched_skills,omitempty"`
}

// JobRecord is the persisted subject for job items, keyed by normalized URL.
// Fields populate monotonically: once a stage output is written it is never
// cleared except through an explicit re-analysis request.
type JobRecord struct {
	URL         string         `json:"url"                    db:"url"`
	CompanyName string         `json:"company_name,omitempty" db:"company_name"`
	ScrapedData *JobFields     `json:"scraped_data,omitempty" db:"scraped_data"`
	Filter      *FilterResult  `json:"filter_result,omitempty" db:"filter_result"`
	Analysis    *MatchAnalysis `json:"analysis,omitempty"     db:"analysis"`
	ScrapedAt   *time.Time     `json:"scraped_at,omitempty"   db:"scraped_at"`
	FilteredAt  *time.Time     `json:"filtered_at,omitempty"  db:"filtered_at"`
	AnalyzedAt  *time.Time     `json:"analyzed_at,omitempty"  db:"analyzed_at"`
	CreatedAt   time.Time      `json:"created_at"             db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"             db:"updated_at"`
}

// Complete reports whether the record is terminal for the pipeline: either
// fully analyzed or rejected by the filter.
func (j *JobRecord) Complete() bool {
	if j == nil {
		return false
	}
	if j.Filter != nil && !j.Filter.Passed {
		return true
	}
	return j.Analysis != nil
}

// MatchProfile is the user profile the analyzer scores jobs against.
type MatchProfile struct {
	Skills           []string `json:"skills"`
	PreferredTitles  []string `json:"preferred_titles,omitempty"`
	MinYearsRelevant int      `json:"min_years_relevant,omitempty"`
	Summary          string   `json:"summary,omitempty"`
}
