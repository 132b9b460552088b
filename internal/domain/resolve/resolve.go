// Package resolve implements the per-type decision tree that maps the
// current persisted state of an item's subject to the single next operation.
// The resolver only reads snapshots; it never mutates state, so the same
// snapshot always yields the same decision.
package resolve

import (
	"time"

	"github.com/jobscout/jobscout/internal/domain/model"
)

// Snapshot carries the freshly read store state a decision is derived from.
// Only the fields relevant to the item's type need to be populated.
type Snapshot struct {
	Item *model.QueueItem

	// Job is the job record for type=job items, nil before first scrape.
	Job *model.JobRecord

	// Company is the company backing a job item, or the subject record for
	// type=company items. Nil when no record exists yet.
	Company *model.CompanyRecord

	// Source is the subject for type=scrape_source items.
	Source *model.SourceRecord
}

// Decision is the resolver verdict: the operation to perform next and a
// human-readable reason for skip/complete branches.
type Decision struct {
	Op     model.Operation
	Reason string
}

// Options configures a Resolver.
type Options struct {
	// CompanyFreshness is how long a good or excellent company record stays
	// fresh before it is considered stale for re-analysis.
	CompanyFreshness time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Resolver decides the next operation for a queue item.
type Resolver struct {
	freshness time.Duration
	now       func() time.Time
}

// DefaultCompanyFreshness is the stock staleness window for healthy
// company records.
const DefaultCompanyFreshness = 30 * 24 * time.Hour

// New constructs a Resolver.
func New(opts Options) *Resolver {
	if opts.CompanyFreshness <= 0 {
		opts.CompanyFreshness = DefaultCompanyFreshness
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Resolver{freshness: opts.CompanyFreshness, now: opts.Now}
}

// Resolve inspects the snapshot and returns the next operation for the item.
func (r *Resolver) Resolve(snap Snapshot) Decision {
	switch snap.Item.Type {
	case model.ItemTypeJob:
		return r.resolveJob(snap)
	case model.ItemTypeCompany:
		return r.resolveCompany(snap)
	case model.ItemTypeSourceDiscovery:
		return Decision{Op: model.OpDiscover}
	case model.ItemTypeScrapeSource:
		return r.resolveScrapeSource(snap)
	default:
		return Decision{Op: model.OpComplete, Reason: "unknown item type"}
	}
}

// resolveJob walks the job stages in order. Company-dependency resolution
// always takes precedence over stage progression: analysis quality depends
// on company data being present and fresh.
func (r *Resolver) resolveJob(snap Snapshot) Decision {
	if dec, blocked := r.companyDependency(snap); blocked {
		return dec
	}

	job := snap.Job
	switch {
	case job == nil || job.ScrapedData == nil:
		return Decision{Op: model.OpScrape}
	case job.Filter == nil:
		return Decision{Op: model.OpFilter}
	case !job.Filter.Passed:
		return Decision{Op: model.OpComplete, Reason: "filtered out"}
	case job.Analysis == nil:
		return Decision{Op: model.OpAnalyze}
	case snap.Item.Reanalyze && job.AnalyzedAt != nil && job.AnalyzedAt.Before(snap.Item.CreatedAt):
		return Decision{Op: model.OpAnalyze, Reason: "re-analysis requested"}
	default:
		return Decision{Op: model.OpComplete}
	}
}

// companyDependency reports whether the job must block on its company.
// Returns needs_company when the company is missing or stale (the processor
// spawns a company item), or wait_dependency when a company item should
// already be working on it.
func (r *Resolver) companyDependency(snap Snapshot) (Decision, bool) {
	var name string
	if snap.Item.CompanyName != nil {
		name = *snap.Item.CompanyName
	}
	if name == "" && snap.Job != nil && snap.Job.ScrapedData != nil {
		name = snap.Job.ScrapedData.CompanyName
	}
	if name == "" {
		return Decision{}, false
	}

	company := snap.Company
	if company == nil {
		return Decision{Op: model.OpNeedsCompany, Reason: "company record missing"}, true
	}
	if !company.Status.Terminal() {
		return Decision{Op: model.OpWaitDependency, Reason: "company analysis in progress"}, true
	}
	if company.Status == model.CompanyStatusActive && company.Stale(r.now(), r.freshness) {
		return Decision{Op: model.OpNeedsCompany, Reason: "company record stale"}, true
	}
	return Decision{}, false
}

// resolveCompany mirrors the job stage walk over fetch, extract, analyze,
// save, complete. An item carrying the refresh hint re-runs every stage
// whose output predates the item itself; without that, a stale record with
// all stages populated would resolve complete and never re-enrich.
func (r *Resolver) resolveCompany(snap Snapshot) Decision {
	company := snap.Company
	refresh := snap.Item.OperationHint == model.HintRefresh
	switch {
	case company == nil || len(company.RawPages) == 0:
		return Decision{Op: model.OpFetch}
	case refresh && stagePredates(company.FetchedAt, snap.Item.CreatedAt):
		return Decision{Op: model.OpFetch, Reason: "refreshing stale company pages"}
	case company.Info == nil:
		return Decision{Op: model.OpExtract}
	case refresh && stagePredates(company.ExtractedAt, snap.Item.CreatedAt):
		return Decision{Op: model.OpExtract, Reason: "refreshing stale company info"}
	case company.AnalyzedAt == nil:
		return Decision{Op: model.OpAnalyze}
	case refresh && company.AnalyzedAt.Before(snap.Item.CreatedAt):
		return Decision{Op: model.OpAnalyze, Reason: "refreshing stale company summary"}
	case !company.Status.Terminal():
		return Decision{Op: model.OpSave}
	default:
		return Decision{Op: model.OpComplete}
	}
}

// stagePredates treats a missing stage stamp as predating the item.
func stagePredates(stageAt *time.Time, itemCreatedAt time.Time) bool {
	return stageAt == nil || stageAt.Before(itemCreatedAt)
}

func (r *Resolver) resolveScrapeSource(snap Snapshot) Decision {
	source := snap.Source
	switch {
	case source == nil:
		return Decision{Op: model.OpComplete, Reason: "source not found"}
	case source.Status == model.SourceStatusActive,
		source.Status == model.SourceStatusPendingValidation:
		// A pending source validates on its first good scrape; the
		// success path promotes it to active.
		return Decision{Op: model.OpFetchAndSubmit}
	default:
		return Decision{Op: model.OpComplete, Reason: "source " + string(source.Status)}
	}
}
