package model

// Operation is the single next atomic step the resolver picks for an item.
// The processor's dispatch switch matches this enum exhaustively; adding a
// value without a handler is a bug the compiler-assisted switch surfaces
// immediately in tests.
type Operation string

const (
	// OpScrape fetches a job posting and extracts its fields.
	OpScrape Operation = "scrape"
	// OpFilter runs the strike filter over extracted job fields.
	OpFilter Operation = "filter"
	// OpAnalyze runs the AI match analysis for a job, or the profile
	// analysis for a company.
	OpAnalyze Operation = "analyze"
	// OpSave marks a company record active after analysis.
	OpSave Operation = "save"
	// OpFetch fetches company pages.
	OpFetch Operation = "fetch"
	// OpExtract extracts structured company info from fetched pages.
	OpExtract Operation = "extract"
	// OpDiscover validates a candidate source URL and registers it.
	OpDiscover Operation = "discover"
	// OpFetchAndSubmit fetches a source listing and fans out job items.
	OpFetchAndSubmit Operation = "fetch_and_submit"
	// OpNeedsCompany signals the processor to spawn a company dependency
	// and requeue the job with backoff.
	OpNeedsCompany Operation = "needs_company"
	// OpWaitDependency signals a spawned dependency is still in flight.
	OpWaitDependency Operation = "wait_dependency"
	// OpComplete signals the item is terminal and nothing remains to do.
	OpComplete Operation = "complete"
)

// Valid returns true if the Operation is a known value.
func (o Operation) Valid() bool {
	switch o {
	case OpScrape, OpFilter, OpAnalyze, OpSave, OpFetch, OpExtract,
		OpDiscover, OpFetchAndSubmit, OpNeedsCompany, OpWaitDependency, OpComplete:
		return true
	default:
		return false
	}
}
