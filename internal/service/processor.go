package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/discovery"
	"github.com/jobscout/jobscout/internal/domain/filter"
	"github.com/jobscout/jobscout/internal/domain/model"
	"github.com/jobscout/jobscout/internal/domain/resolve"
	apperrors "github.com/jobscout/jobscout/internal/errors"
	"github.com/jobscout/jobscout/internal/observability/metrics"
	"github.com/jobscout/jobscout/internal/observability/statsd"
	"github.com/jobscout/jobscout/internal/urlutil"
)

// Processor defaults.
const (
	DefaultLeaseSeconds    = 300
	DefaultRetryBaseDelay  = 30 * time.Second
	DefaultRetryMaxDelay   = 30 * time.Minute
	DefaultDependencyDelay = time.Minute
	DefaultMaxWaits        = 60
	DefaultSeenTTL         = 7 * 24 * time.Hour
)

// ProcessorOptions groups dependencies for Processor.
type ProcessorOptions struct {
	Queue        core.QueueRepository     // Required: queue repository
	Jobs         core.JobRecordRepository // Required: job record repository
	Companies    core.CompanyRepository   // Required: company record repository
	Sources      core.SourceRepository    // Required: source repository
	Scraper      core.Scraper             // Required: page fetcher
	Extractor    core.Extractor           // Required: AI extraction and analysis
	Guard        *SpawnGuard              // Required: spawn guard
	SourceHealth *SourceHealthService     // Required: source health tracker
	Filter       *filter.Engine           // Required: strike filter engine
	Profile      *model.MatchProfile      // Required: profile jobs are scored against

	Resolver *resolve.Resolver    // Optional: decision resolver, defaults to resolve.New
	Listings *discovery.Extractor // Optional: listing URL extractor
	SeenURLs core.SeenURLCache    // Optional: fan-out dedupe cache
	Logger   *slog.Logger         // Optional: structured logger
	Sink     statsd.Sink          // Optional: metric sink

	LeaseSeconds    int           // Optional: claim lease, defaults to DefaultLeaseSeconds
	RetryBaseDelay  time.Duration // Optional: first retry delay
	RetryMaxDelay   time.Duration // Optional: backoff ceiling
	DependencyDelay time.Duration // Optional: requeue delay while waiting on a dependency
	MaxWaits        int           // Optional: dependency wait bound before failing
	SeenTTL         time.Duration // Optional: seen-URL cache TTL
}

// Result reports what one processing pass did with an item.
type Result struct {
	Item *model.QueueItem
	Op   model.Operation

	// Status is the terminal status reached, or empty when the item was
	// requeued for its next stage.
	Status   model.ItemStatus
	Requeued bool
	Reasons  []string
}

// Processor claims queue items and performs exactly one atomic operation
// per claim: resolve the next operation from stored state, execute it,
// persist the output, then either requeue the item or finish it. Crash
// recovery falls out of this shape: a lost worker only loses the claim
// lease, never pipeline state.
type Processor struct {
	queue        core.QueueRepository
	jobs         core.JobRecordRepository
	companies    core.CompanyRepository
	sources      core.SourceRepository
	scraper      core.Scraper
	extractor    core.Extractor
	guard        *SpawnGuard
	sourceHealth *SourceHealthService
	filter       *filter.Engine
	profile      *model.MatchProfile
	resolver     *resolve.Resolver
	listings     *discovery.Extractor
	seen         core.SeenURLCache
	logger       *slog.Logger
	sink         statsd.Sink

	leaseSeconds    int
	retryBaseDelay  time.Duration
	retryMaxDelay   time.Duration
	dependencyDelay time.Duration
	maxWaits        int
	seenTTL         time.Duration
}

// NewProcessor constructs a new Processor.
func NewProcessor(opts ProcessorOptions) (*Processor, error) {
	switch {
	case opts.Queue == nil:
		return nil, errors.New("QueueRepository is required")
	case opts.Jobs == nil:
		return nil, errors.New("JobRecordRepository is required")
	case opts.Companies == nil:
		return nil, errors.New("CompanyRepository is required")
	case opts.Sources == nil:
		return nil, errors.New("SourceRepository is required")
	case opts.Scraper == nil:
		return nil, errors.New("Scraper is required")
	case opts.Extractor == nil:
		return nil, errors.New("Extractor is required")
	case opts.Guard == nil:
		return nil, errors.New("SpawnGuard is required")
	case opts.SourceHealth == nil:
		return nil, errors.New("SourceHealthService is required")
	case opts.Filter == nil:
		return nil, errors.New("filter Engine is required")
	case opts.Profile == nil:
		return nil, errors.New("MatchProfile is required")
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = resolve.New(resolve.Options{})
	}
	listings := opts.Listings
	if listings == nil {
		listings = discovery.NewExtractor(discovery.ExtractorOptions{})
	}

	leaseSeconds := opts.LeaseSeconds
	if leaseSeconds <= 0 {
		leaseSeconds = DefaultLeaseSeconds
	}
	retryBase := opts.RetryBaseDelay
	if retryBase <= 0 {
		retryBase = DefaultRetryBaseDelay
	}
	retryMax := opts.RetryMaxDelay
	if retryMax <= 0 {
		retryMax = DefaultRetryMaxDelay
	}
	dependencyDelay := opts.DependencyDelay
	if dependencyDelay <= 0 {
		dependencyDelay = DefaultDependencyDelay
	}
	maxWaits := opts.MaxWaits
	if maxWaits <= 0 {
		maxWaits = DefaultMaxWaits
	}
	seenTTL := opts.SeenTTL
	if seenTTL <= 0 {
		seenTTL = DefaultSeenTTL
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "processor")
	}

	return &Processor{
		queue:        opts.Queue,
		jobs:         opts.Jobs,
		companies:    opts.Companies,
		sources:      opts.Sources,
		scraper:      opts.Scraper,
		extractor:    opts.Extractor,
		guard:        opts.Guard,
		sourceHealth: opts.SourceHealth,
		filter:       opts.Filter,
		profile:      opts.Profile,
		resolver:     resolver,
		listings:     listings,
		seen:         opts.SeenURLs,
		logger:       logger,
		sink:         opts.Sink,

		leaseSeconds:    leaseSeconds,
		retryBaseDelay:  retryBase,
		retryMaxDelay:   retryMax,
		dependencyDelay: dependencyDelay,
		maxWaits:        maxWaits,
		seenTTL:         seenTTL,
	}, nil
}

// MustNewProcessor constructs a new Processor and panics on error.
func MustNewProcessor(opts ProcessorOptions) *Processor {
	p, err := NewProcessor(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create Processor: %v", err))
	}
	return p
}

// ProcessNext claims and processes the next available item. Returns
// model.ErrNoItemsAvailable when the queue is empty.
func (p *Processor) ProcessNext(ctx context.Context) (*Result, error) {
	item, err := p.queue.ClaimNext(ctx, p.leaseSeconds)
	if err != nil {
		return nil, err
	}
	return p.Process(ctx, item)
}

// Process runs one atomic operation for a claimed item.
func (p *Processor) Process(ctx context.Context, item *model.QueueItem) (*Result, error) {
	started := time.Now()

	snap, err := p.snapshot(ctx, item)
	if err != nil {
		return p.handleFailure(ctx, item, "", err)
	}

	// A job blocked on a company whose enrichment permanently failed can
	// never analyze well; propagate the failure instead of spinning.
	if outcome := p.failedDependency(snap); outcome != nil {
		return p.finish(ctx, item, model.OpWaitDependency, outcome, started)
	}

	decision := p.resolver.Resolve(snap)
	outcome, opErr := p.dispatch(ctx, snap, decision)
	if opErr != nil {
		return p.handleFailure(ctx, item, decision.Op, opErr)
	}
	return p.finish(ctx, item, decision.Op, outcome, started)
}

// stepOutcome is what a handler wants done with the item afterward.
type stepOutcome struct {
	// terminal, when set, finishes the item with this status.
	terminal model.ItemStatus
	reasons  []string

	// wait marks the requeue as a dependency wait.
	wait  bool
	delay time.Duration
}

func progress() *stepOutcome { return &stepOutcome{} }

func terminal(status model.ItemStatus, reasons ...string) *stepOutcome {
	return &stepOutcome{terminal: status, reasons: reasons}
}

func (p *Processor) dispatch(ctx context.Context, snap resolve.Snapshot, decision resolve.Decision) (*stepOutcome, error) {
	switch decision.Op {
	case model.OpScrape:
		return p.handleScrape(ctx, snap)
	case model.OpFilter:
		return p.handleFilter(ctx, snap)
	case model.OpAnalyze:
		return p.handleAnalyze(ctx, snap)
	case model.OpFetch:
		return p.handleCompanyFetch(ctx, snap)
	case model.OpExtract:
		return p.handleCompanyExtract(ctx, snap)
	case model.OpSave:
		return p.handleCompanySave(ctx, snap)
	case model.OpDiscover:
		return p.handleDiscover(ctx, snap)
	case model.OpFetchAndSubmit:
		return p.handleFetchAndSubmit(ctx, snap)
	case model.OpNeedsCompany:
		return p.handleNeedsCompany(ctx, snap, decision.Reason)
	case model.OpWaitDependency:
		return p.handleWaitDependency(snap)
	case model.OpComplete:
		return p.handleComplete(snap, decision.Reason)
	default:
		return nil, apperrors.Internalf("no handler for operation %q", decision.Op)
	}
}

// snapshot loads the stored state backing the item's decision.
func (p *Processor) snapshot(ctx context.Context, item *model.QueueItem) (resolve.Snapshot, error) {
	snap := resolve.Snapshot{Item: item}

	switch item.Type {
	case model.ItemTypeJob:
		job, err := p.jobs.GetByURL(ctx, item.URL)
		if err != nil {
			return snap, fmt.Errorf("load job record: %w", err)
		}
		snap.Job = job

		if name := companyNameFor(snap); name != "" {
			company, cerr := p.companies.GetByKey(ctx, urlutil.CompanyKey(name, ""))
			if cerr != nil {
				return snap, fmt.Errorf("load company record: %w", cerr)
			}
			snap.Company = company
		}
	case model.ItemTypeCompany:
		company, err := p.companies.GetByKey(ctx, item.URL)
		if err != nil {
			return snap, fmt.Errorf("load company record: %w", err)
		}
		snap.Company = company
	case model.ItemTypeScrapeSource:
		source, err := p.sources.GetByURL(ctx, item.URL)
		if err != nil {
			return snap, fmt.Errorf("load source record: %w", err)
		}
		snap.Source = source
	case model.ItemTypeSourceDiscovery:
		// Discovery needs nothing but the candidate URL.
	}
	return snap, nil
}

// companyNameFor resolves the company name a job item depends on.
func companyNameFor(snap resolve.Snapshot) string {
	if snap.Item.CompanyName != nil && *snap.Item.CompanyName != "" {
		return *snap.Item.CompanyName
	}
	if snap.Job != nil && snap.Job.ScrapedData != nil {
		return snap.Job.ScrapedData.CompanyName
	}
	return ""
}

// failedDependency detects a job whose backing company permanently failed.
func (p *Processor) failedDependency(snap resolve.Snapshot) *stepOutcome {
	if snap.Item.Type != model.ItemTypeJob {
		return nil
	}
	if snap.Company == nil || snap.Company.Status != model.CompanyStatusFailed {
		return nil
	}
	if snap.Job != nil && snap.Job.Complete() {
		return nil
	}
	out := terminal(model.ItemStatusFailed, "company enrichment failed permanently")
	out.reasons = append(out.reasons, "company: "+snap.Company.Key)
	return out
}

func (p *Processor) handleScrape(ctx context.Context, snap resolve.Snapshot) (*stepOutcome, error) {
	item := snap.Item

	res, err := p.scraper.Fetch(ctx, item.URL)
	if err != nil {
		return nil, apperrors.Fetchf(err, "fetch posting %s", item.URL)
	}
	if res.StatusCode >= 400 {
		return nil, fetchStatusError(item.URL, res.StatusCode)
	}

	fields, err := p.extractor.ExtractJobFields(ctx, res.HTML)
	if err != nil {
		return nil, fmt.Errorf("extract job fields: %w", err)
	}

	name := fields.CompanyName
	if name == "" && item.CompanyName != nil {
		name = *item.CompanyName
	}
	if _, err := p.jobs.EnsureExists(ctx, item.URL, name); err != nil {
		return nil, fmt.Errorf("ensure job record: %w", err)
	}
	if err := p.jobs.SetScraped(ctx, item.URL, fields); err != nil {
		return nil, fmt.Errorf("store scraped fields: %w", err)
	}
	return progress(), nil
}

func (p *Processor) handleFilter(ctx context.Context, snap resolve.Snapshot) (*stepOutcome, error) {
	job := snap.Job
	if job == nil || job.ScrapedData == nil {
		return nil, apperrors.Internal("filter requested before scrape output exists")
	}

	result := p.filter.Evaluate(job.ScrapedData)
	if err := p.jobs.SetFilter(ctx, job.URL, &result); err != nil {
		return nil, fmt.Errorf("store filter result: %w", err)
	}

	if !result.Passed {
		return terminal(model.ItemStatusFiltered, result.Reasons()...), nil
	}
	return progress(), nil
}

func (p *Processor) handleAnalyze(ctx context.Context, snap resolve.Snapshot) (*stepOutcome, error) {
	switch snap.Item.Type {
	case model.ItemTypeJob:
		job := snap.Job
		if job == nil || job.ScrapedData == nil {
			return nil, apperrors.Internal("analyze requested before scrape output exists")
		}
		analysis, err := p.extractor.AnalyzeMatch(ctx, job.ScrapedData, p.profile)
		if err != nil {
			return nil, fmt.Errorf("analyze match: %w", err)
		}
		if err := p.jobs.SetAnalysis(ctx, job.URL, analysis); err != nil {
			return nil, fmt.Errorf("store analysis: %w", err)
		}
		return progress(), nil
	case model.ItemTypeCompany:
		company := snap.Company
		if company == nil || company.Info == nil {
			return nil, apperrors.Internal("analyze requested before company info exists")
		}
		summary, err := p.extractor.SummarizeCompany(ctx, company.Info)
		if err != nil {
			return nil, fmt.Errorf("summarize company: %w", err)
		}
		if err := p.companies.SetSummary(ctx, company.Key, summary); err != nil {
			return nil, fmt.Errorf("store company summary: %w", err)
		}
		return progress(), nil
	default:
		return nil, apperrors.Internalf("analyze not defined for item type %q", snap.Item.Type)
	}
}

func (p *Processor) handleCompanyFetch(ctx context.Context, snap resolve.Snapshot) (*stepOutcome, error) {
	item := snap.Item
	name := item.URL
	if item.CompanyName != nil && *item.CompanyName != "" {
		name = *item.CompanyName
	}

	record, _, err := p.companies.CreatePending(ctx, core.CreateCompanyParams{
		Key:  item.URL,
		Name: name,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure company record: %w", err)
	}

	// Best effort; the record may already be analyzing after a retry.
	if _, err := p.companies.TransitionStatus(ctx, core.CompanyStatusTransition{
		Key:  record.Key,
		From: model.CompanyStatusPending,
		To:   model.CompanyStatusAnalyzing,
	}); err != nil {
		return nil, fmt.Errorf("transition company to analyzing: %w", err)
	}

	pages, err := p.scraper.FetchCompanyPages(ctx, record.Name, record.Website)
	if err != nil {
		return nil, apperrors.Fetchf(err, "fetch company pages for %s", record.Key)
	}
	if len(pages) == 0 {
		return nil, apperrors.Fetchf(nil, "no pages found for company %s", record.Key)
	}

	if err := p.companies.SetRawPages(ctx, record.Key, pages); err != nil {
		return nil, fmt.Errorf("store company pages: %w", err)
	}
	return progress(), nil
}

func (p *Processor) handleCompanyExtract(ctx context.Context, snap resolve.Snapshot) (*stepOutcome, error) {
	company := snap.Company
	if company == nil || len(company.RawPages) == 0 {
		return nil, apperrors.Internal("extract requested before company pages exist")
	}

	info, err := p.extractor.ExtractCompanyInfo(ctx, company.RawPages)
	if err != nil {
		return nil, fmt.Errorf("extract company info: %w", err)
	}
	if err := p.companies.SetInfo(ctx, company.Key, info); err != nil {
		return nil, fmt.Errorf("store company info: %w", err)
	}
	return progress(), nil
}

func (p *Processor) handleCompanySave(ctx context.Context, snap resolve.Snapshot) (*stepOutcome, error) {
	company := snap.Company
	if company == nil {
		return nil, apperrors.Internal("save requested for missing company record")
	}

	ok, err := p.companies.TransitionStatus(ctx, core.CompanyStatusTransition{
		Key:  company.Key,
		From: company.Status,
		To:   model.CompanyStatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("activate company: %w", err)
	}
	if !ok && p.logger != nil {
		p.logger.DebugContext(ctx, "company status moved concurrently",
			"key", company.Key, "from", company.Status)
	}
	return progress(), nil
}

func (p *Processor) handleDiscover(ctx context.Context, snap resolve.Snapshot) (*stepOutcome, error) {
	item := snap.Item

	detection, err := discovery.Detect(item.URL)
	if err != nil {
		return nil, apperrors.Validationf("candidate source url rejected: %v", err)
	}

	res, err := p.scraper.Fetch(ctx, item.URL)
	if err != nil {
		return nil, apperrors.Fetchf(err, "validate source %s", item.URL)
	}
	if res.StatusCode >= 400 {
		return nil, fetchStatusError(item.URL, res.StatusCode)
	}

	// The fetch above already validated the URL, so the source goes
	// straight into rotation instead of waiting on a first scrape that
	// only active sources would ever be scheduled for.
	record, err := p.sourceHealth.Register(ctx, &model.CreateSourceRequest{
		URL:        item.URL,
		SourceType: detection.SourceType,
		Status:     model.SourceStatusActive,
		Confidence: detection.Confidence,
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			return terminal(model.ItemStatusSkipped, "source already registered"), nil
		}
		return nil, fmt.Errorf("register source: %w", err)
	}

	reason := fmt.Sprintf("registered %s source (%s confidence)", record.SourceType, record.Confidence)
	return terminal(model.ItemStatusSuccess, reason), nil
}

func (p *Processor) handleFetchAndSubmit(ctx context.Context, snap resolve.Snapshot) (*stepOutcome, error) {
	source := snap.Source
	item := snap.Item

	res, err := p.scraper.Fetch(ctx, source.URL)
	if err != nil {
		ferr := apperrors.Fetchf(err, "fetch source listing %s", source.URL)
		p.noteSourceFailure(ctx, source.ID, ferr)
		return nil, ferr
	}
	if res.StatusCode >= 400 {
		ferr := fetchStatusError(source.URL, res.StatusCode)
		p.noteSourceFailure(ctx, source.ID, ferr)
		return nil, ferr
	}

	urls, err := p.listings.JobURLs(source.SourceType, source.URL, []byte(res.HTML))
	if err != nil {
		perr := apperrors.Wrapf(err, apperrors.ErrCodeAIMalformed, "parse source listing %s", source.URL)
		p.noteSourceFailure(ctx, source.ID, perr)
		return nil, perr
	}

	spawned, fresh, err := p.fanOut(ctx, item, source, urls)
	if err != nil {
		return nil, err
	}

	if len(fresh) > 0 && p.seen != nil {
		if err := p.seen.MarkSeen(ctx, fresh, p.seenTTL); err != nil && p.logger != nil {
			p.logger.WarnContext(ctx, "seen-url cache write failed", "error", err)
		}
	}

	if _, err := p.sourceHealth.RecordSuccess(ctx, source.ID); err != nil {
		return nil, err
	}

	reason := fmt.Sprintf("discovered %d postings, spawned %d new items", len(urls), spawned)
	return terminal(model.ItemStatusSuccess, reason), nil
}

// fanOut runs each listing URL through the seen cache and the spawn guard.
// Guard rejections and cache errors never abort the fan-out; at worst a
// duplicate candidate reaches the guard and is declined there. The one
// exception is a lineage-consistency violation, which poisons every
// candidate from this parent and aborts the pass.
func (p *Processor) fanOut(ctx context.Context, item *model.QueueItem, source *model.SourceRecord, urls []string) (int, []string, error) {
	spawned := 0
	fresh := make([]string, 0, len(urls))

	for _, u := range urls {
		if p.seen != nil {
			seen, err := p.seen.Seen(ctx, u)
			if err != nil {
				if p.logger != nil {
					p.logger.WarnContext(ctx, "seen-url cache read failed", "url", u, "error", err)
				}
			} else if seen {
				continue
			}
		}

		child, rejection, err := p.guard.Spawn(ctx, item, model.SpawnCandidate{
			Type:           model.ItemTypeJob,
			URL:            u,
			DiscoveredFrom: source.URL,
		})
		if err != nil {
			if apperrors.IsLoopPrevention(err) {
				return spawned, fresh, err
			}
			if p.logger != nil {
				p.logger.ErrorContext(ctx, "spawn from source failed", "url", u, "error", err)
			}
			continue
		}
		fresh = append(fresh, u)
		if rejection == nil && child != nil {
			spawned++
		}
	}
	return spawned, fresh, nil
}

func (p *Processor) noteSourceFailure(ctx context.Context, sourceID string, cause error) {
	if _, err := p.sourceHealth.RecordFailure(ctx, sourceID, cause); err != nil && p.logger != nil {
		p.logger.ErrorContext(ctx, "record source failure", "source_id", sourceID, "error", err)
	}
}

func (p *Processor) handleNeedsCompany(ctx context.Context, snap resolve.Snapshot, reason string) (*stepOutcome, error) {
	item := snap.Item
	if out := p.waitLimit(item); out != nil {
		return out, nil
	}

	name := companyNameFor(snap)
	if name == "" {
		return nil, apperrors.Internal("needs_company without a company name")
	}

	candidate := model.SpawnCandidate{
		Type:        model.ItemTypeCompany,
		URL:         urlutil.CompanyKey(name, ""),
		CompanyName: name,
	}
	// An existing record only resolves to needs_company when its data went
	// stale; the spawned item must redo the stages, not observe them done.
	if snap.Company != nil {
		candidate.OperationHint = model.HintRefresh
	}

	_, rejection, err := p.guard.Spawn(ctx, item, candidate)
	if err != nil {
		return nil, err
	}
	if rejection != nil && p.logger != nil {
		p.logger.DebugContext(ctx, "company dependency already underway",
			"check", rejection.Check, "item_id", item.ID)
	}

	return &stepOutcome{wait: true, delay: p.waitDelay(item.WaitCount)}, nil
}

func (p *Processor) handleWaitDependency(snap resolve.Snapshot) (*stepOutcome, error) {
	if out := p.waitLimit(snap.Item); out != nil {
		return out, nil
	}
	return &stepOutcome{wait: true, delay: p.waitDelay(snap.Item.WaitCount)}, nil
}

// waitLimit bounds how long an item may circle waiting on a dependency.
func (p *Processor) waitLimit(item *model.QueueItem) *stepOutcome {
	if item.WaitCount < p.maxWaits {
		return nil
	}
	return terminal(model.ItemStatusFailed,
		fmt.Sprintf("dependency wait limit reached after %d waits", item.WaitCount))
}

// handleComplete maps the resolver's complete verdict onto a terminal
// status: filtered jobs land in filtered, no-op source scrapes in skipped,
// everything else in success.
func (p *Processor) handleComplete(snap resolve.Snapshot, reason string) (*stepOutcome, error) {
	switch {
	case snap.Item.Type == model.ItemTypeScrapeSource:
		return terminal(model.ItemStatusSkipped, reason), nil
	case reason == "filtered out":
		reasons := []string{reason}
		if snap.Job != nil && snap.Job.Filter != nil {
			reasons = snap.Job.Filter.Reasons()
		}
		return terminal(model.ItemStatusFiltered, reasons...), nil
	case reason == "unknown item type":
		return terminal(model.ItemStatusFailed, reason), nil
	case reason != "":
		return terminal(model.ItemStatusSuccess, reason), nil
	default:
		return terminal(model.ItemStatusSuccess), nil
	}
}

// finish applies a handler outcome: terminal statuses land via MarkTerminal,
// everything else goes back to pending for its next stage.
func (p *Processor) finish(ctx context.Context, item *model.QueueItem, op model.Operation, outcome *stepOutcome, started time.Time) (*Result, error) {
	result := &Result{Item: item, Op: op, Reasons: outcome.reasons}

	if outcome.terminal != "" {
		if _, err := p.queue.MarkTerminal(ctx, core.TerminalParams{
			ID:      item.ID,
			Status:  outcome.terminal,
			Reasons: outcome.reasons,
		}); err != nil {
			return nil, fmt.Errorf("mark item terminal: %w", err)
		}
		result.Status = outcome.terminal
	} else {
		if _, err := p.queue.Requeue(ctx, core.RequeueParams{
			ID:        item.ID,
			Delay:     outcome.delay,
			CountWait: outcome.wait,
		}); err != nil {
			return nil, fmt.Errorf("requeue item: %w", err)
		}
		result.Requeued = true
	}

	p.observe(ctx, item, op, result, nil, time.Since(started))
	return result, nil
}

// handleFailure applies the retry policy to a failed operation. The lineage
// is consulted first: an identical failure already recorded for the same
// work means retrying is pointless, so the item fails immediately with a
// reference to the earlier failure.
func (p *Processor) handleFailure(ctx context.Context, item *model.QueueItem, op model.Operation, opErr error) (*Result, error) {
	class := apperrors.Classify(opErr)
	message := opErr.Error()
	result := &Result{Item: item, Op: op}

	prior, lookupErr := p.queue.FindLineageFailure(ctx, core.LineageFailureParams{
		TrackingID: item.TrackingID,
		URL:        item.URL,
		Type:       item.Type,
		ErrorClass: class,
	})
	if lookupErr != nil && p.logger != nil {
		// Fall back to the normal retry policy when the lookup itself fails.
		p.logger.WarnContext(ctx, "lineage failure lookup failed", "error", lookupErr)
	}

	switch {
	case prior != nil:
		reasons := []string{
			message,
			fmt.Sprintf("identical %s failure already recorded in lineage (item %s)", class, prior.ID),
		}
		if err := p.failItem(ctx, item, reasons, message, class); err != nil {
			return nil, err
		}
		result.Status = model.ItemStatusFailed
		result.Reasons = reasons

	case apperrors.IsTransient(opErr) && item.RetryCount < item.MaxRetries:
		delay := p.retryDelay(item.RetryCount)
		if _, err := p.queue.Requeue(ctx, core.RequeueParams{
			ID:         item.ID,
			Delay:      delay,
			CountRetry: true,
			LastError:  &message,
			ErrorClass: &class,
		}); err != nil {
			return nil, fmt.Errorf("requeue for retry: %w", err)
		}
		result.Requeued = true
		if p.logger != nil {
			p.logger.WarnContext(ctx, "operation failed, retrying",
				"item_id", item.ID,
				"op", op,
				"error_class", class,
				"retry", item.RetryCount+1,
				"max_retries", item.MaxRetries,
				"delay", delay,
				"error", message,
			)
		}

	default:
		reasons := []string{message}
		if apperrors.IsTransient(opErr) {
			reasons = append(reasons, fmt.Sprintf("retries exhausted after %d attempts", item.RetryCount))
		}
		if err := p.failItem(ctx, item, reasons, message, class); err != nil {
			return nil, err
		}
		result.Status = model.ItemStatusFailed
		result.Reasons = reasons
	}

	p.observe(ctx, item, op, result, opErr, 0)
	return result, nil
}

// failItem finishes an item as failed and, for company items, marks the
// company record failed so dependent jobs stop waiting on it.
func (p *Processor) failItem(ctx context.Context, item *model.QueueItem, reasons []string, message, class string) error {
	if _, err := p.queue.MarkTerminal(ctx, core.TerminalParams{
		ID:         item.ID,
		Status:     model.ItemStatusFailed,
		Reasons:    reasons,
		LastError:  &message,
		ErrorClass: &class,
	}); err != nil {
		return fmt.Errorf("mark item failed: %w", err)
	}

	if item.Type == model.ItemTypeCompany {
		for _, from := range []model.CompanyStatus{model.CompanyStatusAnalyzing, model.CompanyStatusPending} {
			ok, err := p.companies.TransitionStatus(ctx, core.CompanyStatusTransition{
				Key:  item.URL,
				From: from,
				To:   model.CompanyStatusFailed,
			})
			if err != nil && p.logger != nil {
				p.logger.ErrorContext(ctx, "mark company failed", "key", item.URL, "error", err)
			}
			if ok {
				break
			}
		}
	}

	if p.logger != nil {
		p.logger.ErrorContext(ctx, "item failed",
			"item_id", item.ID,
			"type", item.Type,
			"url", item.URL,
			"error_class", class,
			"reasons", reasons,
		)
	}
	return nil
}

// waitDelay doubles the dependency delay per prior wait, capped at the
// retry ceiling, so long enrichments get polled less and less often.
func (p *Processor) waitDelay(waitCount int) time.Duration {
	delay := p.dependencyDelay
	for i := 0; i < waitCount; i++ {
		delay *= 2
		if delay >= p.retryMaxDelay {
			return p.retryMaxDelay
		}
	}
	return delay
}

// retryDelay doubles the base delay per prior retry, capped at the ceiling.
func (p *Processor) retryDelay(retryCount int) time.Duration {
	delay := p.retryBaseDelay
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= p.retryMaxDelay {
			return p.retryMaxDelay
		}
	}
	if delay > p.retryMaxDelay {
		return p.retryMaxDelay
	}
	return delay
}

func (p *Processor) observe(ctx context.Context, item *model.QueueItem, op model.Operation, result *Result, opErr error, duration time.Duration) {
	outcome := metrics.ResultRequeued
	switch {
	case opErr != nil && result.Status == "":
		outcome = metrics.ResultRetried
	case result.Status == model.ItemStatusFailed:
		outcome = metrics.ResultError
	case result.Status != "":
		outcome = string(result.Status)
	}

	metrics.EmitItemLifecycle(p.sink, metrics.ItemMetric{
		ItemType:  string(item.Type),
		Operation: string(op),
		Result:    outcome,
		Duration:  duration,
		Err:       opErr,
	})

	if p.logger != nil && opErr == nil {
		p.logger.InfoContext(ctx, "item processed",
			"item_id", item.ID,
			"type", item.Type,
			"op", op,
			"status", result.Status,
			"requeued", result.Requeued,
		)
	}
}

func fetchStatusError(url string, status int) error {
	// Client errors do not heal on retry; server errors might.
	if status >= 400 && status < 500 {
		return apperrors.Validationf("fetch %s returned status %d", url, status)
	}
	return apperrors.Fetchf(nil, "fetch %s returned status %d", url, status)
}
