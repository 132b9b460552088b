package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/filter"
	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
	"github.com/jobscout/jobscout/internal/mocks"
)

type procMocks struct {
	queue     *mocks.MockQueueRepository
	jobs      *mocks.MockJobRecordRepository
	companies *mocks.MockCompanyRepository
	sources   *mocks.MockSourceRepository
	scraper   *mocks.MockScraper
	extractor *mocks.MockExtractor
	seen      *mocks.MockSeenURLCache
}

func newTestProcessor(t *testing.T) (*Processor, procMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := procMocks{
		queue:     mocks.NewMockQueueRepository(ctrl),
		jobs:      mocks.NewMockJobRecordRepository(ctrl),
		companies: mocks.NewMockCompanyRepository(ctrl),
		sources:   mocks.NewMockSourceRepository(ctrl),
		scraper:   mocks.NewMockScraper(ctrl),
		extractor: mocks.NewMockExtractor(ctrl),
		seen:      mocks.NewMockSeenURLCache(ctrl),
	}

	guard := MustNewSpawnGuard(SpawnGuardOptions{
		Queue:     m.queue,
		Jobs:      m.jobs,
		Companies: m.companies,
	})
	health := MustNewSourceHealthService(SourceHealthOptions{Repo: m.sources})

	proc := MustNewProcessor(ProcessorOptions{
		Queue:        m.queue,
		Jobs:         m.jobs,
		Companies:    m.companies,
		Sources:      m.sources,
		Scraper:      m.scraper,
		Extractor:    m.extractor,
		Guard:        guard,
		SourceHealth: health,
		Filter:       filter.NewEngine(filter.DefaultConfig()),
		Profile:      &model.MatchProfile{Skills: []string{"go", "postgres"}},
		SeenURLs:     m.seen,
	})
	return proc, m
}

func claimedJobItem() *model.QueueItem {
	return &model.QueueItem{
		ID:         "item-1",
		Type:       model.ItemTypeJob,
		URL:        "https://acme.example/jobs/1",
		Status:     model.ItemStatusProcessing,
		TrackingID: "track-1",
		MaxRetries: 3,
		CreatedAt:  time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
	}
}

func passingJobFields() *model.JobFields {
	salaryMin, salaryMax, years := 160_000, 190_000, 6
	return &model.JobFields{
		Title:           "Senior Software Engineer",
		Location:        "Remote, US",
		Description:     strings.Repeat("Design and run distributed ingestion services in production. ", 6),
		SalaryMin:       &salaryMin,
		SalaryMax:       &salaryMax,
		RemotePolicy:    model.RemotePolicyFull,
		TechStack:       []string{"Go", "Postgres", "Kubernetes"},
		ExperienceYears: &years,
	}
}

func expectProgressRequeue(t *testing.T, m procMocks, itemID string) {
	t.Helper()
	m.queue.EXPECT().
		Requeue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.RequeueParams) (bool, error) {
			assert.Equal(t, itemID, params.ID)
			assert.False(t, params.CountRetry)
			assert.False(t, params.CountWait)
			return true, nil
		})
}

func TestProcessor_ScrapeStage(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := claimedJobItem()

	m.jobs.EXPECT().GetByURL(gomock.Any(), item.URL).Return(nil, nil)
	m.scraper.EXPECT().
		Fetch(gomock.Any(), item.URL).
		Return(&core.FetchResult{HTML: "<html>posting</html>", StatusCode: 200}, nil)
	m.extractor.EXPECT().
		ExtractJobFields(gomock.Any(), "<html>posting</html>").
		Return(&model.JobFields{Title: "Senior Software Engineer", CompanyName: "Acme Labs"}, nil)
	m.jobs.EXPECT().
		EnsureExists(gomock.Any(), item.URL, "Acme Labs").
		Return(&model.JobRecord{URL: item.URL}, nil)
	m.jobs.EXPECT().SetScraped(gomock.Any(), item.URL, gomock.Any()).Return(nil)
	expectProgressRequeue(t, m, item.ID)

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.OpScrape, result.Op)
	assert.True(t, result.Requeued)
	assert.Empty(t, result.Status)
}

func TestProcessor_FilterRejectsJob(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := claimedJobItem()

	salaryMax := 95_000
	fields := passingJobFields()
	fields.Title = "Junior Software Engineer"
	fields.SalaryMin = nil
	fields.SalaryMax = &salaryMax

	m.jobs.EXPECT().GetByURL(gomock.Any(), item.URL).Return(&model.JobRecord{
		URL:         item.URL,
		ScrapedData: fields,
	}, nil)
	m.jobs.EXPECT().
		SetFilter(gomock.Any(), item.URL, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, result *model.FilterResult) error {
			assert.False(t, result.Passed)
			return nil
		})
	m.queue.EXPECT().
		MarkTerminal(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.TerminalParams) (bool, error) {
			assert.Equal(t, model.ItemStatusFiltered, params.Status)
			assert.NotEmpty(t, params.Reasons)
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.OpFilter, result.Op)
	assert.Equal(t, model.ItemStatusFiltered, result.Status)
}

func TestProcessor_FilterPassesAndRequeues(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := claimedJobItem()

	m.jobs.EXPECT().GetByURL(gomock.Any(), item.URL).Return(&model.JobRecord{
		URL:         item.URL,
		ScrapedData: passingJobFields(),
	}, nil)
	m.jobs.EXPECT().
		SetFilter(gomock.Any(), item.URL, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, result *model.FilterResult) error {
			assert.True(t, result.Passed)
			return nil
		})
	expectProgressRequeue(t, m, item.ID)

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.OpFilter, result.Op)
	assert.True(t, result.Requeued)
}

func TestProcessor_AnalyzeThenComplete(t *testing.T) {
	t.Run("analyze stage", func(t *testing.T) {
		proc, m := newTestProcessor(t)
		item := claimedJobItem()
		fields := passingJobFields()

		m.jobs.EXPECT().GetByURL(gomock.Any(), item.URL).Return(&model.JobRecord{
			URL:         item.URL,
			ScrapedData: fields,
			Filter:      &model.FilterResult{Passed: true},
		}, nil)
		m.extractor.EXPECT().
			AnalyzeMatch(gomock.Any(), fields, gomock.Any()).
			Return(&model.MatchAnalysis{Score: 85, Rationale: "strong overlap"}, nil)
		m.jobs.EXPECT().SetAnalysis(gomock.Any(), item.URL, gomock.Any()).Return(nil)
		expectProgressRequeue(t, m, item.ID)

		result, err := proc.Process(context.Background(), item)
		require.NoError(t, err)
		assert.Equal(t, model.OpAnalyze, result.Op)
		assert.True(t, result.Requeued)
	})

	t.Run("fully analyzed job completes", func(t *testing.T) {
		proc, m := newTestProcessor(t)
		item := claimedJobItem()
		analyzedAt := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)

		m.jobs.EXPECT().GetByURL(gomock.Any(), item.URL).Return(&model.JobRecord{
			URL:         item.URL,
			ScrapedData: passingJobFields(),
			Filter:      &model.FilterResult{Passed: true},
			Analysis:    &model.MatchAnalysis{Score: 85},
			AnalyzedAt:  &analyzedAt,
		}, nil)
		m.queue.EXPECT().
			MarkTerminal(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params core.TerminalParams) (bool, error) {
				assert.Equal(t, model.ItemStatusSuccess, params.Status)
				return true, nil
			})

		result, err := proc.Process(context.Background(), item)
		require.NoError(t, err)
		assert.Equal(t, model.ItemStatusSuccess, result.Status)
	})
}

func TestProcessor_NeedsCompanySpawnsDependency(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := claimedJobItem()
	name := "Acme Labs"
	item.CompanyName = &name

	m.jobs.EXPECT().GetByURL(gomock.Any(), item.URL).Return(nil, nil)
	// Once for the snapshot, once for the guard's already-done check.
	m.companies.EXPECT().GetByKey(gomock.Any(), "acme-labs").Return(nil, nil).Times(2)
	m.queue.EXPECT().HasActiveDuplicate(gomock.Any(), gomock.Any()).Return(false, nil)
	m.queue.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.CreateItemParams) (*model.QueueItem, error) {
			assert.Equal(t, model.ItemTypeCompany, params.Type)
			assert.Equal(t, "acme-labs", params.URL)
			assert.Equal(t, item.TrackingID, params.TrackingID)
			require.NotNil(t, params.CompanyName)
			assert.Equal(t, name, *params.CompanyName)
			return &model.QueueItem{ID: "company-item-1", Type: params.Type, URL: params.URL}, nil
		})
	m.queue.EXPECT().
		Requeue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.RequeueParams) (bool, error) {
			assert.True(t, params.CountWait)
			assert.False(t, params.CountRetry)
			assert.Equal(t, DefaultDependencyDelay, params.Delay)
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.OpNeedsCompany, result.Op)
	assert.True(t, result.Requeued)
}

// A stale active company resolves to needs_company; the spawned company
// item must carry the refresh hint or it would observe every stage as done
// and complete without re-enriching anything.
func TestProcessor_StaleCompanySpawnsRefresh(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := claimedJobItem()
	name := "Acme Labs"
	item.CompanyName = &name

	old := time.Now().Add(-45 * 24 * time.Hour)
	stale := &model.CompanyRecord{
		Key:        "acme-labs",
		Name:       name,
		Status:     model.CompanyStatusActive,
		RawPages:   []string{"<html>about</html>"},
		Info:       &model.CompanyFields{About: "infrastructure tooling"},
		AnalyzedAt: &old,
		UpdatedAt:  old,
	}

	m.jobs.EXPECT().GetByURL(gomock.Any(), item.URL).Return(nil, nil)
	// Once for the snapshot, once for the guard's already-done check; the
	// guard lets the spawn through because the record is stale.
	m.companies.EXPECT().GetByKey(gomock.Any(), "acme-labs").Return(stale, nil).Times(2)
	m.queue.EXPECT().HasActiveDuplicate(gomock.Any(), gomock.Any()).Return(false, nil)
	m.queue.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.CreateItemParams) (*model.QueueItem, error) {
			assert.Equal(t, model.ItemTypeCompany, params.Type)
			assert.Equal(t, "acme-labs", params.URL)
			assert.Equal(t, model.HintRefresh, params.OperationHint)
			return &model.QueueItem{ID: "company-item-1", Type: params.Type, URL: params.URL}, nil
		})
	m.queue.EXPECT().
		Requeue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.RequeueParams) (bool, error) {
			assert.True(t, params.CountWait)
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.OpNeedsCompany, result.Op)
	assert.True(t, result.Requeued)
}

func TestProcessor_WaitsOnCompanyInProgress(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := claimedJobItem()
	name := "Acme Labs"
	item.CompanyName = &name

	m.jobs.EXPECT().GetByURL(gomock.Any(), item.URL).Return(nil, nil)
	m.companies.EXPECT().GetByKey(gomock.Any(), "acme-labs").Return(&model.CompanyRecord{
		Key:    "acme-labs",
		Status: model.CompanyStatusAnalyzing,
	}, nil)
	m.queue.EXPECT().
		Requeue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.RequeueParams) (bool, error) {
			assert.True(t, params.CountWait)
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.OpWaitDependency, result.Op)
	assert.True(t, result.Requeued)
}

// The dependency delay backs off with the wait count so a long-running
// enrichment is polled less and less often instead of on a fixed cadence.
func TestProcessor_WaitBackoffGrowsWithWaitCount(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := claimedJobItem()
	name := "Acme Labs"
	item.CompanyName = &name
	item.WaitCount = 3

	m.jobs.EXPECT().GetByURL(gomock.Any(), item.URL).Return(nil, nil)
	m.companies.EXPECT().GetByKey(gomock.Any(), "acme-labs").Return(&model.CompanyRecord{
		Key:    "acme-labs",
		Status: model.CompanyStatusAnalyzing,
	}, nil)
	m.queue.EXPECT().
		Requeue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.RequeueParams) (bool, error) {
			assert.True(t, params.CountWait)
			assert.Equal(t, 8*DefaultDependencyDelay, params.Delay)
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.OpWaitDependency, result.Op)
	assert.True(t, result.Requeued)
}

func TestProcessor_DependencyWaitLimitFails(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := claimedJobItem()
	name := "Acme Labs"
	item.CompanyName = &name
	item.WaitCount = DefaultMaxWaits

	m.jobs.EXPECT().GetByURL(gomock.Any(), item.URL).Return(nil, nil)
	m.companies.EXPECT().GetByKey(gomock.Any(), "acme-labs").Return(&model.CompanyRecord{
		Key:    "acme-labs",
		Status: model.CompanyStatusAnalyzing,
	}, nil)
	m.queue.EXPECT().
		MarkTerminal(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.TerminalParams) (bool, error) {
			assert.Equal(t, model.ItemStatusFailed, params.Status)
			require.NotEmpty(t, params.Reasons)
			assert.Contains(t, params.Reasons[0], "dependency wait limit")
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusFailed, result.Status)
}

func TestProcessor_FailedCompanyPropagates(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := claimedJobItem()
	name := "Acme Labs"
	item.CompanyName = &name

	m.jobs.EXPECT().GetByURL(gomock.Any(), item.URL).Return(&model.JobRecord{
		URL:         item.URL,
		ScrapedData: passingJobFields(),
	}, nil)
	m.companies.EXPECT().GetByKey(gomock.Any(), "acme-labs").Return(&model.CompanyRecord{
		Key:    "acme-labs",
		Status: model.CompanyStatusFailed,
	}, nil)
	m.queue.EXPECT().
		MarkTerminal(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.TerminalParams) (bool, error) {
			assert.Equal(t, model.ItemStatusFailed, params.Status)
			require.NotEmpty(t, params.Reasons)
			assert.Contains(t, params.Reasons[0], "company enrichment failed")
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusFailed, result.Status)
}

func TestProcessor_TransientErrorRetriesWithBackoff(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := claimedJobItem()
	item.RetryCount = 1

	m.jobs.EXPECT().GetByURL(gomock.Any(), item.URL).Return(nil, nil)
	m.scraper.EXPECT().
		Fetch(gomock.Any(), item.URL).
		Return(nil, errors.New("connection reset"))
	m.queue.EXPECT().FindLineageFailure(gomock.Any(), gomock.Any()).Return(nil, nil)
	m.queue.EXPECT().
		Requeue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.RequeueParams) (bool, error) {
			assert.True(t, params.CountRetry)
			assert.Equal(t, time.Minute, params.Delay)
			require.NotNil(t, params.ErrorClass)
			assert.Equal(t, string(apperrors.ErrCodeFetch), *params.ErrorClass)
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, result.Requeued)
	assert.Empty(t, result.Status)
}

func TestProcessor_RetriesExhaustedFails(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := claimedJobItem()
	item.RetryCount = 3

	m.jobs.EXPECT().GetByURL(gomock.Any(), item.URL).Return(nil, nil)
	m.scraper.EXPECT().
		Fetch(gomock.Any(), item.URL).
		Return(nil, errors.New("connection reset"))
	m.queue.EXPECT().FindLineageFailure(gomock.Any(), gomock.Any()).Return(nil, nil)
	m.queue.EXPECT().
		MarkTerminal(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.TerminalParams) (bool, error) {
			assert.Equal(t, model.ItemStatusFailed, params.Status)
			require.Len(t, params.Reasons, 2)
			assert.Contains(t, params.Reasons[1], "retries exhausted")
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusFailed, result.Status)
}

func TestProcessor_ClientFetchErrorFailsImmediately(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := claimedJobItem()

	m.jobs.EXPECT().GetByURL(gomock.Any(), item.URL).Return(nil, nil)
	m.scraper.EXPECT().
		Fetch(gomock.Any(), item.URL).
		Return(&core.FetchResult{StatusCode: 404}, nil)
	m.queue.EXPECT().FindLineageFailure(gomock.Any(), gomock.Any()).Return(nil, nil)
	m.queue.EXPECT().
		MarkTerminal(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.TerminalParams) (bool, error) {
			assert.Equal(t, model.ItemStatusFailed, params.Status)
			require.NotNil(t, params.ErrorClass)
			assert.Equal(t, string(apperrors.ErrCodeValidation), *params.ErrorClass)
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusFailed, result.Status)
	assert.False(t, result.Requeued)
}

func TestProcessor_LineageFailureShortCircuitsRetry(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := claimedJobItem()

	m.jobs.EXPECT().GetByURL(gomock.Any(), item.URL).Return(nil, nil)
	m.scraper.EXPECT().
		Fetch(gomock.Any(), item.URL).
		Return(nil, errors.New("connection reset"))
	m.queue.EXPECT().
		FindLineageFailure(gomock.Any(), core.LineageFailureParams{
			TrackingID: item.TrackingID,
			URL:        item.URL,
			Type:       item.Type,
			ErrorClass: string(apperrors.ErrCodeFetch),
		}).
		Return(&model.QueueItem{ID: "prior-1", Status: model.ItemStatusFailed}, nil)
	m.queue.EXPECT().
		MarkTerminal(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.TerminalParams) (bool, error) {
			assert.Equal(t, model.ItemStatusFailed, params.Status)
			require.Len(t, params.Reasons, 2)
			assert.Contains(t, params.Reasons[1], "prior-1")
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusFailed, result.Status)
	assert.False(t, result.Requeued)
}

func TestProcessor_DisabledSourceIsSkipped(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := &model.QueueItem{
		ID:         "item-src",
		Type:       model.ItemTypeScrapeSource,
		URL:        "https://boards.greenhouse.io/acme",
		TrackingID: "track-src",
		MaxRetries: 3,
	}

	m.sources.EXPECT().GetByURL(gomock.Any(), item.URL).Return(&model.SourceRecord{
		ID:     "src-1",
		URL:    item.URL,
		Status: model.SourceStatusDisabled,
	}, nil)
	m.queue.EXPECT().
		MarkTerminal(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.TerminalParams) (bool, error) {
			assert.Equal(t, model.ItemStatusSkipped, params.Status)
			require.NotEmpty(t, params.Reasons)
			assert.Contains(t, params.Reasons[0], "disabled")
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusSkipped, result.Status)
}

func TestProcessor_FetchAndSubmitFansOut(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := &model.QueueItem{
		ID:         "item-src",
		Type:       model.ItemTypeScrapeSource,
		URL:        "https://boards.greenhouse.io/acme",
		TrackingID: "track-src",
		MaxRetries: 3,
	}
	source := &model.SourceRecord{
		ID:         "src-1",
		URL:        item.URL,
		SourceType: model.SourceTypeGreenhouse,
		Status:     model.SourceStatusActive,
	}
	listing := `{"jobs":[` +
		`{"absolute_url":"https://boards.greenhouse.io/acme/jobs/1"},` +
		`{"absolute_url":"https://boards.greenhouse.io/acme/jobs/2"}]}`

	m.sources.EXPECT().GetByURL(gomock.Any(), item.URL).Return(source, nil)
	m.scraper.EXPECT().
		Fetch(gomock.Any(), source.URL).
		Return(&core.FetchResult{HTML: listing, StatusCode: 200}, nil)

	// First posting was fanned out recently; only the second is fresh.
	m.seen.EXPECT().Seen(gomock.Any(), "https://boards.greenhouse.io/acme/jobs/1").Return(true, nil)
	m.seen.EXPECT().Seen(gomock.Any(), "https://boards.greenhouse.io/acme/jobs/2").Return(false, nil)

	m.queue.EXPECT().HasActiveDuplicate(gomock.Any(), gomock.Any()).Return(false, nil)
	m.jobs.EXPECT().GetByURL(gomock.Any(), "https://boards.greenhouse.io/acme/jobs/2").Return(nil, nil)
	m.queue.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.CreateItemParams) (*model.QueueItem, error) {
			assert.Equal(t, model.ItemTypeJob, params.Type)
			assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/2", params.URL)
			require.NotNil(t, params.DiscoveredFrom)
			assert.Equal(t, source.URL, *params.DiscoveredFrom)
			return &model.QueueItem{ID: "job-item-1", Type: params.Type, URL: params.URL}, nil
		})
	m.seen.EXPECT().
		MarkSeen(gomock.Any(), []string{"https://boards.greenhouse.io/acme/jobs/2"}, DefaultSeenTTL).
		Return(nil)
	m.sources.EXPECT().RecordSuccess(gomock.Any(), source.ID).Return(source, nil)
	m.queue.EXPECT().
		MarkTerminal(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.TerminalParams) (bool, error) {
			assert.Equal(t, model.ItemStatusSuccess, params.Status)
			require.NotEmpty(t, params.Reasons)
			assert.Equal(t, "discovered 2 postings, spawned 1 new items", params.Reasons[0])
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusSuccess, result.Status)
}

// An item whose ancestry disagrees with its spawn depth cannot be trusted
// for circularity checks; the fan-out aborts instead of spawning children
// off the corrupt lineage.
func TestProcessor_FetchAndSubmitAbortsOnCorruptLineage(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := &model.QueueItem{
		ID:         "item-src",
		Type:       model.ItemTypeScrapeSource,
		URL:        "https://boards.greenhouse.io/acme",
		TrackingID: "track-src",
		SpawnDepth: 2,
		MaxRetries: 3,
	}
	source := &model.SourceRecord{
		ID:         "src-1",
		URL:        item.URL,
		SourceType: model.SourceTypeGreenhouse,
		Status:     model.SourceStatusActive,
	}
	listing := `{"jobs":[{"absolute_url":"https://boards.greenhouse.io/acme/jobs/1"}]}`

	m.sources.EXPECT().GetByURL(gomock.Any(), item.URL).Return(source, nil)
	m.scraper.EXPECT().
		Fetch(gomock.Any(), source.URL).
		Return(&core.FetchResult{HTML: listing, StatusCode: 200}, nil)
	m.seen.EXPECT().Seen(gomock.Any(), "https://boards.greenhouse.io/acme/jobs/1").Return(false, nil)
	m.queue.EXPECT().FindLineageFailure(gomock.Any(), gomock.Any()).Return(nil, nil)
	m.queue.EXPECT().
		MarkTerminal(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.TerminalParams) (bool, error) {
			assert.Equal(t, model.ItemStatusFailed, params.Status)
			require.NotEmpty(t, params.Reasons)
			assert.Contains(t, params.Reasons[0], "ancestry")
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusFailed, result.Status)
	assert.False(t, result.Requeued)
}

func TestProcessor_FetchAndSubmitFailureCountsAgainstSource(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := &model.QueueItem{
		ID:         "item-src",
		Type:       model.ItemTypeScrapeSource,
		URL:        "https://boards.greenhouse.io/acme",
		TrackingID: "track-src",
		MaxRetries: 3,
	}
	source := &model.SourceRecord{
		ID:         "src-1",
		URL:        item.URL,
		SourceType: model.SourceTypeGreenhouse,
		Status:     model.SourceStatusActive,
	}

	m.sources.EXPECT().GetByURL(gomock.Any(), item.URL).Return(source, nil)
	m.scraper.EXPECT().
		Fetch(gomock.Any(), source.URL).
		Return(nil, errors.New("connection refused"))
	m.sources.EXPECT().
		RecordFailure(gomock.Any(), source.ID, DefaultDisableThreshold).
		Return(&model.SourceRecord{
			ID:                  source.ID,
			URL:                 source.URL,
			SourceType:          source.SourceType,
			Status:              model.SourceStatusActive,
			ConsecutiveFailures: 1,
		}, nil)
	m.queue.EXPECT().FindLineageFailure(gomock.Any(), gomock.Any()).Return(nil, nil)
	m.queue.EXPECT().
		Requeue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.RequeueParams) (bool, error) {
			assert.True(t, params.CountRetry)
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, result.Requeued)
}

func TestProcessor_DiscoverRegistersSource(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := &model.QueueItem{
		ID:         "item-disc",
		Type:       model.ItemTypeSourceDiscovery,
		URL:        "https://boards.greenhouse.io/acme",
		TrackingID: "track-disc",
		MaxRetries: 3,
	}

	m.scraper.EXPECT().
		Fetch(gomock.Any(), item.URL).
		Return(&core.FetchResult{HTML: "<html>board</html>", StatusCode: 200}, nil)
	m.sources.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *model.CreateSourceRequest) (*model.SourceRecord, error) {
			assert.Equal(t, model.SourceTypeGreenhouse, req.SourceType)
			assert.Equal(t, model.ConfidenceHigh, req.Confidence)
			// A validated discovery registers active so the scheduler can
			// pick the source up on its next pass.
			assert.Equal(t, model.SourceStatusActive, req.Status)
			return &model.SourceRecord{
				ID:         "src-1",
				URL:        req.URL,
				SourceType: req.SourceType,
				Confidence: req.Confidence,
				Status:     req.Status,
			}, nil
		})
	m.queue.EXPECT().
		MarkTerminal(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.TerminalParams) (bool, error) {
			assert.Equal(t, model.ItemStatusSuccess, params.Status)
			require.NotEmpty(t, params.Reasons)
			assert.Contains(t, params.Reasons[0], "registered greenhouse source")
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusSuccess, result.Status)
}

func TestProcessor_DiscoverDuplicateSourceSkips(t *testing.T) {
	proc, m := newTestProcessor(t)
	item := &model.QueueItem{
		ID:         "item-disc",
		Type:       model.ItemTypeSourceDiscovery,
		URL:        "https://boards.greenhouse.io/acme",
		TrackingID: "track-disc",
		MaxRetries: 3,
	}

	m.scraper.EXPECT().
		Fetch(gomock.Any(), item.URL).
		Return(&core.FetchResult{HTML: "<html>board</html>", StatusCode: 200}, nil)
	m.sources.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.Conflict("source already registered"))
	m.queue.EXPECT().
		MarkTerminal(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.TerminalParams) (bool, error) {
			assert.Equal(t, model.ItemStatusSkipped, params.Status)
			return true, nil
		})

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusSkipped, result.Status)
}

func TestProcessor_CompanyStages(t *testing.T) {
	name := "Acme Labs"
	companyItem := func() *model.QueueItem {
		return &model.QueueItem{
			ID:          "item-co",
			Type:        model.ItemTypeCompany,
			URL:         "acme-labs",
			TrackingID:  "track-co",
			CompanyName: &name,
			MaxRetries:  3,
		}
	}

	t.Run("fetch pages", func(t *testing.T) {
		proc, m := newTestProcessor(t)
		item := companyItem()

		m.companies.EXPECT().GetByKey(gomock.Any(), "acme-labs").Return(nil, nil)
		m.companies.EXPECT().
			CreatePending(gomock.Any(), core.CreateCompanyParams{Key: "acme-labs", Name: name}).
			Return(&model.CompanyRecord{Key: "acme-labs", Name: name, Status: model.CompanyStatusPending}, true, nil)
		m.companies.EXPECT().
			TransitionStatus(gomock.Any(), core.CompanyStatusTransition{
				Key:  "acme-labs",
				From: model.CompanyStatusPending,
				To:   model.CompanyStatusAnalyzing,
			}).
			Return(true, nil)
		m.scraper.EXPECT().
			FetchCompanyPages(gomock.Any(), name, "").
			Return([]string{"<html>about</html>", "<html>careers</html>"}, nil)
		m.companies.EXPECT().SetRawPages(gomock.Any(), "acme-labs", gomock.Any()).Return(nil)
		expectProgressRequeue(t, m, item.ID)

		result, err := proc.Process(context.Background(), item)
		require.NoError(t, err)
		assert.Equal(t, model.OpFetch, result.Op)
		assert.True(t, result.Requeued)
	})

	t.Run("extract info", func(t *testing.T) {
		proc, m := newTestProcessor(t)
		item := companyItem()
		pages := []string{"<html>about</html>"}

		m.companies.EXPECT().GetByKey(gomock.Any(), "acme-labs").Return(&model.CompanyRecord{
			Key:      "acme-labs",
			Name:     name,
			RawPages: pages,
			Status:   model.CompanyStatusAnalyzing,
		}, nil)
		m.extractor.EXPECT().
			ExtractCompanyInfo(gomock.Any(), pages).
			Return(&model.CompanyFields{About: "infrastructure tooling"}, nil)
		m.companies.EXPECT().SetInfo(gomock.Any(), "acme-labs", gomock.Any()).Return(nil)
		expectProgressRequeue(t, m, item.ID)

		result, err := proc.Process(context.Background(), item)
		require.NoError(t, err)
		assert.Equal(t, model.OpExtract, result.Op)
	})

	t.Run("analyze summary", func(t *testing.T) {
		proc, m := newTestProcessor(t)
		item := companyItem()
		info := &model.CompanyFields{About: "infrastructure tooling"}

		m.companies.EXPECT().GetByKey(gomock.Any(), "acme-labs").Return(&model.CompanyRecord{
			Key:      "acme-labs",
			Name:     name,
			RawPages: []string{"<html>about</html>"},
			Info:     info,
			Status:   model.CompanyStatusAnalyzing,
		}, nil)
		m.extractor.EXPECT().
			SummarizeCompany(gomock.Any(), info).
			Return("Acme Labs builds infrastructure tooling.", nil)
		m.companies.EXPECT().
			SetSummary(gomock.Any(), "acme-labs", "Acme Labs builds infrastructure tooling.").
			Return(nil)
		expectProgressRequeue(t, m, item.ID)

		result, err := proc.Process(context.Background(), item)
		require.NoError(t, err)
		assert.Equal(t, model.OpAnalyze, result.Op)
	})

	t.Run("save activates record", func(t *testing.T) {
		proc, m := newTestProcessor(t)
		item := companyItem()
		analyzedAt := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)

		m.companies.EXPECT().GetByKey(gomock.Any(), "acme-labs").Return(&model.CompanyRecord{
			Key:        "acme-labs",
			Name:       name,
			RawPages:   []string{"<html>about</html>"},
			Info:       &model.CompanyFields{About: "infrastructure tooling"},
			AnalyzedAt: &analyzedAt,
			Status:     model.CompanyStatusAnalyzing,
		}, nil)
		m.companies.EXPECT().
			TransitionStatus(gomock.Any(), core.CompanyStatusTransition{
				Key:  "acme-labs",
				From: model.CompanyStatusAnalyzing,
				To:   model.CompanyStatusActive,
			}).
			Return(true, nil)
		expectProgressRequeue(t, m, item.ID)

		result, err := proc.Process(context.Background(), item)
		require.NoError(t, err)
		assert.Equal(t, model.OpSave, result.Op)
	})

	t.Run("active record completes", func(t *testing.T) {
		proc, m := newTestProcessor(t)
		item := companyItem()
		analyzedAt := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)

		m.companies.EXPECT().GetByKey(gomock.Any(), "acme-labs").Return(&model.CompanyRecord{
			Key:        "acme-labs",
			Name:       name,
			RawPages:   []string{"<html>about</html>"},
			Info:       &model.CompanyFields{About: "infrastructure tooling"},
			AnalyzedAt: &analyzedAt,
			Status:     model.CompanyStatusActive,
		}, nil)
		m.queue.EXPECT().
			MarkTerminal(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params core.TerminalParams) (bool, error) {
				assert.Equal(t, model.ItemStatusSuccess, params.Status)
				return true, nil
			})

		result, err := proc.Process(context.Background(), item)
		require.NoError(t, err)
		assert.Equal(t, model.ItemStatusSuccess, result.Status)
	})
}

func TestProcessor_CompanyFailureMarksRecordFailed(t *testing.T) {
	proc, m := newTestProcessor(t)
	name := "Acme Labs"
	item := &model.QueueItem{
		ID:          "item-co",
		Type:        model.ItemTypeCompany,
		URL:         "acme-labs",
		TrackingID:  "track-co",
		CompanyName: &name,
		RetryCount:  3,
		MaxRetries:  3,
	}

	m.companies.EXPECT().GetByKey(gomock.Any(), "acme-labs").Return(nil, nil)
	m.companies.EXPECT().CreatePending(gomock.Any(), gomock.Any()).
		Return(&model.CompanyRecord{Key: "acme-labs", Name: name, Status: model.CompanyStatusPending}, true, nil)
	m.companies.EXPECT().
		TransitionStatus(gomock.Any(), core.CompanyStatusTransition{
			Key:  "acme-labs",
			From: model.CompanyStatusPending,
			To:   model.CompanyStatusAnalyzing,
		}).
		Return(true, nil)
	m.scraper.EXPECT().
		FetchCompanyPages(gomock.Any(), name, "").
		Return(nil, errors.New("dns lookup failed"))
	m.queue.EXPECT().FindLineageFailure(gomock.Any(), gomock.Any()).Return(nil, nil)
	m.queue.EXPECT().
		MarkTerminal(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.TerminalParams) (bool, error) {
			assert.Equal(t, model.ItemStatusFailed, params.Status)
			return true, nil
		})
	m.companies.EXPECT().
		TransitionStatus(gomock.Any(), core.CompanyStatusTransition{
			Key:  "acme-labs",
			From: model.CompanyStatusAnalyzing,
			To:   model.CompanyStatusFailed,
		}).
		Return(true, nil)

	result, err := proc.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusFailed, result.Status)
}

func TestProcessor_RetryDelayDoublesAndCaps(t *testing.T) {
	proc, _ := newTestProcessor(t)

	assert.Equal(t, 30*time.Second, proc.retryDelay(0))
	assert.Equal(t, time.Minute, proc.retryDelay(1))
	assert.Equal(t, 2*time.Minute, proc.retryDelay(2))
	assert.Equal(t, DefaultRetryMaxDelay, proc.retryDelay(20))
}

func TestProcessor_WaitDelayDoublesAndCaps(t *testing.T) {
	proc, _ := newTestProcessor(t)

	assert.Equal(t, DefaultDependencyDelay, proc.waitDelay(0))
	assert.Equal(t, 2*DefaultDependencyDelay, proc.waitDelay(1))
	assert.Equal(t, 4*DefaultDependencyDelay, proc.waitDelay(2))
	assert.Equal(t, DefaultRetryMaxDelay, proc.waitDelay(20))
}

func TestProcessor_ProcessNextEmptyQueue(t *testing.T) {
	proc, m := newTestProcessor(t)

	m.queue.EXPECT().
		ClaimNext(gomock.Any(), DefaultLeaseSeconds).
		Return(nil, model.ErrNoItemsAvailable)

	_, err := proc.ProcessNext(context.Background())
	require.ErrorIs(t, err, model.ErrNoItemsAvailable)
}
