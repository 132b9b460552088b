package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jobscout/jobscout/internal/domain/filter"
	"github.com/jobscout/jobscout/internal/domain/model"
	"github.com/jobscout/jobscout/internal/mocks"
	"github.com/jobscout/jobscout/internal/service"
)

type runnerMocks struct {
	queue     *mocks.MockQueueRepository
	jobs      *mocks.MockJobRecordRepository
	companies *mocks.MockCompanyRepository
	sources   *mocks.MockSourceRepository
	scraper   *mocks.MockScraper
	extractor *mocks.MockExtractor
}

func newTestRunner(t *testing.T) (*Runner, runnerMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := runnerMocks{
		queue:     mocks.NewMockQueueRepository(ctrl),
		jobs:      mocks.NewMockJobRecordRepository(ctrl),
		companies: mocks.NewMockCompanyRepository(ctrl),
		sources:   mocks.NewMockSourceRepository(ctrl),
		scraper:   mocks.NewMockScraper(ctrl),
		extractor: mocks.NewMockExtractor(ctrl),
	}

	proc := service.MustNewProcessor(service.ProcessorOptions{
		Queue:     m.queue,
		Jobs:      m.jobs,
		Companies: m.companies,
		Sources:   m.sources,
		Scraper:   m.scraper,
		Extractor: m.extractor,
		Guard: service.MustNewSpawnGuard(service.SpawnGuardOptions{
			Queue:     m.queue,
			Jobs:      m.jobs,
			Companies: m.companies,
		}),
		SourceHealth: service.MustNewSourceHealthService(service.SourceHealthOptions{Repo: m.sources}),
		Filter:       filter.NewEngine(filter.DefaultConfig()),
		Profile:      &model.MatchProfile{Skills: []string{"go"}},
	})

	runner, err := NewRunner(RunnerOptions{
		Processor:    proc,
		Queue:        m.queue,
		IdleInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	return runner, m
}

func TestNewRunner_RequiresDependencies(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Processor is required")
}

func TestRunner_DrainsThenWaits(t *testing.T) {
	runner, m := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())

	item := &model.QueueItem{
		ID:         "item-1",
		Type:       model.ItemTypeScrapeSource,
		URL:        "https://boards.greenhouse.io/acme",
		TrackingID: "track-1",
	}

	gomock.InOrder(
		m.queue.EXPECT().ClaimNext(gomock.Any(), gomock.Any()).Return(item, nil),
		m.queue.EXPECT().ClaimNext(gomock.Any(), gomock.Any()).Return(nil, model.ErrNoItemsAvailable),
	)
	m.sources.EXPECT().
		GetByURL(gomock.Any(), item.URL).
		Return(&model.SourceRecord{ID: "src-1", URL: item.URL, Status: model.SourceStatusDisabled}, nil)
	m.queue.EXPECT().
		MarkTerminal(gomock.Any(), gomock.Any()).
		Return(true, nil)
	m.queue.EXPECT().
		WaitForNotification(gomock.Any()).
		DoAndReturn(func(waitCtx context.Context) error {
			cancel()
			<-waitCtx.Done()
			return waitCtx.Err()
		})

	require.NoError(t, runner.Run(ctx))
}

func TestRunner_StopsOnInfrastructureError(t *testing.T) {
	runner, m := newTestRunner(t)

	m.queue.EXPECT().
		ClaimNext(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection refused"))

	err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "process next")
}

func TestRunner_IdleLoopStopsOnCancel(t *testing.T) {
	runner, m := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())

	m.queue.EXPECT().
		ClaimNext(gomock.Any(), gomock.Any()).
		Return(nil, model.ErrNoItemsAvailable).
		AnyTimes()
	m.queue.EXPECT().
		WaitForNotification(gomock.Any()).
		DoAndReturn(func(waitCtx context.Context) error {
			cancel()
			return context.Canceled
		}).
		AnyTimes()

	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop on cancel")
	}
}
