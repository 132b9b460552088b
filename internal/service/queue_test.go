package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
	"github.com/jobscout/jobscout/internal/mocks"
)

func newTestQueueService(t *testing.T) (*QueueService, *mocks.MockQueueRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockQueueRepository(ctrl)
	svc := MustNewQueueService(QueueServiceOptions{Repo: repo})
	return svc, repo
}

func TestNewQueueService_RequiresRepo(t *testing.T) {
	_, err := NewQueueService(QueueServiceOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QueueRepository is required")
}

func TestQueueService_SubmitCreatesRootItem(t *testing.T) {
	svc, repo := newTestQueueService(t)

	repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.CreateItemParams) (*model.QueueItem, error) {
			assert.Equal(t, model.ItemTypeJob, params.Type)
			// Host casing and the trailing slash are normalized before storage.
			assert.Equal(t, "https://acme.example/jobs/1", params.URL)
			assert.Empty(t, params.Ancestry)
			assert.Zero(t, params.SpawnDepth)
			require.NotNil(t, params.CompanyName)
			assert.Equal(t, "Acme Labs", *params.CompanyName)

			_, err := uuid.Parse(params.TrackingID)
			assert.NoError(t, err)

			return &model.QueueItem{
				ID:         "item-1",
				Type:       params.Type,
				URL:        params.URL,
				TrackingID: params.TrackingID,
				Status:     model.ItemStatusPending,
			}, nil
		})

	item, err := svc.Submit(context.Background(), &model.SubmitRequest{
		Type:        model.ItemTypeJob,
		URL:         "HTTPS://Acme.Example/jobs/1/",
		CompanyName: "  Acme Labs  ",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusPending, item.Status)
}

// A submission that omits its retry budget gets the configured default;
// one that sets it keeps it.
func TestQueueService_SubmitAppliesDefaultMaxRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockQueueRepository(ctrl)
	svc := MustNewQueueService(QueueServiceOptions{Repo: repo, DefaultMaxRetries: 5})

	repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.CreateItemParams) (*model.QueueItem, error) {
			assert.Equal(t, 5, params.MaxRetries)
			return &model.QueueItem{ID: "item-1", MaxRetries: params.MaxRetries}, nil
		})
	_, err := svc.Submit(context.Background(), &model.SubmitRequest{
		Type: model.ItemTypeJob,
		URL:  "https://acme.example/jobs/1",
	})
	require.NoError(t, err)

	repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.CreateItemParams) (*model.QueueItem, error) {
			assert.Equal(t, 8, params.MaxRetries)
			return &model.QueueItem{ID: "item-2", MaxRetries: params.MaxRetries}, nil
		})
	_, err = svc.Submit(context.Background(), &model.SubmitRequest{
		Type:       model.ItemTypeJob,
		URL:        "https://acme.example/jobs/2",
		MaxRetries: 8,
	})
	require.NoError(t, err)
}

func TestQueueService_HasActiveWork(t *testing.T) {
	svc, repo := newTestQueueService(t)

	repo.EXPECT().
		HasActiveDuplicate(gomock.Any(), core.DuplicateLookupParams{
			// Empty tracking id: the check spans every lineage.
			TrackingID: "",
			URL:        "https://boards.greenhouse.io/acme",
			Type:       model.ItemTypeScrapeSource,
		}).
		Return(true, nil)

	busy, err := svc.HasActiveWork(context.Background(), model.ItemTypeScrapeSource, "HTTPS://Boards.Greenhouse.io/acme/")
	require.NoError(t, err)
	assert.True(t, busy)

	_, err = svc.HasActiveWork(context.Background(), "mystery", "https://acme.example")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestQueueService_SubmitRejectsInvalidRequests(t *testing.T) {
	svc, _ := newTestQueueService(t)

	cases := []struct {
		name string
		req  *model.SubmitRequest
	}{
		{name: "nil request", req: nil},
		{name: "unknown type", req: &model.SubmitRequest{Type: "mystery", URL: "https://acme.example"}},
		{name: "missing url", req: &model.SubmitRequest{Type: model.ItemTypeJob}},
		{name: "unparseable url", req: &model.SubmitRequest{Type: model.ItemTypeJob, URL: "::not a url::"}},
		{name: "negative retries", req: &model.SubmitRequest{Type: model.ItemTypeJob, URL: "https://acme.example", MaxRetries: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestQueueService_GetByID(t *testing.T) {
	svc, repo := newTestQueueService(t)

	repo.EXPECT().
		GetByID(gomock.Any(), "item-1").
		Return(&model.QueueItem{ID: "item-1"}, nil)

	item, err := svc.GetByID(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, "item-1", item.ID)

	_, err = svc.GetByID(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestQueueService_Stats(t *testing.T) {
	svc, repo := newTestQueueService(t)

	repo.EXPECT().
		Stats(gomock.Any(), model.ItemTypeJob).
		Return(&model.QueueStats{Pending: 4, Success: 10}, nil)

	stats, err := svc.Stats(context.Background(), model.ItemTypeJob)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Pending)

	_, err = svc.Stats(context.Background(), "mystery")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
