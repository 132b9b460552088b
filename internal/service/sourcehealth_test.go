package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
	"github.com/jobscout/jobscout/internal/mocks"
)

func newTestSourceHealth(t *testing.T) (*SourceHealthService, *mocks.MockSourceRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSourceRepository(ctrl)
	svc := MustNewSourceHealthService(SourceHealthOptions{Repo: repo})
	return svc, repo
}

func TestNewSourceHealthService_RequiresRepo(t *testing.T) {
	_, err := NewSourceHealthService(SourceHealthOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SourceRepository is required")
}

func TestSourceHealthService_RecordSuccess(t *testing.T) {
	svc, repo := newTestSourceHealth(t)

	repo.EXPECT().
		RecordSuccess(gomock.Any(), "src-1").
		Return(&model.SourceRecord{
			ID:     "src-1",
			URL:    "https://boards.greenhouse.io/acme",
			Status: model.SourceStatusActive,
		}, nil)

	record, err := svc.RecordSuccess(context.Background(), "src-1")
	require.NoError(t, err)
	assert.Equal(t, model.SourceStatusActive, record.Status)
}

func TestSourceHealthService_RecordFailurePassesThreshold(t *testing.T) {
	svc, repo := newTestSourceHealth(t)

	repo.EXPECT().
		RecordFailure(gomock.Any(), "src-1", DefaultDisableThreshold).
		Return(&model.SourceRecord{
			ID:                  "src-1",
			Status:              model.SourceStatusActive,
			ConsecutiveFailures: 2,
		}, nil)

	record, err := svc.RecordFailure(context.Background(), "src-1", errors.New("timeout"))
	require.NoError(t, err)
	assert.Equal(t, 2, record.ConsecutiveFailures)
}

func TestSourceHealthService_CustomThreshold(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSourceRepository(ctrl)
	svc := MustNewSourceHealthService(SourceHealthOptions{Repo: repo, DisableThreshold: 3})

	repo.EXPECT().
		RecordFailure(gomock.Any(), "src-1", 3).
		Return(&model.SourceRecord{
			ID:                  "src-1",
			Status:              model.SourceStatusDisabled,
			ConsecutiveFailures: 3,
		}, nil)

	record, err := svc.RecordFailure(context.Background(), "src-1", errors.New("timeout"))
	require.NoError(t, err)
	assert.Equal(t, model.SourceStatusDisabled, record.Status)
}

func TestSourceHealthService_RegisterPropagatesConflict(t *testing.T) {
	svc, repo := newTestSourceHealth(t)

	repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.Conflict("source already registered"))

	_, err := svc.Register(context.Background(), &model.CreateSourceRequest{
		URL:        "https://boards.greenhouse.io/acme",
		SourceType: model.SourceTypeGreenhouse,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestSourceHealthService_ListDue(t *testing.T) {
	svc, repo := newTestSourceHealth(t)

	due := []*model.SourceRecord{{ID: "src-1"}, {ID: "src-2"}}
	repo.EXPECT().
		ListDue(gomock.Any(), 6*time.Hour, 50).
		Return(due, nil)

	got, err := svc.ListDue(context.Background(), 6*time.Hour, 50)
	require.NoError(t, err)
	assert.Equal(t, due, got)
}
