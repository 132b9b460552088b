package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jobscout/jobscout/config"
	"github.com/jobscout/jobscout/internal/mocks"
)

func TestNewRunner_RequiresDatabaseOrRepo(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database connection")
}

func TestRunner_RunStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSweeperRepository(ctrl)

	// Cancel up front so the run exits during the startup jitter wait.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo.EXPECT().ReclaimExpired(gomock.Any(), 5).Return(int64(0), nil).AnyTimes()
	repo.EXPECT().DeleteOldItems(gomock.Any(), gomock.Any()).Return(int64(0), nil).AnyTimes()

	runner, err := NewRunner(RunnerOptions{
		Repo: repo,
		Config: config.SweeperConfig{
			Interval:  30 * time.Second,
			BatchSize: 5,
		},
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancellation")
	}
}
