package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/efm-sync-backend/internal/adapters/efm"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/storage"
)

func TestSchedulerTriggersRuns(t *testing.T) {
	repo := storage.NewMockRepository()
	orch := newTestOrchestrator(fullFixtureClient(), repo)

	scheduler := NewScheduler(orch, 20*time.Millisecond, orch.logger)
	scheduler.Start()
	defer scheduler.Stop()

	require.Eventually(t, func() bool {
		runs, err := repo.ListSyncRuns(10)
		return err == nil && len(runs) >= 2
	}, 2*time.Second, 10*time.Millisecond, "scheduler should keep firing on its interval")

	runs, err := repo.ListSyncRuns(1)
	require.NoError(t, err)
	assert.Equal(t, "scheduled", runs[0].TriggerSource)
}

func TestSchedulerSkipsWhileRunInProgress(t *testing.T) {
	client := fullFixtureClient()
	release := make(chan struct{})
	client.countriesFn = func(sinceID int) ([]efm.Country, error) {
		<-release
		return nil, nil
	}
	repo := storage.NewMockRepository()
	orch := newTestOrchestrator(client, repo)

	scheduler := NewScheduler(orch, 20*time.Millisecond, orch.logger)
	scheduler.Start()

	// Let several ticks land while the first run is blocked. Only one run
	// may be started; the rest are skipped.
	time.Sleep(150 * time.Millisecond)
	close(release)
	scheduler.Stop()

	assert.Eventually(t, func() bool {
		runs, err := repo.ListSyncRuns(10)
		if err != nil {
			return false
		}
		for _, run := range runs {
			if run.Status == "running" {
				return false
			}
		}
		return len(runs) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	runs, err := repo.ListSyncRuns(10)
	require.NoError(t, err)
	completed := 0
	for _, run := range runs {
		if run.Status == "completed" {
			completed++
		}
	}
	assert.LessOrEqual(t, len(runs), 2, "ticks during a run must be skipped, not queued")
	assert.GreaterOrEqual(t, completed, 1)
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	repo := storage.NewMockRepository()
	orch := newTestOrchestrator(fullFixtureClient(), repo)
	scheduler := NewScheduler(orch, time.Hour, orch.logger)

	scheduler.Start()
	scheduler.Start()
	scheduler.Stop()
	scheduler.Stop()
}
