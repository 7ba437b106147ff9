package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/efm-sync-backend/internal/adapters/efm"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/storage"
)

// fullFixtureClient serves one consistent snapshot of every resource
func fullFixtureClient() *fakeClient {
	return &fakeClient{
		countriesFn: pagesByCursor(map[int][]efm.Country{
			0: {{CountryID: 10, Name: "Germany", Code: "DE"}},
		}),
		citiesFn: pagesByCursor(map[int][]efm.City{
			0: {{CityID: 20, Name: "Berlin", CountryID: 10}},
		}),
		companiesFn: pagesByCursor(map[int][]efm.Company{
			0: {{CompanyID: 77, Name: "EventCo"}, {CompanyID: 78, Name: "ShowCo"}},
		}),
		venuesFn: pagesByCursor(map[int][]efm.Venue{
			0: {{VenueID: 300, Name: "Velodrom", CityID: 20}},
		}),
		eventsFn: pagesByCursor(map[int][]efm.Event{
			0: {{EventID: 4000, Name: "Six Day Berlin", VenueID: 300, CompanyID: 77}},
		}),
		ownersFn: func(companyID, page, pageSize int) ([]efm.Owner, error) {
			if page > 1 {
				return nil, nil
			}
			return []efm.Owner{{OwnerID: companyID*10 + 1, CompanyID: companyID}}, nil
		},
		discountsFn: func(companyID, page, pageSize int) ([]efm.DiscountCode, error) {
			if page > 1 {
				return nil, nil
			}
			return []efm.DiscountCode{{DiscountCodeID: companyID*10 + 2, CompanyID: companyID, Code: "EARLYBIRD"}}, nil
		},
	}
}

func newTestOrchestrator(client Client, repo *storage.MockRepository) *Orchestrator {
	syncer := newTestSyncer(client, repo)
	return NewOrchestrator(syncer, repo, syncer.logger)
}

func TestRunFullSync(t *testing.T) {
	t.Run("syncs every resource and persists the run", func(t *testing.T) {
		repo := storage.NewMockRepository()
		orch := newTestOrchestrator(fullFixtureClient(), repo)

		report, err := orch.RunFullSync(context.Background(), "manual")
		require.NoError(t, err)

		assert.Equal(t, "manual", report.TriggerSource)
		assert.Len(t, report.Resources, 7)
		for resource, summary := range report.Resources {
			assert.True(t, summary.Success, resource)
		}
		// 1 country + 1 city + 2 companies + 1 venue + 1 event + 2 owners +
		// 2 codes. Children racing their parents within the concurrent pass
		// are skipped, never lost.
		assert.Equal(t, 8, report.TotalSynced+report.TotalSkipped)
		assert.GreaterOrEqual(t, report.TotalSynced, 5, "companies, country and the fan-out never skip")
		assert.Equal(t, 0, report.ResourcesFailed)
		assert.Empty(t, report.CompaniesFailed)

		run, err := repo.GetSyncRun(report.RunID)
		require.NoError(t, err)
		assert.Equal(t, "completed", run.Status)
		assert.Equal(t, report.TotalSynced, run.TotalSynced)
		assert.Contains(t, run.ReportJSON, `"trigger_source":"manual"`)
	})

	t.Run("city arriving before its country is skipped, not fatal", func(t *testing.T) {
		client := fullFixtureClient()
		client.citiesFn = pagesByCursor(map[int][]efm.City{
			0: {{CityID: 21, Name: "Atlantis", CountryID: 99}},
		})
		repo := storage.NewMockRepository()
		orch := newTestOrchestrator(client, repo)

		report, err := orch.RunFullSync(context.Background(), "manual")
		require.NoError(t, err)

		cities := report.Resources[ResourceCities]
		assert.True(t, cities.Success)
		assert.Equal(t, 1, cities.Skipped)
		// The fixture venue pointed at the now-missing city, and the event
		// at that venue, so the skip cascades without failing anything.
		assert.Equal(t, 3, report.TotalSkipped)
		assert.Equal(t, 0, report.ResourcesFailed)
	})

	t.Run("a failing resource marks the run but others complete", func(t *testing.T) {
		client := fullFixtureClient()
		client.eventsFn = func(sinceID int) ([]efm.Event, error) {
			return nil, errors.New("events endpoint down")
		}
		repo := storage.NewMockRepository()
		orch := newTestOrchestrator(client, repo)

		report, err := orch.RunFullSync(context.Background(), "manual")
		require.NoError(t, err)

		assert.Equal(t, 1, report.ResourcesFailed)
		assert.False(t, report.Resources[ResourceEvents].Success)
		assert.True(t, report.Resources[ResourceCountries].Success)
		assert.True(t, report.Resources[ResourceVenues].Success)

		run, err := repo.GetSyncRun(report.RunID)
		require.NoError(t, err)
		assert.Equal(t, "completed_with_errors", run.Status)
	})

	t.Run("one company failing does not stop the fan-out", func(t *testing.T) {
		client := fullFixtureClient()
		client.ownersFn = func(companyID, page, pageSize int) ([]efm.Owner, error) {
			if companyID == 77 {
				return nil, errors.New("owners endpoint down")
			}
			if page > 1 {
				return nil, nil
			}
			return []efm.Owner{{OwnerID: companyID*10 + 1, CompanyID: companyID}}, nil
		}
		repo := storage.NewMockRepository()
		orch := newTestOrchestrator(client, repo)

		report, err := orch.RunFullSync(context.Background(), "manual")
		require.NoError(t, err)

		assert.Equal(t, []int{77}, report.CompaniesFailed)
		owners := report.Resources[ResourceOwners]
		assert.False(t, owners.Success)
		assert.Equal(t, 1, owners.TotalSynced, "company 78's owner still syncs")
		assert.True(t, report.Resources[ResourceDiscountCodes].Success,
			"discount codes of all companies are unaffected")
		assert.Equal(t, 2, repo.DiscountCount())
	})
}

func TestRunFullSyncMutualExclusion(t *testing.T) {
	t.Run("overlapping trigger is rejected", func(t *testing.T) {
		client := fullFixtureClient()
		release := make(chan struct{})
		entered := make(chan struct{})
		var once stdsync.Once
		client.countriesFn = func(sinceID int) ([]efm.Country, error) {
			once.Do(func() { close(entered) })
			<-release
			return nil, nil
		}
		repo := storage.NewMockRepository()
		orch := newTestOrchestrator(client, repo)

		var wg stdsync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orch.RunFullSync(context.Background(), "manual")
			assert.NoError(t, err)
		}()

		<-entered
		_, err := orch.RunFullSync(context.Background(), "manual")
		assert.ErrorIs(t, err, ErrSyncInProgress)
		_, err = orch.SyncSingle(context.Background(), ResourceCountries)
		assert.ErrorIs(t, err, ErrSyncInProgress)

		close(release)
		wg.Wait()
	})

	t.Run("lock is released after a failed run", func(t *testing.T) {
		client := fullFixtureClient()
		client.countriesFn = func(sinceID int) ([]efm.Country, error) {
			return nil, errors.New("boom")
		}
		repo := storage.NewMockRepository()
		orch := newTestOrchestrator(client, repo)

		report, err := orch.RunFullSync(context.Background(), "manual")
		require.NoError(t, err)
		assert.Equal(t, 1, report.ResourcesFailed)

		// A second run must acquire the lock immediately.
		_, err = orch.RunFullSync(context.Background(), "manual")
		assert.NoError(t, err)
	})
}

func TestSyncSingle(t *testing.T) {
	repo := storage.NewMockRepository()
	orch := newTestOrchestrator(fullFixtureClient(), repo)

	summary, err := orch.SyncSingle(context.Background(), ResourceCountries)
	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Equal(t, 1, summary.TotalSynced)

	_, err = orch.SyncSingle(context.Background(), "bogus")
	assert.Error(t, err)
}

func TestRunFullSyncIdempotence(t *testing.T) {
	repo := storage.NewMockRepository()
	orch := newTestOrchestrator(fullFixtureClient(), repo)

	first, err := orch.RunFullSync(context.Background(), "manual")
	require.NoError(t, err)
	second, err := orch.RunFullSync(context.Background(), "manual")
	require.NoError(t, err)

	assert.Equal(t, first.TotalSynced+first.TotalSkipped, second.TotalSynced+second.TotalSkipped)
	assert.Equal(t, 1, repo.CountryCount())
	assert.Equal(t, 2, repo.OwnerCount())
	assert.Equal(t, 2, repo.DiscountCount())

	runs, err := repo.ListSyncRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRunFullSyncWithoutRunTracking(t *testing.T) {
	repo := storage.NewMockRepository()
	syncer := newTestSyncer(fullFixtureClient(), repo)
	orch := NewOrchestrator(syncer, nil, syncer.logger)

	report, err := orch.RunFullSync(context.Background(), "manual")
	require.NoError(t, err)
	assert.Zero(t, report.RunID)
	assert.Equal(t, 8, report.TotalSynced+report.TotalSkipped)
}

func TestRunReportTiming(t *testing.T) {
	repo := storage.NewMockRepository()
	orch := newTestOrchestrator(fullFixtureClient(), repo)

	before := time.Now()
	report, err := orch.RunFullSync(context.Background(), "manual")
	require.NoError(t, err)

	assert.False(t, report.StartedAt.Before(before))
	assert.False(t, report.CompletedAt.Before(report.StartedAt))
}
