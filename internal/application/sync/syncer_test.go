package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/efm-sync-backend/internal/adapters/efm"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/config"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/logging"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/storage"
)

// fakeClient scripts EFM responses per resource. Unset functions return an
// empty (exhausted) page.
type fakeClient struct {
	mu            stdsync.Mutex
	countriesFn   func(sinceID int) ([]efm.Country, error)
	citiesFn      func(sinceID int) ([]efm.City, error)
	companiesFn   func(sinceID int) ([]efm.Company, error)
	venuesFn      func(sinceID int) ([]efm.Venue, error)
	eventsFn      func(sinceID int) ([]efm.Event, error)
	ownersFn      func(companyID, page, pageSize int) ([]efm.Owner, error)
	discountsFn   func(companyID, page, pageSize int) ([]efm.DiscountCode, error)
	countryCalls  []int
	ownerCalls    [][3]int
	discountCalls [][3]int
}

func (f *fakeClient) FetchCountries(_ context.Context, sinceID int) ([]efm.Country, error) {
	f.mu.Lock()
	f.countryCalls = append(f.countryCalls, sinceID)
	f.mu.Unlock()
	if f.countriesFn == nil {
		return nil, nil
	}
	return f.countriesFn(sinceID)
}

func (f *fakeClient) FetchCities(_ context.Context, sinceID int) ([]efm.City, error) {
	if f.citiesFn == nil {
		return nil, nil
	}
	return f.citiesFn(sinceID)
}

func (f *fakeClient) FetchCompanies(_ context.Context, sinceID int) ([]efm.Company, error) {
	if f.companiesFn == nil {
		return nil, nil
	}
	return f.companiesFn(sinceID)
}

func (f *fakeClient) FetchVenues(_ context.Context, sinceID int) ([]efm.Venue, error) {
	if f.venuesFn == nil {
		return nil, nil
	}
	return f.venuesFn(sinceID)
}

func (f *fakeClient) FetchEvents(_ context.Context, sinceID int) ([]efm.Event, error) {
	if f.eventsFn == nil {
		return nil, nil
	}
	return f.eventsFn(sinceID)
}

func (f *fakeClient) FetchOwners(_ context.Context, companyID, page, pageSize int) ([]efm.Owner, error) {
	f.mu.Lock()
	f.ownerCalls = append(f.ownerCalls, [3]int{companyID, page, pageSize})
	f.mu.Unlock()
	if f.ownersFn == nil {
		return nil, nil
	}
	return f.ownersFn(companyID, page, pageSize)
}

func (f *fakeClient) FetchDiscountCodes(_ context.Context, companyID, page, pageSize int) ([]efm.DiscountCode, error) {
	f.mu.Lock()
	f.discountCalls = append(f.discountCalls, [3]int{companyID, page, pageSize})
	f.mu.Unlock()
	if f.discountsFn == nil {
		return nil, nil
	}
	return f.discountsFn(companyID, page, pageSize)
}

func newTestSyncer(client Client, repo storage.MirrorRepository) *Syncer {
	logger := logging.NewLogger(config.LoggingConfig{Level: "error"})
	return NewSyncer(client, repo, config.EFMConfig{PageSize: 2, MaxPageFetches: 10}, logger)
}

// pagesByCursor serves pre-cut pages keyed by the cursor that requests them
// and an empty page for any other cursor.
func pagesByCursor[T any](pages map[int][]T) func(int) ([]T, error) {
	return func(sinceID int) ([]T, error) {
		return pages[sinceID], nil
	}
}

func TestSyncCountries(t *testing.T) {
	t.Run("advances cursor to highest ID and stops on empty page", func(t *testing.T) {
		client := &fakeClient{
			countriesFn: pagesByCursor(map[int][]efm.Country{
				0: {{CountryID: 5, Name: "Germany"}, {CountryID: 9, Name: "France"}},
			}),
		}
		repo := storage.NewMockRepository()
		syncer := newTestSyncer(client, repo)

		summary := syncer.SyncCountries(context.Background())

		assert.True(t, summary.Success)
		assert.Equal(t, 2, summary.TotalSynced)
		assert.Equal(t, 0, summary.Skipped)
		assert.Equal(t, []int{0, 9}, client.countryCalls, "second request must carry the highest ID seen")
		assert.Equal(t, 2, repo.CountryCount())
	})

	t.Run("cursor survives unsorted pages", func(t *testing.T) {
		client := &fakeClient{
			countriesFn: pagesByCursor(map[int][]efm.Country{
				0: {{CountryID: 9}, {CountryID: 5}},
				9: {{CountryID: 12}},
			}),
		}
		repo := storage.NewMockRepository()
		syncer := newTestSyncer(client, repo)

		summary := syncer.SyncCountries(context.Background())

		assert.True(t, summary.Success)
		assert.Equal(t, 3, summary.TotalSynced)
		assert.Equal(t, []int{0, 9, 12}, client.countryCalls)
	})

	t.Run("fetch error surfaces a partial summary", func(t *testing.T) {
		client := &fakeClient{
			countriesFn: func(sinceID int) ([]efm.Country, error) {
				if sinceID == 0 {
					return []efm.Country{{CountryID: 5}}, nil
				}
				return nil, errors.New("bad gateway")
			},
		}
		repo := storage.NewMockRepository()
		syncer := newTestSyncer(client, repo)

		summary := syncer.SyncCountries(context.Background())

		assert.False(t, summary.Success, "a transient fetch error must not look like exhaustion")
		assert.Equal(t, 1, summary.TotalSynced)
		assert.Contains(t, summary.Message, "bad gateway")
	})

	t.Run("page fetch limit stops a non-terminating feed", func(t *testing.T) {
		calls := 0
		client := &fakeClient{
			countriesFn: func(sinceID int) ([]efm.Country, error) {
				calls++
				// Same page forever, cursor never moves past 5.
				return []efm.Country{{CountryID: 5}}, nil
			},
		}
		repo := storage.NewMockRepository()
		syncer := newTestSyncer(client, repo)

		summary := syncer.SyncCountries(context.Background())

		assert.False(t, summary.Success)
		assert.Contains(t, summary.Message, "page fetches")
		assert.Equal(t, 10, calls)
	})

	t.Run("rerun is idempotent", func(t *testing.T) {
		client := &fakeClient{
			countriesFn: pagesByCursor(map[int][]efm.Country{
				0: {{CountryID: 5, Name: "Germany"}},
			}),
		}
		repo := storage.NewMockRepository()
		syncer := newTestSyncer(client, repo)

		first := syncer.SyncCountries(context.Background())
		second := syncer.SyncCountries(context.Background())

		assert.True(t, first.Success)
		assert.True(t, second.Success)
		assert.Equal(t, 1, repo.CountryCount(), "reprocessing the same records must not duplicate rows")
	})
}

func TestSyncCities(t *testing.T) {
	t.Run("skips cities whose country is not mirrored yet", func(t *testing.T) {
		client := &fakeClient{
			citiesFn: pagesByCursor(map[int][]efm.City{
				0: {
					{CityID: 20, Name: "Berlin", CountryID: 10},
					{CityID: 21, Name: "Atlantis", CountryID: 99},
				},
			}),
		}
		repo := storage.NewMockRepository()
		require.NoError(t, repo.UpsertCountry(efm.Country{CountryID: 10}))
		syncer := newTestSyncer(client, repo)

		summary := syncer.SyncCities(context.Background())

		assert.True(t, summary.Success, "a missing parent is a skip, not a failure")
		assert.Equal(t, 1, summary.TotalSynced)
		assert.Equal(t, 1, summary.Skipped)

		_, err := repo.GetCityByExternalID(20)
		assert.NoError(t, err)
		_, err = repo.GetCityByExternalID(21)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("non-parent upsert errors are counted, not fatal", func(t *testing.T) {
		client := &fakeClient{
			citiesFn: pagesByCursor(map[int][]efm.City{
				0: {{CityID: 20, CountryID: 10}},
			}),
		}
		repo := storage.NewMockRepository()
		require.NoError(t, repo.UpsertCountry(efm.Country{CountryID: 10}))
		repo.UpsertErr["city"] = errors.New("disk full")
		syncer := newTestSyncer(client, repo)

		summary := syncer.SyncCities(context.Background())

		assert.False(t, summary.Success)
		assert.Equal(t, 1, summary.Failed)
		assert.Equal(t, 0, summary.TotalSynced)
		assert.Contains(t, summary.Message, "disk full")
	})
}

// brokenVenueRepo fails the upsert of one specific venue and delegates the
// rest to the in-memory mock.
type brokenVenueRepo struct {
	*storage.MockRepository
	failID int
}

func (r *brokenVenueRepo) UpsertVenue(v efm.Venue) error {
	if v.VenueID == r.failID {
		return errors.New("constraint violation")
	}
	return r.MockRepository.UpsertVenue(v)
}

// brokenOwnerRepo fails the upsert of one specific owner.
type brokenOwnerRepo struct {
	*storage.MockRepository
	failID int
}

func (r *brokenOwnerRepo) UpsertOwner(o efm.Owner) error {
	if o.OwnerID == r.failID {
		return errors.New("constraint violation")
	}
	return r.MockRepository.UpsertOwner(o)
}

func TestSyncVenues(t *testing.T) {
	t.Run("one bad record does not block the rest of the page", func(t *testing.T) {
		client := &fakeClient{
			venuesFn: pagesByCursor(map[int][]efm.Venue{
				0: {
					{VenueID: 300, Name: "Velodrom", CityID: 20},
					{VenueID: 301, Name: "Tempodrom", CityID: 20},
				},
			}),
		}
		mock := storage.NewMockRepository()
		require.NoError(t, mock.UpsertCountry(efm.Country{CountryID: 10}))
		require.NoError(t, mock.UpsertCity(efm.City{CityID: 20, CountryID: 10}))
		repo := &brokenVenueRepo{MockRepository: mock, failID: 300}
		syncer := newTestSyncer(client, repo)

		summary := syncer.SyncVenues(context.Background())

		assert.False(t, summary.Success)
		assert.Equal(t, 1, summary.TotalSynced, "venue 301 must still be mirrored")
		assert.Equal(t, 1, summary.Failed)
		assert.Equal(t, 0, summary.Skipped)
		assert.Contains(t, summary.Message, "record 300")

		_, err := mock.GetVenueByExternalID(301)
		assert.NoError(t, err)
		_, err = mock.GetVenueByExternalID(300)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("failed records still advance the cursor", func(t *testing.T) {
		calls := []int{}
		client := &fakeClient{
			venuesFn: func(sinceID int) ([]efm.Venue, error) {
				calls = append(calls, sinceID)
				if sinceID == 0 {
					return []efm.Venue{{VenueID: 300, CityID: 20}}, nil
				}
				return nil, nil
			},
		}
		mock := storage.NewMockRepository()
		require.NoError(t, mock.UpsertCountry(efm.Country{CountryID: 10}))
		require.NoError(t, mock.UpsertCity(efm.City{CityID: 20, CountryID: 10}))
		repo := &brokenVenueRepo{MockRepository: mock, failID: 300}
		syncer := newTestSyncer(client, repo)

		summary := syncer.SyncVenues(context.Background())

		assert.Equal(t, 1, summary.Failed)
		assert.Equal(t, []int{0, 300}, calls, "a failing record must not pin the cursor")
	})
}

func TestSyncCompanies(t *testing.T) {
	client := &fakeClient{
		companiesFn: pagesByCursor(map[int][]efm.Company{
			0:  {{CompanyID: 70}, {CompanyID: 77}},
			77: {{CompanyID: 80}},
		}),
	}
	repo := storage.NewMockRepository()
	syncer := newTestSyncer(client, repo)

	summary, companyIDs := syncer.SyncCompanies(context.Background())

	assert.True(t, summary.Success)
	assert.Equal(t, 3, summary.TotalSynced)
	assert.Equal(t, []int{70, 77, 80}, companyIDs)
}

func TestSyncOwners(t *testing.T) {
	t.Run("pages from 1 until an empty page", func(t *testing.T) {
		client := &fakeClient{
			ownersFn: func(companyID, page, pageSize int) ([]efm.Owner, error) {
				switch page {
				case 1:
					return []efm.Owner{{OwnerID: 501, CompanyID: companyID}, {OwnerID: 502, CompanyID: companyID}}, nil
				case 2:
					return []efm.Owner{{OwnerID: 503, CompanyID: companyID}}, nil
				default:
					return nil, nil
				}
			},
		}
		repo := storage.NewMockRepository()
		require.NoError(t, repo.UpsertCompany(efm.Company{CompanyID: 77}))
		syncer := newTestSyncer(client, repo)

		summary := syncer.SyncOwners(context.Background(), 77)

		assert.True(t, summary.Success)
		assert.Equal(t, 3, summary.TotalSynced)
		assert.Equal(t, [][3]int{{77, 1, 2}, {77, 2, 2}, {77, 3, 2}}, client.ownerCalls)
		assert.Equal(t, 3, repo.OwnerCount())
	})

	t.Run("one bad owner does not block the rest", func(t *testing.T) {
		client := &fakeClient{
			ownersFn: func(companyID, page, pageSize int) ([]efm.Owner, error) {
				if page > 1 {
					return nil, nil
				}
				return []efm.Owner{{OwnerID: 501, CompanyID: companyID}, {OwnerID: 502, CompanyID: companyID}}, nil
			},
		}
		mock := storage.NewMockRepository()
		require.NoError(t, mock.UpsertCompany(efm.Company{CompanyID: 77}))
		repo := &brokenOwnerRepo{MockRepository: mock, failID: 501}
		syncer := newTestSyncer(client, repo)

		summary := syncer.SyncOwners(context.Background(), 77)

		assert.False(t, summary.Success)
		assert.Equal(t, 1, summary.TotalSynced)
		assert.Equal(t, 1, summary.Failed)
		assert.Equal(t, 1, mock.OwnerCount())
	})

	t.Run("fetch error surfaces as failure", func(t *testing.T) {
		client := &fakeClient{
			ownersFn: func(companyID, page, pageSize int) ([]efm.Owner, error) {
				return nil, errors.New("timeout")
			},
		}
		repo := storage.NewMockRepository()
		require.NoError(t, repo.UpsertCompany(efm.Company{CompanyID: 77}))
		syncer := newTestSyncer(client, repo)

		summary := syncer.SyncOwners(context.Background(), 77)

		assert.False(t, summary.Success)
		assert.Contains(t, summary.Message, "timeout")
	})
}

func TestSyncResource(t *testing.T) {
	repo := storage.NewMockRepository()
	syncer := newTestSyncer(&fakeClient{}, repo)

	t.Run("accepts every top-level resource", func(t *testing.T) {
		for _, resource := range TopLevelResources() {
			summary, err := syncer.SyncResource(context.Background(), resource)
			require.NoError(t, err, resource)
			assert.True(t, summary.Success, resource)
		}
	})

	t.Run("rejects unknown and company-scoped resources", func(t *testing.T) {
		_, err := syncer.SyncResource(context.Background(), "discount_codes")
		assert.Error(t, err)
		_, err = syncer.SyncResource(context.Background(), "bogus")
		assert.Error(t, err)
	})
}
