package storage

import "github.com/eventflow/efm-sync-backend/internal/adapters/efm"

// Repository defines the complete storage interface.
// This interface allows swapping implementations and makes testing with
// mocks straightforward.
type Repository interface {
	MirrorRepository
	SyncRunRepository
	Close() error
}

// MirrorRepository handles idempotent upserts of external EFM records into
// the local mirror tables, keyed by external ID.
//
// Child upserts (city, venue, event, owner, discount code) resolve their
// parent by external ID and return ErrMissingParent when the parent has not
// been synced; callers skip such records rather than aborting the run.
type MirrorRepository interface {
	UpsertCountry(country efm.Country) error
	UpsertCity(city efm.City) error
	UpsertCompany(company efm.Company) error

	// UpsertVenue also maintains the denormalized CRM account row whose
	// primary key is the venue's external ID.
	UpsertVenue(venue efm.Venue) error
	UpsertEvent(event efm.Event) error
	UpsertOwner(owner efm.Owner) error
	UpsertDiscountCode(code efm.DiscountCode) error

	// Read accessors, keyed by external EFM ID
	GetCountryByExternalID(externalID int) (*CountryRow, error)
	GetCityByExternalID(externalID int) (*CityRow, error)
	GetCompanyByExternalID(externalID int) (*CompanyRow, error)
	GetVenueByExternalID(externalID int) (*VenueRow, error)
	GetEventByExternalID(externalID int) (*EventRow, error)
	GetOwnerByExternalID(externalID int) (*OwnerRow, error)
	GetDiscountCodeByExternalID(externalID int) (*DiscountCodeRow, error)
	GetAccount(id int64) (*AccountRow, error)
}

// SyncRunRepository persists orchestration run history
type SyncRunRepository interface {
	// StartSyncRun records the start of an orchestration run and returns
	// the run ID
	StartSyncRun(triggerSource string) (int64, error)

	// CompleteSyncRun records the outcome of an orchestration run
	CompleteSyncRun(runID int64, totalSynced, resourcesFailed int, reportJSON string) error

	// GetSyncRun retrieves a sync run by ID
	GetSyncRun(runID int64) (*SyncRun, error)

	// ListSyncRuns returns recent sync runs, newest first
	ListSyncRuns(limit int) ([]SyncRun, error)
}
