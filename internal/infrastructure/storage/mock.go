package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/eventflow/efm-sync-backend/internal/adapters/efm"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It enforces the same parent-resolution rules as the SQLite store and is
// safe for the orchestrator's concurrent upserts.
type MockRepository struct {
	mu sync.Mutex

	countries map[int]efm.Country
	cities    map[int]efm.City
	companies map[int]efm.Company
	venues    map[int]efm.Venue
	events    map[int]efm.Event
	owners    map[int]efm.Owner
	discounts map[int]efm.DiscountCode
	accounts  map[int64]AccountRow
	syncRuns  map[int64]*SyncRun
	nextRunID int64

	// Error injection for testing error paths, keyed by resource kind
	// ("country", "city", "company", "venue", "event", "owner", "discount")
	UpsertErr map[string]error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		countries: make(map[int]efm.Country),
		cities:    make(map[int]efm.City),
		companies: make(map[int]efm.Company),
		venues:    make(map[int]efm.Venue),
		events:    make(map[int]efm.Event),
		owners:    make(map[int]efm.Owner),
		discounts: make(map[int]efm.DiscountCode),
		accounts:  make(map[int64]AccountRow),
		syncRuns:  make(map[int64]*SyncRun),
		nextRunID: 1,
		UpsertErr: make(map[string]error),
	}
}

// Close is a no-op for the mock
func (m *MockRepository) Close() error { return nil }

// UpsertCountry stores a country record
func (m *MockRepository) UpsertCountry(country efm.Country) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.UpsertErr["country"]; err != nil {
		return err
	}
	m.countries[country.CountryID] = country
	return nil
}

// UpsertCity stores a city record, enforcing the country parent rule
func (m *MockRepository) UpsertCity(city efm.City) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.UpsertErr["city"]; err != nil {
		return err
	}
	if _, ok := m.countries[city.CountryID]; !ok {
		return fmt.Errorf("%w: countries %d", ErrMissingParent, city.CountryID)
	}
	m.cities[city.CityID] = city
	return nil
}

// UpsertCompany stores a company record
func (m *MockRepository) UpsertCompany(company efm.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.UpsertErr["company"]; err != nil {
		return err
	}
	m.companies[company.CompanyID] = company
	return nil
}

// UpsertVenue stores a venue record and its account row, enforcing the city
// parent rule
func (m *MockRepository) UpsertVenue(venue efm.Venue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.UpsertErr["venue"]; err != nil {
		return err
	}
	if _, ok := m.cities[venue.CityID]; !ok {
		return fmt.Errorf("%w: cities %d", ErrMissingParent, venue.CityID)
	}
	m.venues[venue.VenueID] = venue

	now := time.Now()
	account, exists := m.accounts[int64(venue.VenueID)]
	if !exists {
		account = AccountRow{ID: int64(venue.VenueID), CreatedAt: now}
	}
	account.Name = venue.Name
	account.Address = venue.Address
	account.CityID = int64(venue.CityID)
	account.UpdatedAt = now
	m.accounts[int64(venue.VenueID)] = account
	return nil
}

// UpsertEvent stores an event record, enforcing the venue parent rule
func (m *MockRepository) UpsertEvent(event efm.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.UpsertErr["event"]; err != nil {
		return err
	}
	if _, ok := m.venues[event.VenueID]; !ok {
		return fmt.Errorf("%w: venues %d", ErrMissingParent, event.VenueID)
	}
	m.events[event.EventID] = event
	return nil
}

// UpsertOwner stores an owner record, enforcing the company parent rule
func (m *MockRepository) UpsertOwner(owner efm.Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.UpsertErr["owner"]; err != nil {
		return err
	}
	if _, ok := m.companies[owner.CompanyID]; !ok {
		return fmt.Errorf("%w: companies %d", ErrMissingParent, owner.CompanyID)
	}
	m.owners[owner.OwnerID] = owner
	return nil
}

// UpsertDiscountCode stores a discount code record, enforcing the company
// parent rule
func (m *MockRepository) UpsertDiscountCode(code efm.DiscountCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.UpsertErr["discount"]; err != nil {
		return err
	}
	if _, ok := m.companies[code.CompanyID]; !ok {
		return fmt.Errorf("%w: companies %d", ErrMissingParent, code.CompanyID)
	}
	m.discounts[code.DiscountCodeID] = code
	return nil
}

// GetCountryByExternalID retrieves a stored country
func (m *MockRepository) GetCountryByExternalID(externalID int) (*CountryRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.countries[externalID]
	if !ok {
		return nil, fmt.Errorf("%w: country %d", ErrNotFound, externalID)
	}
	return &CountryRow{ID: int64(c.CountryID), ExternalID: c.CountryID, Name: c.Name, Code: c.Code}, nil
}

// GetCityByExternalID retrieves a stored city
func (m *MockRepository) GetCityByExternalID(externalID int) (*CityRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cities[externalID]
	if !ok {
		return nil, fmt.Errorf("%w: city %d", ErrNotFound, externalID)
	}
	return &CityRow{
		ID:         int64(c.CityID),
		ExternalID: c.CityID,
		Name:       c.Name,
		CountryID:  int64(c.CountryID),
		Latitude:   c.Latitude,
		Longitude:  c.Longitude,
	}, nil
}

// GetCompanyByExternalID retrieves a stored company
func (m *MockRepository) GetCompanyByExternalID(externalID int) (*CompanyRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[externalID]
	if !ok {
		return nil, fmt.Errorf("%w: company %d", ErrNotFound, externalID)
	}
	return &CompanyRow{
		ID:         int64(c.CompanyID),
		ExternalID: c.CompanyID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		Website:    c.Website,
		Address:    c.Address,
		EFMCityID:  c.CityID,
	}, nil
}

// GetVenueByExternalID retrieves a stored venue
func (m *MockRepository) GetVenueByExternalID(externalID int) (*VenueRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.venues[externalID]
	if !ok {
		return nil, fmt.Errorf("%w: venue %d", ErrNotFound, externalID)
	}
	return &VenueRow{
		ID:         int64(v.VenueID),
		ExternalID: v.VenueID,
		Name:       v.Name,
		CityID:     int64(v.CityID),
		Address:    v.Address,
		Capacity:   v.Capacity,
		Latitude:   v.Latitude,
		Longitude:  v.Longitude,
		Email:      v.Email,
		Phone:      v.Phone,
	}, nil
}

// GetEventByExternalID retrieves a stored event
func (m *MockRepository) GetEventByExternalID(externalID int) (*EventRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[externalID]
	if !ok {
		return nil, fmt.Errorf("%w: event %d", ErrNotFound, externalID)
	}
	return &EventRow{
		ID:           int64(e.EventID),
		ExternalID:   e.EventID,
		Name:         e.Name,
		VenueID:      int64(e.VenueID),
		EFMCompanyID: e.CompanyID,
		StartsAt:     e.StartsAt,
		EndsAt:       e.EndsAt,
		Status:       e.Status,
	}, nil
}

// GetOwnerByExternalID retrieves a stored owner
func (m *MockRepository) GetOwnerByExternalID(externalID int) (*OwnerRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.owners[externalID]
	if !ok {
		return nil, fmt.Errorf("%w: owner %d", ErrNotFound, externalID)
	}
	return &OwnerRow{
		ID:         int64(o.OwnerID),
		ExternalID: o.OwnerID,
		CompanyID:  int64(o.CompanyID),
		FirstName:  o.FirstName,
		LastName:   o.LastName,
		Email:      o.Email,
		Phone:      o.Phone,
	}, nil
}

// GetDiscountCodeByExternalID retrieves a stored discount code
func (m *MockRepository) GetDiscountCodeByExternalID(externalID int) (*DiscountCodeRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.discounts[externalID]
	if !ok {
		return nil, fmt.Errorf("%w: discount code %d", ErrNotFound, externalID)
	}
	return &DiscountCodeRow{
		ID:         int64(d.DiscountCodeID),
		ExternalID: d.DiscountCodeID,
		CompanyID:  int64(d.CompanyID),
		Code:       d.Code,
		Percentage: d.Percentage,
		ValidFrom:  d.ValidFrom,
		ValidTo:    d.ValidTo,
		Active:     d.Active,
	}, nil
}

// GetAccount retrieves a stored account row
func (m *MockRepository) GetAccount(id int64) (*AccountRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: account %d", ErrNotFound, int(id))
	}
	return &a, nil
}

// StartSyncRun records a new run
func (m *MockRepository) StartSyncRun(triggerSource string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextRunID
	m.nextRunID++
	m.syncRuns[id] = &SyncRun{
		ID:            id,
		TriggerSource: triggerSource,
		Status:        "running",
		StartedAt:     time.Now(),
	}
	return id, nil
}

// CompleteSyncRun records a run's outcome
func (m *MockRepository) CompleteSyncRun(runID int64, totalSynced, resourcesFailed int, reportJSON string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.syncRuns[runID]
	if !ok {
		return fmt.Errorf("%w: sync run %d", ErrNotFound, int(runID))
	}
	now := time.Now()
	run.CompletedAt = &now
	run.TotalSynced = totalSynced
	run.ResourcesFailed = resourcesFailed
	run.ReportJSON = reportJSON
	if resourcesFailed > 0 {
		run.Status = "completed_with_errors"
	} else {
		run.Status = "completed"
	}
	return nil
}

// GetSyncRun retrieves a run by ID
func (m *MockRepository) GetSyncRun(runID int64) (*SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.syncRuns[runID]
	if !ok {
		return nil, fmt.Errorf("%w: sync run %d", ErrNotFound, int(runID))
	}
	copied := *run
	return &copied, nil
}

// ListSyncRuns returns stored runs, newest first
func (m *MockRepository) ListSyncRuns(limit int) ([]SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var runs []SyncRun
	for id := m.nextRunID - 1; id >= 1 && len(runs) < limit; id-- {
		if run, ok := m.syncRuns[id]; ok {
			runs = append(runs, *run)
		}
	}
	return runs, nil
}

// CountryCount reports how many countries are stored (test helper)
func (m *MockRepository) CountryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.countries)
}

// OwnerCount reports how many owners are stored (test helper)
func (m *MockRepository) OwnerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.owners)
}

// DiscountCount reports how many discount codes are stored (test helper)
func (m *MockRepository) DiscountCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.discounts)
}
