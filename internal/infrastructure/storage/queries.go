package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetCountryByExternalID retrieves a mirrored country by its EFM ID
func (s *Store) GetCountryByExternalID(externalID int) (*CountryRow, error) {
	row := &CountryRow{}
	err := s.db.QueryRow(`
		SELECT id, efm_country_id, name, code, created_at, updated_at
		FROM countries WHERE efm_country_id = ?
	`, externalID).Scan(&row.ID, &row.ExternalID, &row.Name, &row.Code, &row.CreatedAt, &row.UpdatedAt)
	return row, wrapNotFound(err, "country", externalID)
}

// GetCityByExternalID retrieves a mirrored city by its EFM ID
func (s *Store) GetCityByExternalID(externalID int) (*CityRow, error) {
	row := &CityRow{}
	err := s.db.QueryRow(`
		SELECT id, efm_city_id, name, country_id, latitude, longitude, created_at, updated_at
		FROM cities WHERE efm_city_id = ?
	`, externalID).Scan(&row.ID, &row.ExternalID, &row.Name, &row.CountryID, &row.Latitude, &row.Longitude, &row.CreatedAt, &row.UpdatedAt)
	return row, wrapNotFound(err, "city", externalID)
}

// GetCompanyByExternalID retrieves a mirrored company by its EFM ID
func (s *Store) GetCompanyByExternalID(externalID int) (*CompanyRow, error) {
	row := &CompanyRow{}
	err := s.db.QueryRow(`
		SELECT id, efm_company_id, name, email, phone, website, address, efm_city_id, created_at, updated_at
		FROM companies WHERE efm_company_id = ?
	`, externalID).Scan(&row.ID, &row.ExternalID, &row.Name, &row.Email, &row.Phone, &row.Website, &row.Address, &row.EFMCityID, &row.CreatedAt, &row.UpdatedAt)
	return row, wrapNotFound(err, "company", externalID)
}

// GetVenueByExternalID retrieves a mirrored venue by its EFM ID
func (s *Store) GetVenueByExternalID(externalID int) (*VenueRow, error) {
	row := &VenueRow{}
	err := s.db.QueryRow(`
		SELECT id, efm_venue_id, name, city_id, address, capacity, latitude, longitude, email, phone, created_at, updated_at
		FROM venues WHERE efm_venue_id = ?
	`, externalID).Scan(&row.ID, &row.ExternalID, &row.Name, &row.CityID, &row.Address, &row.Capacity, &row.Latitude, &row.Longitude, &row.Email, &row.Phone, &row.CreatedAt, &row.UpdatedAt)
	return row, wrapNotFound(err, "venue", externalID)
}

// GetEventByExternalID retrieves a mirrored event by its EFM ID
func (s *Store) GetEventByExternalID(externalID int) (*EventRow, error) {
	row := &EventRow{}
	err := s.db.QueryRow(`
		SELECT id, efm_event_id, name, venue_id, efm_company_id, starts_at, ends_at, status, created_at, updated_at
		FROM events WHERE efm_event_id = ?
	`, externalID).Scan(&row.ID, &row.ExternalID, &row.Name, &row.VenueID, &row.EFMCompanyID, &row.StartsAt, &row.EndsAt, &row.Status, &row.CreatedAt, &row.UpdatedAt)
	return row, wrapNotFound(err, "event", externalID)
}

// GetOwnerByExternalID retrieves a mirrored owner by its EFM ID
func (s *Store) GetOwnerByExternalID(externalID int) (*OwnerRow, error) {
	row := &OwnerRow{}
	err := s.db.QueryRow(`
		SELECT id, efm_owner_id, company_id, first_name, last_name, email, phone, created_at, updated_at
		FROM company_owners WHERE efm_owner_id = ?
	`, externalID).Scan(&row.ID, &row.ExternalID, &row.CompanyID, &row.FirstName, &row.LastName, &row.Email, &row.Phone, &row.CreatedAt, &row.UpdatedAt)
	return row, wrapNotFound(err, "owner", externalID)
}

// GetDiscountCodeByExternalID retrieves a mirrored discount code by its EFM ID
func (s *Store) GetDiscountCodeByExternalID(externalID int) (*DiscountCodeRow, error) {
	row := &DiscountCodeRow{}
	err := s.db.QueryRow(`
		SELECT id, efm_discount_code_id, company_id, code, percentage, valid_from, valid_to, active, created_at, updated_at
		FROM discount_codes WHERE efm_discount_code_id = ?
	`, externalID).Scan(&row.ID, &row.ExternalID, &row.CompanyID, &row.Code, &row.Percentage, &row.ValidFrom, &row.ValidTo, &row.Active, &row.CreatedAt, &row.UpdatedAt)
	return row, wrapNotFound(err, "discount code", externalID)
}

// GetAccount retrieves a CRM account row (keyed by venue external ID)
func (s *Store) GetAccount(id int64) (*AccountRow, error) {
	row := &AccountRow{}
	err := s.db.QueryRow(`
		SELECT id, name, address, city_id, created_at, updated_at
		FROM accounts WHERE id = ?
	`, id).Scan(&row.ID, &row.Name, &row.Address, &row.CityID, &row.CreatedAt, &row.UpdatedAt)
	return row, wrapNotFound(err, "account", int(id))
}

// wrapNotFound converts sql.ErrNoRows into ErrNotFound with context
func wrapNotFound(err error, kind string, externalID int) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %d", ErrNotFound, kind, externalID)
	}
	return err
}
