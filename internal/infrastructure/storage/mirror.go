package storage

import (
	"fmt"

	"github.com/eventflow/efm-sync-backend/internal/adapters/efm"
)

// UpsertCountry inserts or updates a mirrored country, keyed by external ID
func (s *Store) UpsertCountry(country efm.Country) error {
	query := `
	INSERT INTO countries (efm_country_id, name, code)
	VALUES (?, ?, ?)
	ON CONFLICT(efm_country_id) DO UPDATE SET
		name = excluded.name,
		code = excluded.code,
		updated_at = CURRENT_TIMESTAMP
	`
	_, err := s.db.Exec(query, country.CountryID, country.Name, country.Code)
	return err
}

// UpsertCity inserts or updates a mirrored city. The referenced country must
// already be mirrored; otherwise ErrMissingParent is returned and no row is
// written.
func (s *Store) UpsertCity(city efm.City) error {
	countryID, err := s.lookupInternalID("countries", "efm_country_id", city.CountryID)
	if err != nil {
		return fmt.Errorf("upsert city %d: %w", city.CityID, err)
	}

	query := `
	INSERT INTO cities (efm_city_id, name, country_id, latitude, longitude)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(efm_city_id) DO UPDATE SET
		name = excluded.name,
		country_id = excluded.country_id,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		updated_at = CURRENT_TIMESTAMP
	`
	_, err = s.db.Exec(query, city.CityID, city.Name, countryID, city.Latitude, city.Longitude)
	return err
}

// UpsertCompany inserts or updates a mirrored company. The company's city is
// stored as a raw external ID: companies are a top-level resource and must
// not depend on the cities sync having run first.
func (s *Store) UpsertCompany(company efm.Company) error {
	query := `
	INSERT INTO companies (efm_company_id, name, email, phone, website, address, efm_city_id)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(efm_company_id) DO UPDATE SET
		name = excluded.name,
		email = excluded.email,
		phone = excluded.phone,
		website = excluded.website,
		address = excluded.address,
		efm_city_id = excluded.efm_city_id,
		updated_at = CURRENT_TIMESTAMP
	`
	_, err := s.db.Exec(query,
		company.CompanyID,
		company.Name,
		company.Email,
		company.Phone,
		company.Website,
		company.Address,
		company.CityID,
	)
	return err
}

// UpsertVenue inserts or updates a mirrored venue and its denormalized CRM
// account row. Both writes happen in one transaction so the account can
// never drift from its venue. The venue's external ID becomes the account's
// primary key.
func (s *Store) UpsertVenue(venue efm.Venue) error {
	cityID, err := s.lookupInternalID("cities", "efm_city_id", venue.CityID)
	if err != nil {
		return fmt.Errorf("upsert venue %d: %w", venue.VenueID, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	venueQuery := `
	INSERT INTO venues (efm_venue_id, name, city_id, address, capacity, latitude, longitude, email, phone)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(efm_venue_id) DO UPDATE SET
		name = excluded.name,
		city_id = excluded.city_id,
		address = excluded.address,
		capacity = excluded.capacity,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		email = excluded.email,
		phone = excluded.phone,
		updated_at = CURRENT_TIMESTAMP
	`
	if _, err := tx.Exec(venueQuery,
		venue.VenueID,
		venue.Name,
		cityID,
		venue.Address,
		venue.Capacity,
		venue.Latitude,
		venue.Longitude,
		venue.Email,
		venue.Phone,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert venue %d: %w", venue.VenueID, err)
	}

	// Explicit-ID insert: venues surface as CRM accounts keyed by the
	// venue's external ID
	accountQuery := `
	INSERT INTO accounts (id, name, address, city_id)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		address = excluded.address,
		city_id = excluded.city_id,
		updated_at = CURRENT_TIMESTAMP
	`
	if _, err := tx.Exec(accountQuery, venue.VenueID, venue.Name, venue.Address, cityID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert account for venue %d: %w", venue.VenueID, err)
	}

	return tx.Commit()
}

// UpsertEvent inserts or updates a mirrored event. The referenced venue must
// already be mirrored; the organizing company is kept as a raw external ID.
func (s *Store) UpsertEvent(event efm.Event) error {
	venueID, err := s.lookupInternalID("venues", "efm_venue_id", event.VenueID)
	if err != nil {
		return fmt.Errorf("upsert event %d: %w", event.EventID, err)
	}

	query := `
	INSERT INTO events (efm_event_id, name, venue_id, efm_company_id, starts_at, ends_at, status)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(efm_event_id) DO UPDATE SET
		name = excluded.name,
		venue_id = excluded.venue_id,
		efm_company_id = excluded.efm_company_id,
		starts_at = excluded.starts_at,
		ends_at = excluded.ends_at,
		status = excluded.status,
		updated_at = CURRENT_TIMESTAMP
	`
	_, err = s.db.Exec(query,
		event.EventID,
		event.Name,
		venueID,
		event.CompanyID,
		event.StartsAt,
		event.EndsAt,
		event.Status,
	)
	return err
}

// UpsertOwner inserts or updates a mirrored company owner
func (s *Store) UpsertOwner(owner efm.Owner) error {
	companyID, err := s.lookupInternalID("companies", "efm_company_id", owner.CompanyID)
	if err != nil {
		return fmt.Errorf("upsert owner %d: %w", owner.OwnerID, err)
	}

	query := `
	INSERT INTO company_owners (efm_owner_id, company_id, first_name, last_name, email, phone)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(efm_owner_id) DO UPDATE SET
		company_id = excluded.company_id,
		first_name = excluded.first_name,
		last_name = excluded.last_name,
		email = excluded.email,
		phone = excluded.phone,
		updated_at = CURRENT_TIMESTAMP
	`
	_, err = s.db.Exec(query,
		owner.OwnerID,
		companyID,
		owner.FirstName,
		owner.LastName,
		owner.Email,
		owner.Phone,
	)
	return err
}

// UpsertDiscountCode inserts or updates a mirrored discount code
func (s *Store) UpsertDiscountCode(code efm.DiscountCode) error {
	companyID, err := s.lookupInternalID("companies", "efm_company_id", code.CompanyID)
	if err != nil {
		return fmt.Errorf("upsert discount code %d: %w", code.DiscountCodeID, err)
	}

	query := `
	INSERT INTO discount_codes (efm_discount_code_id, company_id, code, percentage, valid_from, valid_to, active)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(efm_discount_code_id) DO UPDATE SET
		company_id = excluded.company_id,
		code = excluded.code,
		percentage = excluded.percentage,
		valid_from = excluded.valid_from,
		valid_to = excluded.valid_to,
		active = excluded.active,
		updated_at = CURRENT_TIMESTAMP
	`
	_, err = s.db.Exec(query,
		code.DiscountCodeID,
		companyID,
		code.Code,
		code.Percentage,
		code.ValidFrom,
		code.ValidTo,
		code.Active,
	)
	return err
}
