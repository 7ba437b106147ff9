package storage

import "time"

// Mirror row types. Each row pairs the internal autoincrement ID with the
// immutable external EFM ID it mirrors.

// CountryRow is a mirrored country
type CountryRow struct {
	ID         int64     `json:"id"`
	ExternalID int       `json:"efm_country_id"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CityRow is a mirrored city; CountryID references the countries table
type CityRow struct {
	ID         int64     `json:"id"`
	ExternalID int       `json:"efm_city_id"`
	Name       string    `json:"name"`
	CountryID  int64     `json:"country_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CompanyRow is a mirrored company
type CompanyRow struct {
	ID         int64     `json:"id"`
	ExternalID int       `json:"efm_company_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Website    string    `json:"website"`
	Address    string    `json:"address"`
	EFMCityID  int       `json:"efm_city_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// VenueRow is a mirrored venue; CityID references the cities table
type VenueRow struct {
	ID         int64     `json:"id"`
	ExternalID int       `json:"efm_venue_id"`
	Name       string    `json:"name"`
	CityID     int64     `json:"city_id"`
	Address    string    `json:"address"`
	Capacity   int       `json:"capacity"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EventRow is a mirrored event; VenueID references the venues table
type EventRow struct {
	ID           int64     `json:"id"`
	ExternalID   int       `json:"efm_event_id"`
	Name         string    `json:"name"`
	VenueID      int64     `json:"venue_id"`
	EFMCompanyID int       `json:"efm_company_id"`
	StartsAt     string    `json:"starts_at"`
	EndsAt       string    `json:"ends_at"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OwnerRow is a mirrored company owner; CompanyID references the companies table
type OwnerRow struct {
	ID         int64     `json:"id"`
	ExternalID int       `json:"efm_owner_id"`
	CompanyID  int64     `json:"company_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DiscountCodeRow is a mirrored discount code; CompanyID references the
// companies table
type DiscountCodeRow struct {
	ID         int64     `json:"id"`
	ExternalID int       `json:"efm_discount_code_id"`
	CompanyID  int64     `json:"company_id"`
	Code       string    `json:"code"`
	Percentage float64   `json:"percentage"`
	ValidFrom  string    `json:"valid_from"`
	ValidTo    string    `json:"valid_to"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AccountRow is the CRM account a venue is surfaced as. The primary key IS
// the venue's external EFM ID.
type AccountRow struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CityID    int64     `json:"city_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SyncRun is one persisted orchestration run
type SyncRun struct {
	ID              int64      `json:"id"`
	TriggerSource   string     `json:"trigger_source"`
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	TotalSynced     int        `json:"total_synced"`
	ResourcesFailed int        `json:"resources_failed"`
	ReportJSON      string     `json:"report_json,omitempty"`
}
