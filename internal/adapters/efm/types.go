package efm

// External record shapes as served by the EFM API. Each record carries an
// immutable numeric ID owned by EFM; the local mirror is keyed by that ID.

// Country is a top-level reference record
type Country struct {
	CountryID int    `json:"countryID"`
	Name      string `json:"name"`
	Code      string `json:"code"`
}

// City references its Country by external ID
type City struct {
	CityID    int     `json:"cityID"`
	Name      string  `json:"name"`
	CountryID int     `json:"countryID"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Company is a top-level directory entry; owners and discount codes are
// fetched per company
type Company struct {
	CompanyID int    `json:"companyID"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Website   string `json:"website"`
	Address   string `json:"address"`
	CityID    int    `json:"cityID"`
}

// Venue references its City by external ID. Venues are surfaced as CRM
// accounts on the local side.
type Venue struct {
	VenueID   int     `json:"venueID"`
	Name      string  `json:"name"`
	CityID    int     `json:"cityID"`
	Address   string  `json:"address"`
	Capacity  int     `json:"capacity"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
}

// Event references its Venue and organizing Company by external ID
type Event struct {
	EventID   int    `json:"eventID"`
	Name      string `json:"name"`
	VenueID   int    `json:"venueID"`
	CompanyID int    `json:"companyID"`
	StartsAt  string `json:"startsAt"`
	EndsAt    string `json:"endsAt"`
	Status    string `json:"status"`
}

// Owner is a company-scoped contact record
type Owner struct {
	OwnerID   int    `json:"ownerID"`
	CompanyID int    `json:"companyID"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// DiscountCode is a company-scoped financial record. Unlike the other
// resources it also has a write path (Create/Update) back to EFM.
type DiscountCode struct {
	DiscountCodeID int     `json:"discountCodeID"`
	CompanyID      int     `json:"companyID"`
	Code           string  `json:"code"`
	Percentage     float64 `json:"percentage"`
	ValidFrom      string  `json:"validFrom"`
	ValidTo        string  `json:"validTo"`
	Active         bool    `json:"active"`
}
