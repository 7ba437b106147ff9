package dto

// DiscountCodeRequest is the request body for creating or updating a
// discount code. Writes go to the EFM API first; the local mirror is
// refreshed with the response.
type DiscountCodeRequest struct {
	CompanyID  int     `json:"company_id"`
	Code       string  `json:"code"`
	Percentage float64 `json:"percentage"`
	ValidFrom  string  `json:"valid_from"`
	ValidTo    string  `json:"valid_to"`
	Active     bool    `json:"active"`
}

// DiscountCodeResponse is a discount code as confirmed by EFM.
type DiscountCodeResponse struct {
	DiscountCodeID int     `json:"discount_code_id"`
	CompanyID      int     `json:"company_id"`
	Code           string  `json:"code"`
	Percentage     float64 `json:"percentage"`
	ValidFrom      string  `json:"valid_from"`
	ValidTo        string  `json:"valid_to"`
	Active         bool    `json:"active"`
}
