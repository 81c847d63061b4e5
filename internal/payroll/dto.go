package payroll

// CreateSalaryRequest records a salary payment for one user. Amount
// defaults to the user's base salary when omitted.
type CreateSalaryRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Period string `json:"period" validate:"required"`
	Amount string `json:"amount" validate:"omitempty"`
}

// CreateCommissionRequest pays out the commission of one collection.
type CreateCommissionRequest struct {
	CollectionID int64 `json:"collection_id" validate:"required,gt=0"`
}

// GenerateRequest triggers a payroll run for a period.
type GenerateRequest struct {
	Period string `json:"period" validate:"required"`
}
