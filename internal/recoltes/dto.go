package recoltes

import "github.com/shopspring/decimal"

// CreateRequest batches collections into a new recolte.
type CreateRequest struct {
	CollectionIDs         []int64          `json:"collection_ids" validate:"required,min=1,dive,gt=0"`
	CaseID                *int64           `json:"case_id,omitempty"`
	Note                  string           `json:"note,omitempty" validate:"max=500"`
	ManualAmount          *decimal.Decimal `json:"manual_amount,omitempty"`
	AmountDiscrepancyNote string           `json:"amount_discrepancy_note,omitempty" validate:"max=500"`
}

// UpdateRequest replaces the collection set and details of a recolte.
type UpdateRequest struct {
	CollectionIDs         []int64          `json:"collection_ids" validate:"required,min=1,dive,gt=0"`
	Note                  string           `json:"note,omitempty" validate:"max=500"`
	ManualAmount          *decimal.Decimal `json:"manual_amount,omitempty"`
	AmountDiscrepancyNote string           `json:"amount_discrepancy_note,omitempty" validate:"max=500"`
}
