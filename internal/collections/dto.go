package collections

import "github.com/shopspring/decimal"

// CreateRequest records one cash-collection event.
type CreateRequest struct {
	ParcelID         int64            `json:"parcel_id" validate:"required,gt=0"`
	Amount           decimal.Decimal  `json:"amount"`
	AmountGiven      decimal.Decimal  `json:"amount_given"`
	CaseID           *int64           `json:"case_id,omitempty"`
	DriverID         *int64           `json:"driver_id,omitempty"`
	DriverCommission *decimal.Decimal `json:"driver_commission,omitempty"`
}

// ReattributeRequest moves an un-recolted collection to another case.
type ReattributeRequest struct {
	CaseID *int64 `json:"case_id"`
}

// CreateResponse returns the stored collection plus the display-only change
// amount (cash handed over minus the parcel's COD amount). Never persisted.
type CreateResponse struct {
	Collection Collection      `json:"collection"`
	Change     decimal.Decimal `json:"change"`
}
