// Package recoltes freezes sets of collections into immutable transfer
// batches ("recoltes") and frees the money cases whose cash they carry.
package recoltes

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recolte is one harvest batch of collections.
type Recolte struct {
	ID                    int64            `json:"id"`
	Code                  string           `json:"code"`
	Note                  string           `json:"note,omitempty"`
	ManualAmount          *decimal.Decimal `json:"manual_amount,omitempty"`
	AmountDiscrepancyNote string           `json:"amount_discrepancy_note,omitempty"`
	TransferRequestID     *int64           `json:"transfer_request_id,omitempty"`
	CreatedBy             int64            `json:"created_by"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// Summary reports the computed total of a recolte against the physical count.
type Summary struct {
	RecolteID       int64            `json:"recolte_id"`
	Code            string           `json:"code"`
	CollectionCount int              `json:"collection_count"`
	ComputedTotal   decimal.Decimal  `json:"computed_total"`
	ManualAmount    *decimal.Decimal `json:"manual_amount,omitempty"`
	Discrepancy     *decimal.Decimal `json:"discrepancy,omitempty"`
	DiscrepancyNote string           `json:"discrepancy_note,omitempty"`
}

// LockedCollection is the snapshot of a collection row taken under lock
// while batching.
type LockedCollection struct {
	ID       int64
	CaseID   *int64
	Recolted bool
}
