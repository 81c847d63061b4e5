// Package settlement imports driver settlement sheets: a driver id plus the
// tracking numbers extracted upstream from the settlement PDF, turned into
// collections and a single recolte in one transaction.
package settlement

import "github.com/shopspring/decimal"

// RowOutcome classifies one tracking number of an import.
type RowOutcome string

const (
	RowCreated RowOutcome = "created"
	RowSkipped RowOutcome = "skipped"
)

// RowResult reports what happened to one tracking number.
type RowResult struct {
	TrackingNumber string     `json:"tracking_number"`
	Outcome        RowOutcome `json:"outcome"`
	Reason         string     `json:"reason,omitempty"`
	CollectionID   int64      `json:"collection_id,omitempty"`
}

// Result is the outcome of a whole settlement import.
type Result struct {
	DriverID    int64           `json:"driver_id"`
	RecolteID   int64           `json:"recolte_id"`
	RecolteCode string          `json:"recolte_code"`
	Total       decimal.Decimal `json:"total"`
	Rows        []RowResult     `json:"rows"`
}
