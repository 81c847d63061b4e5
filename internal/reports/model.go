// Package reports assembles read-only statements for the back office.
package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// CaseStatement is the money-case statement shown on the dashboard.
type CaseStatement struct {
	CaseID           int64           `json:"case_id"`
	CaseName         string          `json:"case_name"`
	Status           string          `json:"status"`
	Balance          decimal.Decimal `json:"balance"`
	BalanceDisplay   string          `json:"balance_display"`
	CollectionsTotal decimal.Decimal `json:"collections_total"`
	CollectionsCount int             `json:"collections_count"`
	ExpensesTotal    decimal.Decimal `json:"expenses_total"`
	ExpensesCount    int             `json:"expenses_count"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

// RecolteStatement is the recolte summary with its discrepancy rendered.
type RecolteStatement struct {
	RecolteID          int64            `json:"recolte_id"`
	Code               string           `json:"code"`
	CollectionsCount   int              `json:"collections_count"`
	ComputedTotal      decimal.Decimal  `json:"computed_total"`
	TotalDisplay       string           `json:"total_display"`
	ManualAmount       *decimal.Decimal `json:"manual_amount,omitempty"`
	Discrepancy        *decimal.Decimal `json:"discrepancy,omitempty"`
	DiscrepancyDisplay string           `json:"discrepancy_display,omitempty"`
	GeneratedAt        time.Time        `json:"generated_at"`
}
