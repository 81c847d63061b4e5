// Package payroll tracks salary and commission payments and mirrors each of
// them as an expense so payroll money shows up in the same ledger as every
// other outflow.
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the payment lifecycle. Payments start pending and flip to paid
// exactly once, together with their mirrored expense.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// CanPay checks if the payment can be marked paid.
func (s Status) CanPay() bool { return s == StatusPending }

// SalaryPayment is one user's salary for one period. (user_id, period) is
// unique.
type SalaryPayment struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Period    string          `json:"period"`
	Amount    decimal.Decimal `json:"amount"`
	Status    Status          `json:"status"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CommissionPayment pays out the driver commission earned on a single
// collection. collection_id is unique.
type CommissionPayment struct {
	ID           int64           `json:"id"`
	CollectionID int64           `json:"collection_id"`
	DriverID     int64           `json:"driver_id"`
	Amount       decimal.Decimal `json:"amount"`
	Status       Status          `json:"status"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// GenerateResult reports what a monthly payroll run produced.
type GenerateResult struct {
	Period             string `json:"period"`
	SalariesCreated    int    `json:"salaries_created"`
	CommissionsCreated int    `json:"commissions_created"`
}
