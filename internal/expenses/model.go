// Package expenses models cash outflows and their approval workflow.
package expenses

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the expense approval lifecycle.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusPaid     Status = "paid"
	StatusRejected Status = "rejected"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusPaid, StatusRejected:
		return true
	default:
		return false
	}
}

// CanApprove checks if the expense can be approved.
func (s Status) CanApprove() bool { return s == StatusPending }

// CanPay checks if the expense can be marked paid.
func (s Status) CanPay() bool { return s == StatusApproved }

// CanReject checks if the expense can be rejected.
func (s Status) CanReject() bool { return s == StatusPending }

// CanEdit checks if the expense can still be edited.
func (s Status) CanEdit() bool { return s == StatusPending }

// CanDelete checks if the expense can be removed.
func (s Status) CanDelete() bool { return s == StatusPending || s == StatusRejected }

// RefKind tags the payment record an expense mirrors.
type RefKind string

const (
	RefSalary     RefKind = "salary"
	RefCommission RefKind = "commission"
)

// PaymentRef links a mirrored expense back to the payroll record that
// generated it.
type PaymentRef struct {
	Kind RefKind `json:"kind"`
	ID   int64   `json:"id"`
}

// ExpenseCategory groups expenses for reporting.
type ExpenseCategory struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Expense is one cash outflow, optionally attributed to a money case or a
// recolte.
type Expense struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CategoryID    *int64          `json:"category_id,omitempty"`
	Status        Status          `json:"status"`
	PaymentMethod *string         `json:"payment_method,omitempty"`
	PaymentDate   *time.Time      `json:"payment_date,omitempty"`
	CaseID        *int64          `json:"case_id,omitempty"`
	RecolteID     *int64          `json:"recolte_id,omitempty"`
	Ref           *PaymentRef     `json:"ref,omitempty"`
	CreatedBy     int64           `json:"created_by"`
	ApprovedBy    *int64          `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	PaidBy        *int64          `json:"paid_by,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	RejectedBy    *int64          `json:"rejected_by,omitempty"`
	RejectedAt    *time.Time      `json:"rejected_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
