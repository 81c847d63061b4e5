package expenses

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateRequest records a manual expense.
type CreateRequest struct {
	Title      string          `json:"title" validate:"required,min=2,max=190"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency" validate:"omitempty,len=3"`
	CategoryID *int64          `json:"category_id,omitempty"`
	CaseID     *int64          `json:"case_id,omitempty"`
	RecolteID  *int64          `json:"recolte_id,omitempty"`
}

// UpdateRequest edits a pending expense.
type UpdateRequest struct {
	Title      string          `json:"title" validate:"required,min=2,max=190"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency" validate:"omitempty,len=3"`
	CategoryID *int64          `json:"category_id,omitempty"`
	CaseID     *int64          `json:"case_id,omitempty"`
	RecolteID  *int64          `json:"recolte_id,omitempty"`
}

// PayRequest marks an approved expense as paid.
type PayRequest struct {
	PaymentMethod string     `json:"payment_method" validate:"required,min=2,max=64"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
}

// CategoryRequest creates an expense category.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=64"`
}
