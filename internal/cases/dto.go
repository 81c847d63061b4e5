package cases

import "github.com/shopspring/decimal"

// CreateRequest carries the fields to register a drawer.
type CreateRequest struct {
	Name string `json:"name" validate:"required,min=2,max=64"`
}

// StatusRequest switches a drawer between active and inactive.
type StatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

// BalanceResponse reports the derived balance of a drawer.
type BalanceResponse struct {
	CaseID  int64           `json:"case_id"`
	Balance decimal.Decimal `json:"balance"`
}
