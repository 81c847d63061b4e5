// Package cases manages money cases: named cash drawers whose balances are
// derived from attributed collections minus expenses.
package cases

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates money case availability.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// MoneyCase represents one cash drawer. Balance is a cached snapshot; the
// source of truth is always recomputed from collections and expenses.
type MoneyCase struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Status          Status          `json:"status"`
	Balance         decimal.Decimal `json:"balance"`
	LastActiveBy    *int64          `json:"last_active_by,omitempty"`
	LastActivatedAt *time.Time      `json:"last_activated_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// HeldBy reports whether the drawer is currently claimed by the given user.
func (c MoneyCase) HeldBy(userID int64) bool {
	return c.LastActiveBy != nil && *c.LastActiveBy == userID
}
