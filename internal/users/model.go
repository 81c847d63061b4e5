// Package users manages staff accounts and the role model the rest of the
// service gates on.
package users

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/colisnet/colisnet/internal/shared"
)

// User is a staff account. PasswordHash is a bcrypt digest and never leaves
// the package.
type User struct {
	ID                    int64           `json:"id"`
	Name                  string          `json:"name"`
	Email                 string          `json:"email"`
	PasswordHash          string          `json:"-"`
	Role                  shared.Role     `json:"role"`
	BaseSalary            decimal.Decimal `json:"base_salary"`
	MonthlyCommissionRate decimal.Decimal `json:"monthly_commission_rate"`
	Active                bool            `json:"active"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}
