package users

// CreateRequest registers a new staff account.
type CreateRequest struct {
	Name                  string `json:"name" validate:"required,min=2,max=120"`
	Email                 string `json:"email" validate:"required,email"`
	Password              string `json:"password" validate:"required,min=8"`
	Role                  string `json:"role" validate:"required,oneof=agent supervisor admin"`
	BaseSalary            string `json:"base_salary" validate:"omitempty"`
	MonthlyCommissionRate string `json:"monthly_commission_rate" validate:"omitempty"`
}

// SetPasswordRequest replaces an account password.
type SetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// VerifyCredentialsRequest is the gateway's credential check payload.
type VerifyCredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
