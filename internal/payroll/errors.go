package payroll

import "errors"

var (
	ErrNotFound            = errors.New("payment not found")
	ErrDuplicatePeriod     = errors.New("salary payment already exists for this user and period")
	ErrDuplicateCommission = errors.New("commission payment already exists for this collection")
	ErrAlreadyPaid         = errors.New("payment is already paid")
	ErrNoCommissionDue     = errors.New("collection carries no driver commission")
	ErrInvalidPeriod       = errors.New("period must be formatted YYYY-MM")
	ErrUserInactive        = errors.New("user is not active")
)
