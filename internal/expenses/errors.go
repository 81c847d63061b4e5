package expenses

import "errors"

// Domain errors for expenses.
var (
	ErrNotFound      = errors.New("expense not found")
	ErrCategoryTaken = errors.New("expense category name already in use")
	ErrCannotApprove = errors.New("only a pending expense can be approved")
	ErrCannotPay     = errors.New("only an approved expense can be marked paid")
	ErrCannotReject  = errors.New("only a pending expense can be rejected")
	ErrCannotEdit    = errors.New("only a pending expense can be edited")
	ErrCannotDelete  = errors.New("only a pending or rejected expense can be deleted")
	ErrMirrored      = errors.New("mirrored expenses follow their payroll record")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrNotVisible    = errors.New("expense belongs to another agent")
)
