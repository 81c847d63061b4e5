package transfers

import "errors"

var (
	ErrNotFound       = errors.New("transfer request not found")
	ErrNoRecoltes     = errors.New("no unclaimed recoltes to transfer")
	ErrNotPending     = errors.New("transfer is not pending")
	ErrCodeMismatch   = errors.New("verification code does not match")
	ErrAdminNotFound  = errors.New("target admin not found")
	ErrNotTargetAdmin = errors.New("transfer is addressed to another admin")
)
