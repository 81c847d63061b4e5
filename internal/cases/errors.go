package cases

import "errors"

// Domain errors for money cases.
var (
	ErrNotFound       = errors.New("money case not found")
	ErrNameTaken      = errors.New("money case name already in use")
	ErrCaseInactive   = errors.New("money case is inactive")
	ErrClaimedByOther = errors.New("money case already claimed by another user")
	ErrNotHolder      = errors.New("money case is not held by this user")
	ErrCaseInUse      = errors.New("money case has collections or expenses and cannot be deleted")
)
