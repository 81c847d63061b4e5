package parcels

import "errors"

// Domain errors for parcels.
var (
	ErrNotFound         = errors.New("parcel not found")
	ErrTrackingTaken    = errors.New("tracking number already registered")
	ErrAlreadyDelivered = errors.New("parcel already delivered")
	ErrCannotAssign     = errors.New("cannot assign driver in current status")
	ErrCannotDispatch   = errors.New("cannot dispatch parcel in current status")
	ErrCannotDeliver    = errors.New("cannot deliver parcel in current status")
	ErrInvalidAmount    = errors.New("cod amount must not be negative")
)
