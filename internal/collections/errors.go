package collections

import "errors"

// Domain errors for collections.
var (
	ErrNotFound           = errors.New("collection not found")
	ErrParcelNotFound     = errors.New("parcel not found")
	ErrParcelCollected    = errors.New("parcel already has a collection")
	ErrParcelUndelivered  = errors.New("parcel is not delivered")
	ErrDriverRequiresHome = errors.New("driver collections require home delivery")
	ErrAlreadyRecolted    = errors.New("collection already belongs to a recolte")
	ErrInvalidAmount      = errors.New("amount must not be negative")
)
