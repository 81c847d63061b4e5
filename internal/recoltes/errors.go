package recoltes

import "errors"

// Domain errors for recoltes.
var (
	ErrNotFound           = errors.New("recolte not found")
	ErrNoCollections      = errors.New("at least one collection is required")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrCollectionRecolted = errors.New("collection already belongs to a recolte")
	ErrRecolteTransferred = errors.New("recolte is claimed by a transfer request and cannot change")
)
