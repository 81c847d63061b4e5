package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the actor lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrActorMissing occurs when a request carries no resolved identity.
	ErrActorMissing = errors.New("acting user missing from request context")
)
