package settlement

import "errors"

var (
	ErrNoRows          = errors.New("settlement contains no tracking numbers")
	ErrNothingImported = errors.New("no tracking number produced a collection")
)
