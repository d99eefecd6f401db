package errors

import "errors"

var (
	// ErrDataUnavailable indicates the backing store could not be reached or
	// failed to answer a query.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInvalidIdentifier indicates a caller supplied a malformed identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)
