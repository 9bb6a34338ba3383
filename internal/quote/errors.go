package quote

import "errors"

// Lookup failures. Returned errors wrap exactly one of these; classify with errors.Is.
var (
	// ErrInvalidInput marks a ticker that is empty or not purely alphabetic.
	ErrInvalidInput = errors.New("invalid ticker")
	// ErrNotFound marks a ticker the upstream returned no result for.
	ErrNotFound = errors.New("ticker not found")
	// ErrUpstream marks a failed, timed out, or malformed upstream call.
	ErrUpstream = errors.New("upstream request failed")
)
