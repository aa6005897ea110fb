package oracle

import "errors"

// Sentinel kinds for oracle errors. All of them resolve to the fallback
// path; the distinction exists for logging.
var (
	ErrUnavailable = errors.New("oracle unavailable")
	ErrMalformed   = errors.New("oracle response malformed")
)
