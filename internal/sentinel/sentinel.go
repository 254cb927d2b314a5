package sentinel

import "errors"

// Sentinel dependency errors. Stores and clients return these (optionally
// wrapped) so services translate them into domain errors exactly once.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
