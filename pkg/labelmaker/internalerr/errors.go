package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrEmptyPattern     = errors.New("empty pattern")
	ErrNotBuilt         = errors.New("automaton not built")
	ErrAlreadyBuilt     = errors.New("automaton already built")
	ErrConflict         = errors.New("pattern already labeled with a different category")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
)
