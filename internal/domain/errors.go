package domain

import "errors"

// ErrNotFound is returned by lookups for mints that have no stored state
// (no quote, no open position, no snapshot).
var ErrNotFound = errors.New("not found")
