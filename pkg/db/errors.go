package db

import "errors"

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// ErrStateConflict is returned when an optimistic state transition matched no
// row: the record was not in the expected prior state.
var ErrStateConflict = errors.New("assignment not in expected state")
