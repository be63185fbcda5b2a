// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking ledger to distinguish between different failure scenarios.
// ErrNotFound signals a missing row, while ErrConflict signals that a
// conditional update matched no row because the stored state no longer
// satisfied its guard (for example a booking that is no longer pending).
package repository

import "errors"

// ErrNotFound is returned when a lookup by primary key finds no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a guarded update could not be applied
// because the row's current state differs from the expected one.
var ErrConflict = errors.New("conflict")
