package booking

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the ledger. Callers match them with errors.Is;
// ValidationError and StorageError match ErrValidation and ErrStorage.
var (
	ErrInvalidServiceType = errors.New("invalid service type")
	ErrListingNotFound    = errors.New("listing not found")
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("booking not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrStorage            = errors.New("storage error")
)

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StorageError wraps a persistence failure with the ledger operation that
// hit it. The wrapped error is kept for logs, never shown to clients.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage error during %s", e.Op) }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Kind returns the stable name of the error kind, or "" when err is not a
// ledger error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidServiceType):
		return "InvalidServiceType"
	case errors.Is(err, ErrListingNotFound):
		return "ListingNotFound"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	case errors.Is(err, ErrInvalidTransition):
		return "InvalidTransition"
	case errors.Is(err, ErrStorage):
		return "StorageError"
	}
	return ""
}
