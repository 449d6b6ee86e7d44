// Package repository defines error types that are reused across the
// report, profile and contact stores and by the lifecycle engine. These
// sentinel values let higher layers such as handlers distinguish between
// failure scenarios. For example, ErrForbidden indicates that the caller's
// role or ownership does not allow an operation, while ErrInvalidTransition
// signals that the report is in a state where the operation is no longer
// permitted (e.g. deleting a verified report).
package repository

import (
	"context"
	"errors"
	"fmt"
)

// ErrForbidden is returned when the caller's role or ownership check
// fails. Handlers should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidTransition is returned when a lifecycle rule is violated,
// such as deleting a report that an official already verified.
// Handlers should translate this into an HTTP 409 response.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrNotFound is returned when the referenced report, profile or
// contact does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a create collides with an existing
// record, e.g. a second signup for the same uid.
var ErrConflict = errors.New("conflict")

// ErrStoreUnavailable wraps infrastructure failures (timeouts, broken
// connections). Unlike the other sentinels it is safe to retry reads and
// the idempotent verify operation when it is returned.
var ErrStoreUnavailable = errors.New("store unavailable")

// unavailable wraps err as ErrStoreUnavailable while keeping the cause
// visible to errors.Is/As.
func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// IsRetryable reports whether err is an infrastructure failure that the
// caller may retry with backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}
