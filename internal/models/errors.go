package models

import "errors"

// Sentinel errors for the billing core. Callers classify with errors.Is so
// the UI layer can tell "nothing to show" apart from "could not reach the
// store".
var (
	// ErrNotFound is returned when a requested premise, meter, invoice,
	// tenant or tariff row does not exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for numeric values the core refuses to
	// write (non-finite readings, non-positive amounts, decreasing meter
	// values).
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransient marks store and network failures, including rate limits.
	// Retrying may succeed; this layer never retries itself.
	ErrTransient = errors.New("transient store failure")

	// ErrInconsistent marks states the data model should not allow, e.g. a
	// premise with metered debt but no invoice row.
	ErrInconsistent = errors.New("inconsistent store state")
)

// IsNotFound reports whether err indicates a missing row.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsTransient reports whether err might succeed on retry.
func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }
