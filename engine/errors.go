/*
errors.go - Centralized error types for the bookkeeping engine

PURPOSE:
  All error types in one place. Callers branch with errors.Is on the
  sentinels; the structured wrappers carry the details a caller needs to
  prompt for corrected input.

ERROR CATEGORIES:
  1. Validation errors - blank required fields, non-numeric or negative
     sale inputs. No mutation occurs.
  2. Insufficient stock - a sale or transfer that would drive a counter
     negative. No mutation occurs.
  3. Not found - unknown shop/transaction id. No mutation occurs.

There is no retry machinery here: every failure is surfaced synchronously
and the engine never leaves a partial mutation observable.
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for blank required fields or negative
	// numeric inputs.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientStock is returned when a sale exceeds available
	// stock, or a transfer would drive the godown pool negative.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNotFound is returned when an operation references a shop or
	// transaction that does not exist.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which field failed and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientStockError reports the shortage that blocked an operation.
type InsufficientStockError struct {
	Pool      PoolType
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient %s stock: requested %d, have %d",
		e.Pool, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// NotFoundError identifies the missing entity.
type NotFoundError struct {
	Kind string // "shop" or "transaction"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrNotFound)
}
