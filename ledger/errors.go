/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All sentinel errors in one place. Component packages wrap these with
  additional context (room, row, operation) so failures can be diagnosed
  after the fact.

ERROR CATEGORIES:
  1. Edit errors    - Protected field edits, unknown rows
  2. Allocator errors - Lock acquisition timeouts
  3. Schema errors  - Required columns missing from the table

Nothing here covers invalid numeric input: non-numeric money/rate/tax cells
coerce to zero or a default instead of failing. Room-identity collisions
after normalization are likewise not errors; the labels are one room.
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRowNotFound is returned when an edit references a row index that
	// does not exist in the ledger.
	ErrRowNotFound = errors.New("ledger row not found")

	// ErrProtectedFieldEdit is returned when a caller attempts to edit an
	// automatic field (timestamps, or the total after checkout). The edit
	// is reverted; the prior value stands.
	ErrProtectedFieldEdit = errors.New("protected field cannot be edited")

	// ErrLockUnavailable is returned when the invoice sequence allocator
	// cannot acquire its lock within the bounded wait. The request is
	// aborted with no partial state; the caller decides whether to retry.
	ErrLockUnavailable = errors.New("invoice sequence lock unavailable")

	// ErrSchemaMissing is returned when an operation requires a column the
	// table does not carry. Operations on optional columns silently no-op
	// instead; this sentinel is for required fields only.
	ErrSchemaMissing = errors.New("required column missing from table")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ProtectedFieldEditError reports a rejected edit with the value the caller
// attempted and the value that stands after the revert.
type ProtectedFieldEditError struct {
	Row       int
	Field     string
	Attempted string
	Reverted  string
}

func (e *ProtectedFieldEditError) Error() string {
	return fmt.Sprintf("row %d: field %q is protected; edit %q reverted", e.Row, e.Field, e.Attempted)
}

func (e *ProtectedFieldEditError) Unwrap() error {
	return ErrProtectedFieldEdit
}

// SchemaMissingError names the required field an operation could not resolve.
type SchemaMissingError struct {
	Field     string
	Operation string
}

func (e *SchemaMissingError) Error() string {
	return fmt.Sprintf("%s: required column %q missing from table", e.Operation, e.Field)
}

func (e *SchemaMissingError) Unwrap() error {
	return ErrSchemaMissing
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid caller input
// rather than an engine failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrProtectedFieldEdit) ||
		errors.Is(err, ErrRowNotFound)
}

// IsRetryable reports whether the operation might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockUnavailable)
}
