/*
errors.go - Centralized error types for the engine

PURPOSE:
  All engine-level error types in one place. Entity family packages wrap or
  return these; service layers add their own fixed-message precondition
  errors on top.

ERROR CATEGORIES:
  1. Fatal-to-reduction  - missing or invalid creation transaction; the
     entity cannot be displayed until fixed at the source
  2. Skippable corruption - a non-creation transaction whose payload fails
     validation; logged and excluded from the fold, never raised
  3. Store errors         - propagated unchanged from the Store

USAGE:
  if errors.Is(err, engine.ErrMissingCreation) {
      // entity has no creation transaction; unrecoverable
  }
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
	// ErrMissingCreation is returned when an entity's history contains no
	// creation-typed transaction. This aborts the whole reduction.
	ErrMissingCreation = errors.New("missing creation transaction")

	// ErrInvalidPayload is returned when a transaction payload fails
	// validation. Fatal for creation transactions, skippable otherwise.
	ErrInvalidPayload = errors.New("invalid transaction payload")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MissingCreationError identifies which entity family had no creation
// transaction. Message shape is user-facing and fixed.
type MissingCreationError struct {
	Entity string // e.g. "Seed", "Tag", "Followup"
}

func (e *MissingCreationError) Error() string {
	return fmt.Sprintf("%s must have a creation transaction", e.Entity)
}

func (e *MissingCreationError) Unwrap() error { return ErrMissingCreation }

// ValidationError reports why a payload was rejected.
type ValidationError struct {
	Type    TxType
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidPayload }

// NewValidationError builds a ValidationError for a payload rule violation.
func NewValidationError(t TxType, format string, args ...any) *ValidationError {
	return &ValidationError{Type: t, Message: fmt.Sprintf(format, args...)}
}

// NewUnknownTypeError is the required error for a type outside the family's
// closed enumeration.
func NewUnknownTypeError(t TxType) *ValidationError {
	return &ValidationError{Type: t, Message: fmt.Sprintf("Unknown transaction type: %s", t)}
}
