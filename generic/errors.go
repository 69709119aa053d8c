/*
errors.go - Centralized error types for the engine

PURPOSE:
  All Go error values in one place. Rule violations are never errors (they
  are Issues inside a Result); errors are reserved for malformed input and
  for the persistence/transport layers around the engine.

ERROR CATEGORIES:
  1. Input errors - values the engine cannot interpret
  2. Lookup errors - records missing in a store
  3. Conflict errors - state transitions that are not allowed

USAGE:
  if errors.Is(err, generic.ErrMalformedInput) {
      return generic.Invalid(err)
  }
*/
package generic

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedInput is returned when a time, date or number cannot be parsed
	// or is out of range.
	ErrMalformedInput = errors.New("malformed input")

	// ErrInvalidShift is returned when a shift breaks its structural invariants
	// (break longer than span, malformed guard segments).
	ErrInvalidShift = errors.New("invalid shift")

	// ErrInvalidContract is returned when a contract has no usable rate or hours.
	ErrInvalidContract = errors.New("invalid contract")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned for a status change that is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError provides details about a leave shortage.
type InsufficientBalanceError struct {
	ContractID ContractID
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient leave balance for %s: available %s, requested %s",
		e.ContractID, e.Available, e.Requested)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedInput) ||
		errors.Is(err, ErrInvalidShift) ||
		errors.Is(err, ErrInvalidContract) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsInsufficientBalance returns true if the error is a leave shortage.
func IsInsufficientBalance(err error) bool {
	var target *InsufficientBalanceError
	return errors.As(err, &target)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
