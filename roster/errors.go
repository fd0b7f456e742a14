/*
errors.go - Centralized error types for the shift engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers branch on the sentinel with errors.Is and read the structured
  error with errors.As when they need the details.

ERROR CATEGORIES:
  1. Validation errors - malformed input, raised before any generation runs
  2. Not found errors  - unknown contract / shift / expense
  3. Out of range      - shift date outside its contract's date bounds
  4. Duplicate seed    - never surfaced to reconciliation callers; stores
                         report it as "not inserted"

SEE ALSO:
  - store.go: Repository contract that uses these errors
  - reconcile/apply.go: Treats duplicate seed inserts as skipped
*/
package roster

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the parent of every input validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrOutOfRange is returned when a shift date falls outside its
	// contract's [StartDate, EndDate].
	ErrOutOfRange = errors.New("date outside contract range")

	// ErrDuplicateSeed is returned by low-level inserts when a contract_seed
	// shift already exists for (contract, local date).
	ErrDuplicateSeed = errors.New("seed shift already exists for date")

	// ErrNoEnabledDays is returned when seeding is requested for a schedule
	// without a single enabled weekday.
	ErrNoEnabledDays = errors.New("schedule has no enabled day")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrValidation, e.Cause}
	}
	return []error{ErrValidation}
}

// Invalid is shorthand for a ValidationError on one field.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string // "contract", "shift", "expense"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ContractNotFound is the most common NotFoundError.
func ContractNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "contract", ID: id}
}

// OutOfRangeError is kept distinct from ValidationError because callers show
// a warning for it instead of a field error.
type OutOfRangeError struct {
	ContractID string
	Date       Date
	Range      Range
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("date %s is outside contract %s range %s", e.Date, e.ContractID, e.Range)
}

func (e *OutOfRangeError) Unwrap() error {
	return ErrOutOfRange
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid client input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsOutOfRange returns true if a date fell outside its contract bounds.
func IsOutOfRange(err error) bool {
	return errors.Is(err, ErrOutOfRange)
}
