/*
errors.go - Centralized error types for the commission engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers use errors.Is/errors.As; the API layer maps these to HTTP status.

ERROR CATEGORIES:
  1. Config errors - Missing, conflicting, or invalid month configuration
  2. Validation errors - Category definitions rejected at save time
  3. Lookup errors - Missing sales, employees, clients
  4. Concurrency errors - Optimistic version conflicts on config writes

NOTE ON ConfigNotFound:
  A month without a configuration is a VALID state, not necessarily a
  failure. The aggregator returns an explicit "not configured" result
  instead of propagating this error; only direct config reads surface it.

SEE ALSO:
  - config.go: Produces InvalidCategoryError at save time
  - aggregate.go: Converts ErrConfigNotFound into ConfigExists=false
*/
package commission

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfigNotFound is returned when the requested month has no
	// commission configuration. Not necessarily an error condition.
	ErrConfigNotFound = errors.New("commission config not found")

	// ErrDuplicateTargetExists is returned when duplicating a config into a
	// month that already has one. Silent overwrite is refused.
	ErrDuplicateTargetExists = errors.New("duplicate target month already configured")

	// ErrInvalidCategory is returned when a category definition fails
	// validation at config-save time.
	ErrInvalidCategory = errors.New("invalid category definition")

	// ErrInvalidConfig is returned when a config fails validation outside
	// its category list (threshold, retroactivity fields).
	ErrInvalidConfig = errors.New("invalid commission config")

	// ErrInvalidMonth is returned for (year, month) keys out of range.
	ErrInvalidMonth = errors.New("invalid month")

	// ErrConcurrentModification is returned when an optimistic version check
	// fails on a config write (two admins editing the same month).
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrSaleNotFound is returned when a referenced sale doesn't exist.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrClientNotFound is returned when a referenced client doesn't exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrMalformedSale is returned when a sale is missing fields required
	// for persistence (not for scoring; scoring treats missing dimensions
	// as zero and never fails).
	ErrMalformedSale = errors.New("malformed sale")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidCategoryError pinpoints which category failed validation and why.
type InvalidCategoryError struct {
	Index  int    // position in the submitted category list
	Name   string // category name, may be empty
	Detail string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("category %d (%q): %s", e.Index, e.Name, e.Detail)
}

func (e *InvalidCategoryError) Unwrap() error {
	return ErrInvalidCategory
}

// ConflictError reports an optimistic concurrency failure on a config write.
type ConflictError struct {
	Month           Month
	ExpectedVersion int
	ActualVersion   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("config %s: expected version %d, found %d",
		e.Month, e.ExpectedVersion, e.ActualVersion)
}

func (e *ConflictError) Unwrap() error {
	return ErrConcurrentModification
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidCategory) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidMonth) ||
		errors.Is(err, ErrMalformedSale)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrConfigNotFound) ||
		errors.Is(err, ErrSaleNotFound) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrClientNotFound)
}

// IsConflict returns true if the error should map to HTTP 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateTargetExists) ||
		errors.Is(err, ErrConcurrentModification)
}
