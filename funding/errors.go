/*
errors.go - Centralized error types for the funding engine

PURPOSE:
  All engine errors in one place. The API layer never builds error
  messages itself: it classifies errors from this file and writes the
  message they carry.

ERROR CATEGORIES:
  1. Not-found errors  - referenced entity absent or soft-deleted (404)
  2. Validation errors - malformed input payload (400)
  3. Business rule errors - amount/fee/capacity/gating violations (400)

  Anything else that escapes an operation is an internal error (500).

MESSAGE STABILITY:
  The message strings here are part of the API contract with the
  back-office frontend ("payee not found", "net amount must be greater
  than $0.00", ...). Do not reword them casually.

USAGE:
  if funding.IsNotFound(err) { ... 404 ... }
  if funding.IsClientError(err) { ... 400 ... }

SEE ALSO:
  - lifecycle.go: where these are produced
  - api/handlers.go: where they are mapped to HTTP statuses
*/
package funding

import (
	"errors"
	"fmt"

	"github.com/aravind238/funding-sub002/money"
)

// =============================================================================
// SENTINEL ERRORS - use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is wrapped by every missing-entity error.
	ErrNotFound = errors.New("not found")

	// ErrBusinessRule is wrapped by every business-rule rejection.
	ErrBusinessRule = errors.New("business rule violation")

	// ErrValidation is wrapped by every payload validation failure.
	ErrValidation = errors.New("validation error")
)

// =============================================================================
// NOT FOUND
// =============================================================================

// NotFoundError reports a missing or soft-deleted entity. Entity is the
// wire name used in the message ("payee", "soa", "reserve_release",
// "disbursements").
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError reports a malformed field in the request payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Reason }
func (e *ValidationError) Unwrap() error { return ErrValidation }

// =============================================================================
// BUSINESS RULES
// =============================================================================

// RuleError is a business-rule rejection with a fixed message.
type RuleError struct {
	Msg string
}

func (e *RuleError) Error() string { return e.Msg }
func (e *RuleError) Unwrap() error { return ErrBusinessRule }

var (
	errObligationRequired = &RuleError{Msg: "soa_id/ reserve_release_id is required"}
	errPayeeRequired      = &RuleError{Msg: "payee_id is required"}
	errPayeeInactive      = &RuleError{Msg: "payee is not active"}
)

// AmountError rejects a zero or negative disbursement amount.
type AmountError struct {
	Amount money.Money
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("Amount cannot be %s", e.Amount)
}
func (e *AmountError) Unwrap() error { return ErrBusinessRule }

// NetAmountError rejects a non-positive net amount. The message
// distinguishes negative from exactly zero.
type NetAmountError struct {
	Net money.Money
}

func (e *NetAmountError) Error() string {
	if e.Net.IsZero() {
		return fmt.Sprintf("net amount must be greater than %s", e.Net)
	}
	return fmt.Sprintf("net amount %s cannot be negative", e.Net)
}
func (e *NetAmountError) Unwrap() error { return ErrBusinessRule }

// CapacityError rejects an amount exceeding the obligation's outstanding
// capacity.
type CapacityError struct {
	Amount      money.Money
	Outstanding money.Money
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("amount %s is more than outstanding amount %s", e.Amount, e.Outstanding)
}
func (e *CapacityError) Unwrap() error { return ErrBusinessRule }

// DeficitError rejects an update that would drive the outstanding amount
// negative. Deficit is the magnitude of the would-be shortfall.
type DeficitError struct {
	Deficit money.Money
}

func (e *DeficitError) Error() string {
	return fmt.Sprintf("outstanding amount will be %s", e.Deficit.Abs().Neg())
}
func (e *DeficitError) Unwrap() error { return ErrBusinessRule }

// CompletedError rejects mutation of a disbursement whose obligation has
// already completed.
type CompletedError struct {
	RefType RefType
}

func (e *CompletedError) Error() string {
	if e.RefType == RefReserveRelease {
		return "Reserve Release is already completed"
	}
	return "SOA is already completed"
}
func (e *CompletedError) Unwrap() error { return ErrBusinessRule }

// =============================================================================
// CLASSIFIERS
// =============================================================================

// IsNotFound reports whether err is a missing-entity error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError reports whether err is caused by the request rather than
// the system: validation failures and business-rule rejections.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrBusinessRule)
}
