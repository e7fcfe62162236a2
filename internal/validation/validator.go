// =============================================================================
// Conciliador - Field Validation Rules
// =============================================================================
//
// This module holds the well-formedness rules for the three canonical
// transaction fields. It performs no business validation.
//
//   | Field        | Rule                                                    |
//   |--------------|---------------------------------------------------------|
//   | date         | DD/MM/YYYY, '/' at positions 2 and 5, digits elsewhere  |
//   | payment type | known spelling variant of a canonical token             |
//   | amount       | numeric, not negative, at most two fractional digits    |
//
// Date validation is purely lexical: 31/02/2025 passes.
//
// ERROR HANDLING:
//   Every failure is a *FieldError wrapping one of the sentinel errors below,
//   so callers can branch with errors.Is and still print a precise message.
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/conciliador/internal/grid"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidDate is returned when a date is not DD/MM/YYYY.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidPaymentType is returned for unknown payment type tokens.
	ErrInvalidPaymentType = errors.New("invalid payment type")

	// ErrInvalidAmount is returned for negative, non-numeric or over-precise amounts.
	ErrInvalidAmount = errors.New("invalid amount")
)

// FieldError describes a single field that failed validation.
type FieldError struct {
	// Field is the canonical field name: "date", "payment_type" or "amount".
	Field string

	// Value is the offending value as text.
	Value string

	// Message is a human-readable reason.
	Message string

	// Kind is the sentinel error this failure belongs to.
	Kind error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Message)
}

// Unwrap exposes the sentinel for errors.Is.
func (e *FieldError) Unwrap() error {
	return e.Kind
}

// =============================================================================
// DATE
// =============================================================================

// DateLength is the exact length of a DD/MM/YYYY date.
const DateLength = 10

// ValidateDate checks the fixed DD/MM/YYYY pattern. No calendar check is done.
func ValidateDate(value string) error {
	fail := func(msg string) error {
		return &FieldError{Field: "date", Value: value, Message: msg, Kind: ErrInvalidDate}
	}

	if len(value) != DateLength {
		return fail("must be in DD/MM/YYYY format")
	}

	for i := 0; i < DateLength; i++ {
		c := value[i]
		switch i {
		case 2, 5:
			if c != '/' {
				return fail("must be in DD/MM/YYYY format")
			}
		default:
			if c < '0' || c > '9' {
				return fail("must contain only digits and slashes")
			}
		}
	}

	return nil
}

// =============================================================================
// AMOUNT
// =============================================================================

// AmountPlaces is the maximum number of fractional digits an amount may carry.
const AmountPlaces = 2

// ValidateAmount checks that an amount is not negative and rounds to itself
// at two decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return &FieldError{Field: "amount", Value: amount.String(), Message: "must not be negative", Kind: ErrInvalidAmount}
	}
	if !amount.Round(AmountPlaces).Equal(amount) {
		return &FieldError{Field: "amount", Value: amount.String(), Message: "must have at most two decimal places", Kind: ErrInvalidAmount}
	}
	return nil
}

// ParseAmount coerces a grid cell into an amount. Only Number cells are
// numeric; text, dates and empty cells are rejected.
//
// PARAMETERS:
//   - cell: The amount cell as read from the sheet.
//
// RETURNS:
//   - The validated amount.
//   - A *FieldError wrapping ErrInvalidAmount on failure.
func ParseAmount(cell grid.Cell) (decimal.Decimal, error) {
	f, ok := cell.NumberValue()
	if !ok {
		msg := "must be numeric"
		if cell.IsEmpty() {
			msg = "is missing"
		}
		return decimal.Zero, &FieldError{Field: "amount", Value: cell.String(), Message: msg, Kind: ErrInvalidAmount}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, &FieldError{Field: "amount", Value: cell.String(), Message: "must be a finite number", Kind: ErrInvalidAmount}
	}

	amount := decimal.NewFromFloat(f)
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}
