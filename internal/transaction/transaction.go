// =============================================================================
// Conciliador - Transaction Model
// =============================================================================
//
// A Transaction is one accepted statement row: three canonical fields plus
// every other column of the row carried verbatim as "extras".
//
// FIELD ACCESS:
//   Consumers look fields up by name in two tiers:
//     1. Field(name)        : canonical accessor (date, payment_type, amount)
//     2. Extras().Get(name) : side table with the remaining columns
//   The template projector falls back to an empty value when both miss.
//
// IMMUTABILITY:
//   All fields are unexported and accessors return copies, so a Transaction
//   may be shared between goroutines without synchronization.
//
// =============================================================================

package transaction

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/conciliador/internal/grid"
	"github.com/ginjaninja78/conciliador/internal/validation"
)

// Canonical field names understood by Field.
const (
	FieldDate        = "date"
	FieldPaymentType = "payment_type"
	FieldAmount      = "amount"
)

// fieldAliases maps alternate canonical names (as used by saved templates)
// to the primary name.
var fieldAliases = map[string]string{
	FieldDate:        FieldDate,
	FieldPaymentType: FieldPaymentType,
	FieldAmount:      FieldAmount,
	"data":           FieldDate,
	"tipo_pagamento": FieldPaymentType,
	"valor":          FieldAmount,
}

// CanonicalField returns the primary canonical name for name, if any.
func CanonicalField(name string) (string, bool) {
	f, ok := fieldAliases[name]
	return f, ok
}

// =============================================================================
// TRANSACTION
// =============================================================================

// Transaction is an immutable, validated statement entry.
type Transaction struct {
	date        string
	paymentType string
	amount      decimal.Decimal
	extras      Extras
}

// New validates the inputs and creates a Transaction.
//
// PARAMETERS:
//   - date: The date as DD/MM/YYYY text; stored exactly as given.
//   - paymentType: Any known spelling; stored as its canonical token.
//   - amount: A non-negative amount with at most two decimal places.
//   - extras: The non-canonical columns of the source row.
//   - payments: The payment type synonym table; nil uses the defaults.
//
// RETURNS:
//   - The Transaction.
//   - A *validation.FieldError for the first invalid field.
func New(date, paymentType string, amount decimal.Decimal, extras Extras, payments *validation.PaymentTypes) (Transaction, error) {
	if payments == nil {
		payments = validation.DefaultPaymentTypes()
	}

	if err := validation.ValidateDate(date); err != nil {
		return Transaction{}, err
	}

	canonical, err := payments.Canonicalize(paymentType)
	if err != nil {
		return Transaction{}, err
	}

	if err := validation.ValidateAmount(amount); err != nil {
		return Transaction{}, err
	}

	return Transaction{
		date:        date,
		paymentType: canonical,
		amount:      amount,
		extras:      extras,
	}, nil
}

// Date returns the DD/MM/YYYY date.
func (t Transaction) Date() string { return t.date }

// PaymentType returns the canonical payment type token.
func (t Transaction) PaymentType() string { return t.paymentType }

// Amount returns the amount.
func (t Transaction) Amount() decimal.Decimal { return t.amount }

// Extras returns the non-canonical fields.
func (t Transaction) Extras() Extras { return t.extras }

// Field returns a canonical field by name (primary name or alias) as a cell.
// Dates and payment types are text, the amount is a number.
func (t Transaction) Field(name string) (grid.Cell, bool) {
	canonical, ok := CanonicalField(name)
	if !ok {
		return grid.Cell{}, false
	}

	switch canonical {
	case FieldDate:
		return grid.Text(t.date), true
	case FieldPaymentType:
		return grid.Text(t.paymentType), true
	default:
		return grid.Number(t.amount.InexactFloat64()), true
	}
}

// Lookup resolves a field name with the two-tier rule: canonical accessor
// first, then extras.
func (t Transaction) Lookup(name string) (grid.Cell, bool) {
	if cell, ok := t.Field(name); ok {
		return cell, true
	}
	return t.extras.Get(name)
}
