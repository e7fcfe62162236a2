// =============================================================================
// Conciliador - Output Templates
// =============================================================================
//
// A Template declares the output schema: which columns the output sheet has,
// in which order, and which transaction field feeds each of them.
//
// CONSTRUCTION RULES (checked once, in New):
//   - name is not blank
//   - columns is a non-empty list of unique, non-blank names
//   - the mapping key set equals the column set exactly
//   - every mapped source field name is non-blank
//   - formatting is free-form (column -> number format is the convention)
//
// VALUE RESOLUTION:
//   ResolveValue looks the mapped field up on the transaction's canonical
//   accessors, then in its extras, and finally yields an empty text cell.
//   Resolution never fails.
//
// =============================================================================

package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/conciliador/internal/grid"
	"github.com/ginjaninja78/conciliador/internal/transaction"
)

// ErrInvalidTemplate is wrapped by every construction failure.
var ErrInvalidTemplate = errors.New("invalid template")

// DefaultName is the name of the built-in template used when none is chosen.
const DefaultName = "Automático"

// =============================================================================
// TEMPLATE
// =============================================================================

// Template is an immutable output schema. Create it with New.
type Template struct {
	name       string
	columns    []string
	mapping    map[string]string
	formatting map[string]string
}

// New validates and creates a Template.
//
// PARAMETERS:
//   - name: Human readable template name.
//   - columns: Output column names, in output order.
//   - mapping: Output column -> source field name. Keys must equal columns.
//   - formatting: Optional per-column formatting metadata; may be nil.
//
// RETURNS:
//   - The Template.
//   - An error wrapping ErrInvalidTemplate describing the first violation.
func New(name string, columns []string, mapping map[string]string, formatting map[string]string) (*Template, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidTemplate)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("%w %q: columns must not be empty", ErrInvalidTemplate, name)
	}

	seen := make(map[string]struct{}, len(columns))
	for i, col := range columns {
		if strings.TrimSpace(col) == "" {
			return nil, fmt.Errorf("%w %q: column %d has an empty name", ErrInvalidTemplate, name, i)
		}
		if _, dup := seen[col]; dup {
			return nil, fmt.Errorf("%w %q: duplicate column %q", ErrInvalidTemplate, name, col)
		}
		seen[col] = struct{}{}
	}

	if len(mapping) == 0 {
		return nil, fmt.Errorf("%w %q: mapping must not be empty", ErrInvalidTemplate, name)
	}

	for _, col := range columns {
		field, ok := mapping[col]
		if !ok {
			return nil, fmt.Errorf("%w %q: column %q has no mapping", ErrInvalidTemplate, name, col)
		}
		if strings.TrimSpace(field) == "" {
			return nil, fmt.Errorf("%w %q: column %q maps to an empty field", ErrInvalidTemplate, name, col)
		}
	}
	for key := range mapping {
		if _, ok := seen[key]; !ok {
			return nil, fmt.Errorf("%w %q: mapping key %q is not a column", ErrInvalidTemplate, name, key)
		}
	}

	t := &Template{
		name:       name,
		columns:    append([]string(nil), columns...),
		mapping:    make(map[string]string, len(mapping)),
		formatting: make(map[string]string, len(formatting)),
	}
	for k, v := range mapping {
		t.mapping[k] = v
	}
	for k, v := range formatting {
		t.formatting[k] = v
	}

	return t, nil
}

// Default returns the built-in template: date, payment type and amount.
func Default() *Template {
	t, _ := New(DefaultName,
		[]string{"Data", "Tipo", "Valor"},
		map[string]string{
			"Data":  transaction.FieldDate,
			"Tipo":  transaction.FieldPaymentType,
			"Valor": transaction.FieldAmount,
		},
		map[string]string{"Valor": "#,##0.00"},
	)
	return t
}

// Name returns the template name.
func (t *Template) Name() string { return t.name }

// Columns returns a copy of the output columns in order.
func (t *Template) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Source returns the field name mapped to column.
func (t *Template) Source(column string) (string, bool) {
	f, ok := t.mapping[column]
	return f, ok
}

// Format returns the formatting metadata for column, if any.
func (t *Template) Format(column string) (string, bool) {
	f, ok := t.formatting[column]
	return f, ok
}

// Formatting returns a copy of the formatting metadata.
func (t *Template) Formatting() map[string]string {
	out := make(map[string]string, len(t.formatting))
	for k, v := range t.formatting {
		out[k] = v
	}
	return out
}

// ResolveValue returns the cell for one output column of tx. Columns the
// template does not declare and fields the transaction does not carry both
// resolve to an empty text cell.
func (t *Template) ResolveValue(tx transaction.Transaction, column string) grid.Cell {
	field, ok := t.mapping[column]
	if !ok {
		return grid.Text("")
	}
	if cell, ok := tx.Lookup(field); ok {
		return cell
	}
	return grid.Text("")
}
