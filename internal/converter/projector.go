package converter

import (
	"errors"

	"github.com/ginjaninja78/conciliador/internal/grid"
	"github.com/ginjaninja78/conciliador/internal/template"
	"github.com/ginjaninja78/conciliador/internal/transaction"
)

var (
	// ErrNoTransactions is returned when there is nothing to project.
	ErrNoTransactions = errors.New("no transactions to project")

	// ErrNoTemplate is returned when Project is called without a template.
	ErrNoTemplate = errors.New("no template given")
)

// Project builds the output grid: one row per transaction, in input order,
// with one cell per template column, in template order.
//
// PARAMETERS:
//   - txs: The transactions to project. Must not be empty.
//   - tpl: The output template.
//
// RETURNS:
//   - The output grid.
//   - ErrNoTransactions or ErrNoTemplate.
func Project(txs []transaction.Transaction, tpl *template.Template) (*grid.Grid, error) {
	if len(txs) == 0 {
		return nil, ErrNoTransactions
	}
	if tpl == nil {
		return nil, ErrNoTemplate
	}

	columns := tpl.Columns()
	out := grid.New(columns)
	out.Rows = make([]grid.Row, 0, len(txs))

	for _, tx := range txs {
		row := make(grid.Row, len(columns))
		for i, col := range columns {
			row[i] = tpl.ResolveValue(tx, col)
		}
		out.Rows = append(out.Rows, row)
	}

	return out, nil
}
