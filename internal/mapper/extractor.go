// =============================================================================
// Conciliador - Transaction Extractor
// =============================================================================
//
// This module turns the rows of a normalized grid into validated
// transactions.
//
// PARTIAL FAILURE:
//   Column resolution is sheet-wide: a missing canonical column aborts the
//   whole extraction. Everything after that is per row: a row that fails
//   validation is recorded as a RowError and skipped, and the batch goes on.
//   For every grid, len(transactions) + len(rowErrors) == number of rows.
//
// CONCURRENCY:
//   Rows are independent, so they may be processed on a bounded worker pool.
//   Each worker writes into the slot of its row index and the slots are
//   collected in order afterwards, so output order never depends on
//   scheduling.
//
// =============================================================================

package mapper

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/conciliador/internal/grid"
	"github.com/ginjaninja78/conciliador/internal/transaction"
	"github.com/ginjaninja78/conciliador/internal/validation"
)

const (
	fieldDate        = transaction.FieldDate
	fieldPaymentType = transaction.FieldPaymentType
	fieldAmount      = transaction.FieldAmount
)

// =============================================================================
// ROW ERRORS
// =============================================================================

// RowError records a single row that failed validation.
type RowError struct {
	// Row is the 0-based index of the row in the normalized grid.
	Row int

	// Err is the validation failure, usually a *validation.FieldError.
	Err error
}

// Error implements the error interface.
func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Unwrap exposes the underlying validation error.
func (e RowError) Unwrap() error {
	return e.Err
}

// rowResult is the outcome of one row: a transaction or an error.
type rowResult struct {
	tx  transaction.Transaction
	err error
}

// =============================================================================
// EXTRACTOR
// =============================================================================

// Extractor builds transactions from grids.
type Extractor struct {
	resolver *Resolver
	payments *validation.PaymentTypes
	workers  int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithResolver replaces the default column resolver.
func WithResolver(r *Resolver) Option {
	return func(e *Extractor) {
		if r != nil {
			e.resolver = r
		}
	}
}

// WithPaymentTypes replaces the default payment type synonym table.
func WithPaymentTypes(p *validation.PaymentTypes) Option {
	return func(e *Extractor) {
		if p != nil {
			e.payments = p
		}
	}
}

// WithWorkers sets how many rows are processed concurrently.
// Values below 1 mean sequential processing.
func WithWorkers(n int) Option {
	return func(e *Extractor) {
		if n < 1 {
			n = 1
		}
		e.workers = n
	}
}

// NewExtractor creates an Extractor with the default synonyms and a single
// worker, then applies opts.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		resolver: NewResolver(DefaultSynonyms()),
		payments: validation.DefaultPaymentTypes(),
		workers:  1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract converts every row of g into a transaction or a row error.
//
// PARAMETERS:
//   - g: A normalized grid.
//
// RETURNS:
//   - The accepted transactions, in row order.
//   - The rejected rows, in row order.
//   - A *MissingColumnError if the canonical columns cannot be resolved.
func (e *Extractor) Extract(g *grid.Grid) ([]transaction.Transaction, []RowError, error) {
	if g == nil {
		g = &grid.Grid{}
	}

	mapping, err := e.resolver.Resolve(g.Columns)
	if err != nil {
		return nil, nil, err
	}

	cols := columnPositions(g.Columns, mapping)
	results := make([]rowResult, len(g.Rows))

	if e.workers <= 1 || len(g.Rows) < 2 {
		for i, row := range g.Rows {
			results[i] = e.buildRow(g.Columns, row, mapping, cols)
		}
	} else {
		var group errgroup.Group
		group.SetLimit(e.workers)
		for i, row := range g.Rows {
			group.Go(func() error {
				results[i] = e.buildRow(g.Columns, row, mapping, cols)
				return nil
			})
		}
		// Row failures are carried in results, not returned by the workers.
		if err := group.Wait(); err != nil {
			return nil, nil, err
		}
	}

	var (
		txs     []transaction.Transaction
		rowErrs []RowError
	)
	for i, res := range results {
		if res.err != nil {
			rowErrs = append(rowErrs, RowError{Row: i, Err: res.err})
			continue
		}
		txs = append(txs, res.tx)
	}

	return txs, rowErrs, nil
}

// positions holds the grid column index of each canonical field.
type positions struct {
	date, paymentType, amount int
}

// columnPositions locates the mapped labels. The last column carrying a
// label is the one read, matching grid.ColumnIndex.
func columnPositions(columns []string, m Mapping) positions {
	index := func(label string) int {
		for i := len(columns) - 1; i >= 0; i-- {
			if columns[i] == label {
				return i
			}
		}
		return -1
	}
	return positions{
		date:        index(m.Date),
		paymentType: index(m.PaymentType),
		amount:      index(m.Amount),
	}
}

// buildRow validates one row.
func (e *Extractor) buildRow(columns []string, row grid.Row, mapping Mapping, pos positions) rowResult {
	at := func(i int) grid.Cell {
		if i < 0 || i >= len(row) {
			return grid.Empty()
		}
		return row[i]
	}

	// Date cells render as DD/MM/YYYY; anything else is taken verbatim.
	date := at(pos.date).String()

	payment := at(pos.paymentType).String()

	amount, err := validation.ParseAmount(at(pos.amount))
	if err != nil {
		// Failures are reported in date, payment type, amount order.
		if dateErr := validation.ValidateDate(date); dateErr != nil {
			return rowResult{err: dateErr}
		}
		if _, payErr := e.payments.Canonicalize(payment); payErr != nil {
			return rowResult{err: payErr}
		}
		return rowResult{err: err}
	}

	extras := transaction.NewExtrasBuilder()
	for i, label := range columns {
		if mapping.Consumes(label) {
			continue
		}
		extras.Set(label, at(i))
	}

	tx, err := transaction.New(date, payment, amount, extras.Build(), e.payments)
	if err != nil {
		return rowResult{err: err}
	}
	return rowResult{tx: tx}
}
