// =============================================================================
// Conciliador - Grid Types
// =============================================================================
//
// This package contains the in-memory tabular structure shared by every
// pipeline stage to avoid import cycles. Types defined here are used by:
//   - sheetio / xlsxparser / csvparser / xmlwriter (read and write)
//   - sheet      (normalization)
//   - mapper     (transaction extraction)
//   - converter  (projection)
//
// CELL COERCION RULES:
//   | Kind   | String()                       | Empty? |
//   |--------|--------------------------------|--------|
//   | Empty  | ""                             | yes    |
//   | Text   | verbatim                       | if blank after trimming |
//   | Number | shortest decimal representation| no     |
//   | Date   | DD/MM/YYYY                     | no     |
//
// =============================================================================

package grid

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar layout every Date cell is rendered with.
const DateLayout = "02/01/2006"

// =============================================================================
// CELL
// =============================================================================

// Kind tags the variant held by a Cell.
type Kind int

const (
	// KindEmpty is a cell with no value.
	KindEmpty Kind = iota

	// KindText is a string cell.
	KindText

	// KindNumber is a numeric cell.
	KindNumber

	// KindDate is a calendar date (or date-time) cell.
	KindDate
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "empty"
	}
}

// Cell is a loosely-typed spreadsheet value.
// The zero value is an empty cell.
type Cell struct {
	kind Kind
	text string
	num  float64
	date time.Time
}

// Empty returns an empty cell.
func Empty() Cell { return Cell{} }

// Text returns a text cell.
func Text(s string) Cell { return Cell{kind: KindText, text: s} }

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{kind: KindNumber, num: f} }

// Date returns a date cell.
func Date(t time.Time) Cell { return Cell{kind: KindDate, date: t} }

// Kind reports which variant the cell holds.
func (c Cell) Kind() Kind { return c.kind }

// IsEmpty reports whether the cell carries no usable value.
// Whitespace-only text counts as empty.
func (c Cell) IsEmpty() bool {
	switch c.kind {
	case KindEmpty:
		return true
	case KindText:
		return strings.TrimSpace(c.text) == ""
	default:
		return false
	}
}

// TextValue returns the string held by a Text cell.
func (c Cell) TextValue() (string, bool) {
	return c.text, c.kind == KindText
}

// NumberValue returns the float held by a Number cell.
func (c Cell) NumberValue() (float64, bool) {
	return c.num, c.kind == KindNumber
}

// DateValue returns the time held by a Date cell.
func (c Cell) DateValue() (time.Time, bool) {
	return c.date, c.kind == KindDate
}

// String renders the cell following the coercion rules above.
func (c Cell) String() string {
	switch c.kind {
	case KindText:
		return c.text
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindDate:
		return c.date.Format(DateLayout)
	default:
		return ""
	}
}

// Equal reports whether two cells hold the same variant and value.
func (c Cell) Equal(other Cell) bool {
	if c.kind != other.kind {
		return false
	}
	switch c.kind {
	case KindText:
		return c.text == other.text
	case KindNumber:
		return c.num == other.num
	case KindDate:
		return c.date.Equal(other.date)
	default:
		return true
	}
}

// =============================================================================
// GRID
// =============================================================================

// Row holds one cell per grid column, aligned by position.
type Row []Cell

// Grid is an ordered list of column labels and rows of cells.
// Labels are not required to be unique until the grid is normalized.
type Grid struct {
	// Columns contains the column labels in sheet order.
	Columns []string

	// Rows contains the data rows. Every row has len(Columns) cells.
	Rows []Row
}

// New creates a grid with the given labels and no rows.
func New(columns []string) *Grid {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Grid{Columns: cols}
}

// AppendRow adds a row, padding or truncating it to the column count.
func (g *Grid) AppendRow(cells ...Cell) {
	row := make(Row, len(g.Columns))
	copy(row, cells)
	g.Rows = append(g.Rows, row)
}

// Len returns the number of rows.
func (g *Grid) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Rows)
}

// IsEmpty reports whether the grid has neither columns nor rows.
func (g *Grid) IsEmpty() bool {
	return g == nil || (len(g.Columns) == 0 && len(g.Rows) == 0)
}

// ColumnIndex returns the position of the last column with the given label,
// or -1 if there is none.
func (g *Grid) ColumnIndex(label string) int {
	for i := len(g.Columns) - 1; i >= 0; i-- {
		if g.Columns[i] == label {
			return i
		}
	}
	return -1
}

// Cell returns the cell at (row, label). Unknown labels yield an empty cell.
func (g *Grid) Cell(row int, label string) Cell {
	col := g.ColumnIndex(label)
	if col < 0 || row < 0 || row >= len(g.Rows) || col >= len(g.Rows[row]) {
		return Empty()
	}
	return g.Rows[row][col]
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	if g == nil {
		return &Grid{}
	}
	out := New(g.Columns)
	out.Rows = make([]Row, len(g.Rows))
	for i, row := range g.Rows {
		out.Rows[i] = make(Row, len(row))
		copy(out.Rows[i], row)
	}
	return out
}
