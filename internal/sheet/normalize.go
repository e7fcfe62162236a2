// =============================================================================
// Conciliador - Sheet Normalizer
// =============================================================================
//
// Bank exports rarely start with a clean header row. They carry titles,
// account banners, blank spacer rows and merged cells. This module turns such
// a raw grid into a rectangular table whose first row is the real header.
//
// NORMALIZATION STEPS (in order):
//   1. Header detection  : promote the first row that is at least 70% filled
//   2. Empty elimination : drop rows and columns that are entirely empty
//   3. Merge recovery    : copy values down into short runs of empty cells
//
// =============================================================================

package sheet

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/conciliador/internal/grid"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options tunes the normalizer. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// HeaderFillRatio is the minimum fraction of non-empty cells a row needs
	// to be taken as the header.
	// Default: 0.70
	HeaderFillRatio float64

	// MaxFillGap is the longest run of empty cells that is reconstructed as a
	// merged cell. Longer runs are treated as genuinely missing values.
	// Default: 10
	MaxFillGap int

	// PlaceholderMarker is the substring readers put into labels of blank
	// header cells. Header detection only runs when a label contains it.
	// Default: "Unnamed"
	PlaceholderMarker string
}

// DefaultOptions returns the normalizer defaults.
func DefaultOptions() Options {
	return Options{
		HeaderFillRatio:   0.70,
		MaxFillGap:        10,
		PlaceholderMarker: "Unnamed",
	}
}

// PlaceholderLabel returns the label given to a blank header cell at the
// zero-based column index.
func PlaceholderLabel(index int) string {
	return fmt.Sprintf("Unnamed: %d", index)
}

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalizer cleans raw grids.
type Normalizer struct {
	opts Options
}

// NewNormalizer creates a Normalizer with the given options.
func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Normalize cleans a grid with DefaultOptions.
func Normalize(g *grid.Grid) *grid.Grid {
	return NewNormalizer(DefaultOptions()).Normalize(g)
}

// Normalize returns a cleaned copy of the grid. The input is not modified.
//
// PARAMETERS:
//   - g: The raw grid as produced by a reader.
//
// RETURNS:
//   - The normalized grid. An empty input yields an empty grid.
func (n *Normalizer) Normalize(g *grid.Grid) *grid.Grid {
	if g.IsEmpty() {
		return &grid.Grid{}
	}

	out := g.Clone()

	if n.hasPlaceholders(out.Columns) {
		if header, ok := n.FindHeader(out); ok {
			out = promoteHeader(out, header)
		}
	}

	out = RemoveEmpty(out)
	FillMerged(out, n.opts.MaxFillGap)

	return out
}

// hasPlaceholders reports whether any label carries the placeholder marker.
func (n *Normalizer) hasPlaceholders(columns []string) bool {
	if n.opts.PlaceholderMarker == "" {
		return false
	}
	for _, label := range columns {
		if strings.Contains(label, n.opts.PlaceholderMarker) {
			return true
		}
	}
	return false
}

// FindHeader returns the index of the first row whose share of non-empty
// cells reaches HeaderFillRatio. When no row qualifies it falls back to row 0.
// The boolean is false only when the grid has no rows to promote.
func (n *Normalizer) FindHeader(g *grid.Grid) (int, bool) {
	if len(g.Rows) == 0 || len(g.Columns) == 0 {
		return 0, false
	}

	total := float64(len(g.Columns))
	for i, row := range g.Rows {
		filled := 0
		for _, cell := range row {
			if !cell.IsEmpty() {
				filled++
			}
		}
		if float64(filled)/total >= n.opts.HeaderFillRatio {
			return i, true
		}
	}

	return 0, true
}

// promoteHeader turns row idx into the column labels and drops every row at
// or above it.
func promoteHeader(g *grid.Grid, idx int) *grid.Grid {
	labels := make([]string, len(g.Columns))
	for i, cell := range g.Rows[idx] {
		if cell.IsEmpty() {
			labels[i] = PlaceholderLabel(i)
			continue
		}
		labels[i] = strings.TrimSpace(cell.String())
	}

	out := grid.New(labels)
	out.Rows = g.Rows[idx+1:]
	return out
}

// =============================================================================
// EMPTY ROW / COLUMN ELIMINATION
// =============================================================================

// RemoveEmpty drops rows that are empty in every column and columns that are
// empty in every row. Both sets are computed on the input, so the two passes
// do not influence each other. A grid without rows keeps all its columns.
func RemoveEmpty(g *grid.Grid) *grid.Grid {
	keepCols := make([]int, 0, len(g.Columns))
	for col := range g.Columns {
		if len(g.Rows) == 0 || !columnEmpty(g, col) {
			keepCols = append(keepCols, col)
		}
	}

	labels := make([]string, len(keepCols))
	for i, col := range keepCols {
		labels[i] = g.Columns[col]
	}

	out := grid.New(labels)
	for _, row := range g.Rows {
		if rowEmpty(row) {
			continue
		}
		cells := make(grid.Row, len(keepCols))
		for i, col := range keepCols {
			if col < len(row) {
				cells[i] = row[col]
			}
		}
		out.Rows = append(out.Rows, cells)
	}

	return out
}

// rowEmpty checks if a row contains only empty cells.
func rowEmpty(row grid.Row) bool {
	for _, cell := range row {
		if !cell.IsEmpty() {
			return false
		}
	}
	return true
}

// columnEmpty checks if the column at col is empty in every row.
func columnEmpty(g *grid.Grid, col int) bool {
	for _, row := range g.Rows {
		if col < len(row) && !row[col].IsEmpty() {
			return false
		}
	}
	return true
}

// =============================================================================
// MERGED CELL RECONSTRUCTION
// =============================================================================

// FillMerged fills, in place, each run of empty cells with the nearest
// non-empty value above it in the same column, provided the run is at most
// maxGap cells long. Runs with nothing above them, and runs longer than
// maxGap, are left untouched.
func FillMerged(g *grid.Grid, maxGap int) {
	if maxGap <= 0 {
		return
	}

	for col := range g.Columns {
		var last grid.Cell
		haveLast := false

		for row := 0; row < len(g.Rows); {
			cell := g.Rows[row][col]
			if !cell.IsEmpty() {
				last, haveLast = cell, true
				row++
				continue
			}

			// Measure the run of empty cells starting here.
			end := row
			for end < len(g.Rows) && g.Rows[end][col].IsEmpty() {
				end++
			}

			if haveLast && end-row <= maxGap {
				for r := row; r < end; r++ {
					g.Rows[r][col] = last
				}
			}
			row = end
		}
	}
}
