// =============================================================================
// Conciliador - XLSX Sheet Parser
// =============================================================================
//
// This module reads the first worksheet of an .xlsx/.xlsm workbook into a
// grid.Grid.
//
// LAYOUT:
//   The first sheet row becomes the column labels; blank label cells get a
//   placeholder ("Unnamed: <i>") so the normalizer can tell the real header
//   was not on the first row. Every following row becomes a data row.
//
// CELL TYPES:
//   | Stored as                            | Grid cell |
//   |--------------------------------------|-----------|
//   | shared/inline string, formula string | Text      |
//   | number with a date number format     | Date      |
//   | ISO 8601 date cell (t="d")           | Date      |
//   | any other number                     | Number    |
//   | boolean                              | Text      |
//   | nothing                              | Empty     |
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/conciliador/internal/grid"
	"github.com/ginjaninja78/conciliador/internal/sheet"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the first worksheet of an XLSX workbook.
//
// PARAMETERS:
//   - path: The path to the workbook.
//
// RETURNS:
//   - The raw (not normalized) grid.
//   - An error if the workbook cannot be opened or read.
func Parse(path string) (*grid.Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return ParseFile(f)
}

// ParseFile reads the first worksheet of an open workbook.
func ParseFile(f *excelize.File) (*grid.Grid, error) {
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) == 0 {
		return &grid.Grid{}, nil
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	r := &cellReader{f: f, sheet: sheetName, dateStyles: make(map[int]bool)}

	labels := make([]string, width)
	for col := 0; col < width; col++ {
		var cell grid.Cell
		if col < len(rows[0]) {
			cell, err = r.cell(0, col, rows[0][col])
			if err != nil {
				return nil, err
			}
		}
		label := strings.TrimSpace(cell.String())
		if label == "" {
			label = sheet.PlaceholderLabel(col)
		}
		labels[col] = label
	}

	g := grid.New(labels)
	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		raw := rows[rowIdx]
		cells := make([]grid.Cell, width)
		for col := 0; col < len(raw) && col < width; col++ {
			cells[col], err = r.cell(rowIdx, col, raw[col])
			if err != nil {
				return nil, err
			}
		}
		g.AppendRow(cells...)
	}

	return g, nil
}

// =============================================================================
// CELL DECODING
// =============================================================================

// cellReader decodes raw cell values using the cell type and style.
type cellReader struct {
	f          *excelize.File
	sheet      string
	dateStyles map[int]bool
}

// cell converts one raw value at zero-based (row, col).
func (r *cellReader) cell(row, col int, raw string) (grid.Cell, error) {
	if raw == "" {
		return grid.Empty(), nil
	}

	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return grid.Cell{}, err
	}

	cellType, err := r.f.GetCellType(r.sheet, ref)
	if err != nil {
		return grid.Cell{}, fmt.Errorf("cell %s: %w", ref, err)
	}

	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return grid.Text(raw), nil

	case excelize.CellTypeBool:
		if raw == "1" {
			return grid.Text("TRUE"), nil
		}
		return grid.Text("FALSE"), nil

	case excelize.CellTypeDate:
		if t, ok := parseISODate(raw); ok {
			return grid.Date(t), nil
		}
		return grid.Text(raw), nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return grid.Text(raw), nil
	}

	isDate, err := r.hasDateFormat(ref)
	if err != nil {
		return grid.Cell{}, err
	}
	if isDate {
		t, err := excelize.ExcelDateToTime(f, false)
		if err == nil {
			return grid.Date(t), nil
		}
	}

	return grid.Number(f), nil
}

// hasDateFormat reports whether the cell's number format renders a date.
func (r *cellReader) hasDateFormat(ref string) (bool, error) {
	idx, err := r.f.GetCellStyle(r.sheet, ref)
	if err != nil {
		return false, fmt.Errorf("cell %s style: %w", ref, err)
	}
	if idx == 0 {
		return false, nil
	}
	if cached, ok := r.dateStyles[idx]; ok {
		return cached, nil
	}

	style, err := r.f.GetStyle(idx)
	if err != nil {
		return false, fmt.Errorf("style %d: %w", idx, err)
	}

	isDate := isDateNumFmt(style.NumFmt)
	if style.CustomNumFmt != nil {
		isDate = isDateFormatCode(*style.CustomNumFmt)
	}

	r.dateStyles[idx] = isDate
	return isDate, nil
}

// isDateNumFmt reports whether a built-in number format id is a date or
// date-time format.
func isDateNumFmt(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 45 && id <= 47)
}

// isDateFormatCode reports whether a custom format code shows a day or a
// year. Quoted literals and bracketed sections are ignored.
func isDateFormatCode(code string) bool {
	var (
		inQuote   bool
		inBracket bool
	)
	for _, c := range strings.ToLower(code) {
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[':
			inBracket = true
		case c == ']':
			inBracket = false
		case inBracket:
		case c == 'd' || c == 'y':
			return true
		}
	}
	return false
}

// parseISODate parses the ISO 8601 forms used by t="d" cells.
func parseISODate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
