package xlsxparser

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/conciliador/internal/grid"
)

// DefaultSheetName is the name of the single worksheet written by Write.
const DefaultSheetName = "Conciliacao"

// WriteOptions controls the layout of the written workbook.
type WriteOptions struct {
	// SheetName names the worksheet. Default: DefaultSheetName.
	SheetName string

	// NumberFormats maps a column label to an Excel number format code
	// applied to its data cells, e.g. "#,##0.00".
	NumberFormats map[string]string
}

// Write stores g as a single-sheet workbook at path, with a bold header row
// and columns sized to their labels.
//
// PARAMETERS:
//   - g: The grid to write.
//   - path: The destination path; it is overwritten.
//   - opts: Sheet name and per-column number formats.
//
// RETURNS:
//   - An error if a cell or style cannot be set or the file cannot be saved.
func Write(g *grid.Grid, path string, opts WriteOptions) error {
	f := excelize.NewFile()
	defer f.Close()

	name := opts.SheetName
	if name == "" {
		name = DefaultSheetName
	}
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, label := range g.Columns {
		ref, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(name, ref, label); err != nil {
			return fmt.Errorf("failed to write header %q: %w", label, err)
		}
		if err := f.SetCellStyle(name, ref, ref, header); err != nil {
			return fmt.Errorf("failed to style header %q: %w", label, err)
		}

		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width := float64(len([]rune(label)) + 4)
		if width < 12 {
			width = 12
		}
		if err := f.SetColWidth(name, colName, colName, width); err != nil {
			return fmt.Errorf("failed to size column %q: %w", label, err)
		}
	}

	for rowIdx, row := range g.Rows {
		for col, cell := range row {
			ref, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := setCell(f, name, ref, cell); err != nil {
				return fmt.Errorf("failed to write %s: %w", ref, err)
			}
		}
	}

	if len(g.Rows) > 0 {
		if err := applyNumberFormats(f, name, g, opts.NumberFormats); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet, ref string, cell grid.Cell) error {
	switch cell.Kind() {
	case grid.KindText:
		s, _ := cell.TextValue()
		return f.SetCellStr(sheet, ref, s)
	case grid.KindNumber:
		n, _ := cell.NumberValue()
		return f.SetCellFloat(sheet, ref, n, -1, 64)
	case grid.KindDate:
		t, _ := cell.DateValue()
		return f.SetCellValue(sheet, ref, t)
	default:
		return nil
	}
}

// applyNumberFormats styles the data cells of each formatted column.
func applyNumberFormats(f *excelize.File, sheet string, g *grid.Grid, formats map[string]string) error {
	for label, code := range formats {
		col := g.ColumnIndex(label)
		if col < 0 || code == "" {
			continue
		}

		numFmt := code
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		if err != nil {
			return fmt.Errorf("invalid number format %q for column %q: %w", code, label, err)
		}

		top, err := excelize.CoordinatesToCellName(col+1, 2)
		if err != nil {
			return err
		}
		bottom, err := excelize.CoordinatesToCellName(col+1, len(g.Rows)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, top, bottom, style); err != nil {
			return fmt.Errorf("failed to format column %q: %w", label, err)
		}
	}
	return nil
}
