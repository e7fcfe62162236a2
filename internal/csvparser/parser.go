// =============================================================================
// Conciliador - CSV Parser Module
// =============================================================================
//
// This module reads and writes delimited text sheets as grid.Grid values.
//
// FEATURES:
//   - Configurable delimiter (comma, semicolon, pipe, tab, ...)
//   - UTF-8 (with or without BOM), ISO-8859-1 and Windows-1252 input
//   - Ragged rows are padded to the widest row
//   - Cell type inference, since CSV carries no types:
//       | Text                               | Grid cell |
//       |------------------------------------|-----------|
//       | blank                              | Empty     |
//       | finite decimal number ("150.50")   | Number    |
//       | ISO date ("2025-10-06")            | Date      |
//       | anything else                      | Text      |
//     DD/MM/YYYY dates stay Text; the extractor accepts them verbatim.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/conciliador/internal/grid"
	"github.com/ginjaninja78/conciliador/internal/sheet"
)

// =============================================================================
// SETTINGS
// =============================================================================

// Settings controls CSV decoding and encoding.
type Settings struct {
	// Comma is the field delimiter. Default: ','.
	Comma rune

	// Encoding is "UTF-8", "ISO-8859-1" or "Windows-1252". Default: UTF-8.
	Encoding string
}

// DefaultSettings returns comma-separated UTF-8.
func DefaultSettings() Settings {
	return Settings{Comma: ',', Encoding: "UTF-8"}
}

// lookupEncoding maps an encoding name to its x/text implementation.
// UTF-8 input may start with a byte order mark; UTF-8 output never does.
func lookupEncoding(name string, writing bool) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "UTF-8", "UTF8":
		if writing {
			return unicode.UTF8, nil
		}
		return unicode.UTF8BOM, nil
	case "ISO-8859-1", "LATIN1":
		return charmap.ISO8859_1, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file into a raw grid.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter and encoding.
//
// RETURNS:
//   - The grid. The first record supplies the labels; blank labels become
//     placeholders.
//   - An error if the file cannot be opened, decoded or parsed.
func Parse(filePath string, settings Settings) (*grid.Grid, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file, settings)
}

// ParseReader reads CSV data from r into a raw grid.
func ParseReader(r io.Reader, settings Settings) (*grid.Grid, error) {
	enc, err := lookupEncoding(settings.Encoding, false)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(transform.NewReader(bufio.NewReader(r), enc.NewDecoder()))
	configureReader(csvReader, settings)

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(records) == 0 {
		return &grid.Grid{}, nil
	}

	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	labels := make([]string, width)
	for i := range labels {
		if i < len(records[0]) {
			labels[i] = strings.TrimSpace(records[0][i])
		}
		if labels[i] == "" {
			labels[i] = sheet.PlaceholderLabel(i)
		}
	}

	g := grid.New(labels)
	for _, rec := range records[1:] {
		cells := make([]grid.Cell, len(rec))
		for i, value := range rec {
			cells[i] = InferCell(value)
		}
		g.AppendRow(cells...)
	}

	return g, nil
}

// configureReader applies the settings to the CSV reader.
func configureReader(reader *csv.Reader, settings Settings) {
	reader.Comma = settings.Comma
	if reader.Comma == 0 {
		reader.Comma = ','
	}

	// Exports often have rows of different lengths.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// isoLayouts are the date layouts recognized by InferCell.
var isoLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

// InferCell turns a CSV field into a typed cell.
func InferCell(value string) grid.Cell {
	v := strings.TrimSpace(value)
	if v == "" {
		return grid.Empty()
	}

	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) && looksNumeric(v) {
		return grid.Number(f)
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return grid.Date(t)
		}
	}

	return grid.Text(v)
}

// looksNumeric rejects spellings strconv accepts but a sheet would show as
// text: hex, underscores and "Inf"/"NaN" words.
func looksNumeric(v string) bool {
	for _, c := range v {
		switch {
		case c >= '0' && c <= '9':
		case c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E':
		default:
			return false
		}
	}
	return true
}

// =============================================================================
// WRITER
// =============================================================================

// Write stores g as CSV at filePath: one header record, then one record per
// row with every cell rendered by grid.Cell.String.
func Write(g *grid.Grid, filePath string, settings Settings) error {
	enc, err := lookupEncoding(settings.Encoding, true)
	if err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	encoder := transform.NewWriter(file, enc.NewEncoder())
	w := csv.NewWriter(encoder)
	if settings.Comma != 0 {
		w.Comma = settings.Comma
	}

	writeErr := writeRecords(w, g)
	if err := encoder.Close(); err != nil && writeErr == nil {
		writeErr = fmt.Errorf("failed to encode CSV: %w", err)
	}
	if err := file.Close(); err != nil && writeErr == nil {
		writeErr = fmt.Errorf("failed to close file: %w", err)
	}
	return writeErr
}

func writeRecords(w *csv.Writer, g *grid.Grid) error {
	if err := w.Write(g.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(g.Columns))
	for i, row := range g.Rows {
		for j := range record {
			record[j] = ""
			if j < len(row) {
				record[j] = row[j].String()
			}
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	w.Flush()
	return w.Error()
}
