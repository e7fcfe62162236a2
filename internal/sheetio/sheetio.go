// =============================================================================
// Conciliador - Tabular Source/Sink Module
// =============================================================================
//
// This module picks the right reader or writer for a file by its extension.
//
// SUPPORTED FORMATS:
//   | Extension     | Read | Write | Backend            |
//   |---------------|------|-------|--------------------|
//   | .xlsx, .xlsm  | yes  | .xlsx | xlsxparser         |
//   | .csv          | yes  | yes   | csvparser          |
//   | .xml          | no   | yes   | xmlwriter          |
//
// =============================================================================

package sheetio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/conciliador/internal/csvparser"
	"github.com/ginjaninja78/conciliador/internal/grid"
	"github.com/ginjaninja78/conciliador/internal/xlsxparser"
	"github.com/ginjaninja78/conciliador/internal/xmlwriter"
)

var (
	// ErrNotFound is returned when the input file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrUnsupportedFormat is returned for extensions outside the supported set.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyData is returned when writing a grid without columns or rows.
	ErrEmptyData = errors.New("no data to write")
)

// ReadExtensions lists the extensions Read accepts.
var ReadExtensions = []string{".xlsx", ".xlsm", ".csv"}

// WriteExtensions lists the extensions Write accepts.
var WriteExtensions = []string{".xlsx", ".csv", ".xml"}

// Options carries the per-format settings.
type Options struct {
	// CSV is used for reading and writing .csv files.
	CSV csvparser.Settings

	// SheetName names the worksheet of written workbooks.
	SheetName string

	// NumberFormats maps output column labels to Excel number format codes.
	NumberFormats map[string]string

	// XML controls .xml output.
	XML xmlwriter.GenerateOptions
}

// DefaultOptions returns the default settings of every backend.
func DefaultOptions() Options {
	return Options{
		CSV: csvparser.DefaultSettings(),
		XML: xmlwriter.DefaultGenerateOptions(),
	}
}

// Supported reports whether ext (with leading dot, any case) is in exts.
func Supported(ext string, exts []string) bool {
	ext = strings.ToLower(ext)
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

// Read loads path with the default options.
func Read(path string) (*grid.Grid, error) {
	return ReadWith(path, DefaultOptions())
}

// ReadWith loads path into a raw grid.
//
// PARAMETERS:
//   - path: An .xlsx, .xlsm or .csv file.
//   - opts: Format settings; only CSV is consulted.
//
// RETURNS:
//   - The raw, un-normalized grid.
//   - ErrNotFound, ErrUnsupportedFormat or a wrapped I/O error.
func ReadWith(path string, opts Options) (*grid.Grid, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(ext, ReadExtensions) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	switch ext {
	case ".csv":
		return csvparser.Parse(path, opts.CSV)
	default:
		return xlsxparser.Parse(path)
	}
}

// Write stores g at path in the format named by its extension.
//
// RETURNS:
//   - The path written.
//   - ErrEmptyData, ErrUnsupportedFormat or a wrapped I/O error.
func Write(g *grid.Grid, path string, opts Options) (string, error) {
	if g == nil || len(g.Columns) == 0 || g.Len() == 0 {
		return "", ErrEmptyData
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(ext, WriteExtensions) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var err error
	switch ext {
	case ".csv":
		err = csvparser.Write(g, path, opts.CSV)
	case ".xml":
		err = xmlwriter.Write(g, path, opts.XML)
	default:
		err = xlsxparser.Write(g, path, xlsxparser.WriteOptions{
			SheetName:     opts.SheetName,
			NumberFormats: opts.NumberFormats,
		})
	}
	if err != nil {
		return "", err
	}

	return path, nil
}
