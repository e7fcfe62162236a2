package sheetio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/conciliador/internal/grid"
)

func outputGrid() *grid.Grid {
	g := grid.New([]string{"Data", "Tipo", "Valor"})
	g.AppendRow(grid.Text("06/10/2025"), grid.Text("pix"), grid.Number(150.5))
	return g
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Read(filepath.Join(dir, "missing.xlsx"))
	assert.ErrorIs(t, err, ErrNotFound)

	legacy := filepath.Join(dir, "extrato.xls")
	require.NoError(t, os.WriteFile(legacy, []byte("x"), 0o644))
	_, err = Read(legacy)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Read(filepath.Join(dir, "notes.txt"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWrite_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Write(grid.New([]string{"Data"}), filepath.Join(dir, "out.xlsx"), DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyData)

	_, err = Write(nil, filepath.Join(dir, "out.xlsx"), DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyData)

	_, err = Write(outputGrid(), filepath.Join(dir, "out.ods"), DefaultOptions())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteRead_RoundTrip(t *testing.T) {
	for _, ext := range []string{".xlsx", ".csv"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "out"+ext)

			written, err := Write(outputGrid(), path, DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, path, written)

			back, err := Read(written)
			require.NoError(t, err)
			assert.Equal(t, outputGrid().Columns, back.Columns)
			assert.Equal(t, outputGrid().Rows, back.Rows)
		})
	}
}

func TestWrite_XML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.XML")

	written, err := Write(outputGrid(), path, DefaultOptions())
	require.NoError(t, err)

	raw, err := os.ReadFile(written)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `<coluna nome="Tipo">pix</coluna>`)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(".XLSM", ReadExtensions))
	assert.False(t, Supported(".xml", ReadExtensions))
	assert.True(t, Supported(".xml", WriteExtensions))
}
