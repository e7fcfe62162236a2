package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/conciliador/internal/grid"
)

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// txt is shorthand for a text cell; "" becomes an empty cell.
func txt(s string) grid.Cell {
	if s == "" {
		return grid.Empty()
	}
	return grid.Text(s)
}

// buildGrid makes a grid from labels and string rows.
func buildGrid(columns []string, rows ...[]string) *grid.Grid {
	g := grid.New(columns)
	for _, r := range rows {
		cells := make([]grid.Cell, len(r))
		for i, v := range r {
			cells[i] = txt(v)
		}
		g.AppendRow(cells...)
	}
	return g
}

// bodyStrings returns the grid body as strings for easy comparison.
func bodyStrings(g *grid.Grid) [][]string {
	out := make([][]string, len(g.Rows))
	for i, row := range g.Rows {
		out[i] = make([]string, len(row))
		for j, c := range row {
			out[i][j] = c.String()
		}
	}
	return out
}

// ----------------------------------------------------------------------------
// Header detection
// ----------------------------------------------------------------------------

func TestNormalize_PromotesFirstRowAboveFillRatio(t *testing.T) {
	raw := grid.New([]string{"Coluna1", "Data Lançamento", "Forma Pagamento", "Valor Total", "Cliente", "Unnamed: 1"})
	raw.AppendRow()
	raw.AppendRow()
	raw.AppendRow(txt("ID"), txt("Data do Pagamento"), txt("Tipo"), txt("Quantia"), txt("Nome"))
	raw.AppendRow(txt("001"), txt("06/10/2025"), txt("pix"), grid.Number(150.5), txt("João Silva"))

	out := Normalize(raw)

	assert.Equal(t, []string{"ID", "Data do Pagamento", "Tipo", "Quantia", "Nome"}, out.Columns)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, []string{"001", "06/10/2025", "pix", "150.5", "João Silva"}, bodyStrings(out)[0])
}

func TestNormalize_SkipsHeaderDetectionWithoutPlaceholders(t *testing.T) {
	raw := buildGrid([]string{"Data", "Tipo", "Valor"},
		[]string{"x", "", ""},
		[]string{"01/01/2025", "pix", "10"},
	)

	out := Normalize(raw)

	assert.Equal(t, []string{"Data", "Tipo", "Valor"}, out.Columns)
	assert.Equal(t, 2, out.Len())
}

func TestFindHeader_FallsBackToRowZero(t *testing.T) {
	n := NewNormalizer(DefaultOptions())
	raw := buildGrid([]string{"Unnamed: 0", "B", "C", "D"},
		[]string{"a", "", "", ""},
		[]string{"", "b", "", ""},
	)

	idx, ok := n.FindHeader(raw)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestFindHeader_ExactThresholdQualifies(t *testing.T) {
	n := NewNormalizer(Options{HeaderFillRatio: 0.75, MaxFillGap: 10, PlaceholderMarker: "Unnamed"})
	raw := buildGrid([]string{"Unnamed: 0", "B", "C", "D"},
		[]string{"a", "b", "", ""},
		[]string{"a", "b", "c", ""},
	)

	idx, ok := n.FindHeader(raw)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestFindHeader_NoRows(t *testing.T) {
	n := NewNormalizer(DefaultOptions())
	_, ok := n.FindHeader(grid.New([]string{"Unnamed: 0"}))
	assert.False(t, ok)
}

func TestNormalize_PromotedBlankLabelsGetPlaceholders(t *testing.T) {
	raw := buildGrid([]string{"Unnamed: 0", "Unnamed: 1", "Unnamed: 2", "Unnamed: 3"},
		[]string{"Data", "Tipo", "Valor", ""},
		[]string{"01/01/2025", "pix", "10", "obs"},
	)

	out := Normalize(raw)

	assert.Equal(t, []string{"Data", "Tipo", "Valor", "Unnamed: 3"}, out.Columns)
}

// ----------------------------------------------------------------------------
// Empty row / column elimination
// ----------------------------------------------------------------------------

func TestRemoveEmpty_RemovesExactlyEmptyRowsAndColumns(t *testing.T) {
	raw := buildGrid([]string{"A", "B", "C"},
		[]string{"1", "", "x"},
		[]string{"", "", ""},
		[]string{"2", "", ""},
		[]string{"  ", "", ""},
	)

	out := RemoveEmpty(raw)

	assert.Equal(t, []string{"A", "C"}, out.Columns)
	assert.Equal(t, [][]string{{"1", "x"}, {"2", ""}}, bodyStrings(out))
}

func TestRemoveEmpty_KeepsColumnsWhenNoRows(t *testing.T) {
	out := RemoveEmpty(grid.New([]string{"A", "B"}))
	assert.Equal(t, []string{"A", "B"}, out.Columns)
	assert.Equal(t, 0, out.Len())
}

func TestNormalize_EmptyGrid(t *testing.T) {
	out := Normalize(&grid.Grid{})
	require.NotNil(t, out)
	assert.True(t, out.IsEmpty())

	out = Normalize(nil)
	assert.True(t, out.IsEmpty())
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	raw := buildGrid([]string{"A"}, []string{"1"}, []string{""}, []string{"2"})
	_ = Normalize(raw)
	assert.True(t, raw.Rows[1][0].IsEmpty())
	assert.Equal(t, 3, raw.Len())
}

// ----------------------------------------------------------------------------
// Merged cell reconstruction
// ----------------------------------------------------------------------------

func TestFillMerged_FillsShortRuns(t *testing.T) {
	g := buildGrid([]string{"Grupo", "Valor"},
		[]string{"A", "1"},
		[]string{"", "2"},
		[]string{"", "3"},
		[]string{"B", "4"},
		[]string{"", "5"},
	)

	FillMerged(g, 10)

	assert.Equal(t, [][]string{{"A", "1"}, {"A", "2"}, {"A", "3"}, {"B", "4"}, {"B", "5"}}, bodyStrings(g))
}

func TestFillMerged_RunAtLimitIsFilled(t *testing.T) {
	rows := [][]string{{"A", "0"}}
	for i := 0; i < 10; i++ {
		rows = append(rows, []string{"", "x"})
	}
	g := buildGrid([]string{"Grupo", "Outro"}, rows...)

	FillMerged(g, 10)

	for i := 1; i <= 10; i++ {
		assert.Equal(t, "A", g.Rows[i][0].String(), "row %d", i)
	}
}

func TestFillMerged_LongerRunIsLeftEmpty(t *testing.T) {
	rows := [][]string{{"A", "0"}}
	for i := 0; i < 11; i++ {
		rows = append(rows, []string{"", "x"})
	}
	rows = append(rows, []string{"B", "y"}, []string{"", "z"})
	g := buildGrid([]string{"Grupo", "Outro"}, rows...)

	FillMerged(g, 10)

	for i := 1; i <= 11; i++ {
		assert.True(t, g.Rows[i][0].IsEmpty(), "row %d should stay empty", i)
	}
	assert.Equal(t, "B", g.Rows[13][0].String())
}

func TestFillMerged_LeadingEmptiesStayEmpty(t *testing.T) {
	g := buildGrid([]string{"A", "B"},
		[]string{"", "1"},
		[]string{"x", "2"},
	)

	FillMerged(g, 10)

	assert.True(t, g.Rows[0][0].IsEmpty())
}

func TestFillMerged_PreservesCellKind(t *testing.T) {
	g := grid.New([]string{"Valor", "Obs"})
	g.AppendRow(grid.Number(10), txt("a"))
	g.AppendRow(grid.Empty(), txt("b"))

	FillMerged(g, 10)

	v, ok := g.Rows[1][0].NumberValue()
	require.True(t, ok)
	assert.Equal(t, 10.0, v)
}

func TestFillMerged_DisabledWithZeroGap(t *testing.T) {
	g := buildGrid([]string{"A", "B"}, []string{"x", "1"}, []string{"", "2"})
	FillMerged(g, 0)
	assert.True(t, g.Rows[1][0].IsEmpty())
}
