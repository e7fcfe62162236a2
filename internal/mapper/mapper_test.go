package mapper

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/conciliador/internal/grid"
	"github.com/ginjaninja78/conciliador/internal/validation"
)

// ----------------------------------------------------------------------------
// Resolver
// ----------------------------------------------------------------------------

func TestResolve_Defaults(t *testing.T) {
	r := NewResolver(DefaultSynonyms())

	m, err := r.Resolve([]string{" Data Lançamento ", "Forma de Pagamento", "Valor (R$)", "Cliente"})
	require.NoError(t, err)
	assert.Equal(t, Mapping{
		Date:        " Data Lançamento ",
		PaymentType: "Forma de Pagamento",
		Amount:      "Valor (R$)",
	}, m)
}

func TestResolve_PriorityDateOverPaymentType(t *testing.T) {
	r := NewResolver(DefaultSynonyms())

	assert.Equal(t, fieldDate, r.Classify("Data da Transação"))
	assert.Equal(t, fieldPaymentType, r.Classify("Descrição"))
	assert.Equal(t, fieldAmount, r.Classify("TOTAL"))
	assert.Equal(t, "", r.Classify("Cliente"))
	assert.Equal(t, "", r.Classify("   "))
}

func TestResolve_LastMatchWins(t *testing.T) {
	r := NewResolver(DefaultSynonyms())

	m, err := r.Resolve([]string{"Data", "Tipo", "Valor", "Data Movimento", "Montante"})
	require.NoError(t, err)
	assert.Equal(t, "Data Movimento", m.Date)
	assert.Equal(t, "Tipo", m.PaymentType)
	assert.Equal(t, "Montante", m.Amount)
}

func TestResolve_MissingColumns(t *testing.T) {
	r := NewResolver(DefaultSynonyms())

	_, err := r.Resolve([]string{"Cliente", "Valor"})
	require.Error(t, err)

	var missing *MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{fieldDate, fieldPaymentType}, missing.Fields)
	assert.Contains(t, err.Error(), "date, payment_type")
}

func TestResolve_CustomSynonyms(t *testing.T) {
	r := NewResolver(Synonyms{
		Date:        []string{" WHEN "},
		PaymentType: []string{"method"},
		Amount:      []string{"sum", ""},
	})

	m, err := r.Resolve([]string{"when", "Method", "Sum"})
	require.NoError(t, err)
	assert.Equal(t, Mapping{Date: "when", PaymentType: "Method", Amount: "Sum"}, m)

	_, err = r.Resolve([]string{"Data", "Tipo", "Valor"})
	assert.Error(t, err)
}

// ----------------------------------------------------------------------------
// Extractor
// ----------------------------------------------------------------------------

func statementGrid() *grid.Grid {
	g := grid.New([]string{"Data", "Cliente", "Tipo", "Valor", "Parcelas"})
	g.AppendRow(grid.Date(time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC)), grid.Text("João Silva"), grid.Text("pix"), grid.Number(150.50), grid.Number(1))
	g.AppendRow(grid.Text("07/10/2025"), grid.Text("Maria"), grid.Text("Crédito"), grid.Number(99.9), grid.Number(3))
	g.AppendRow(grid.Text("2025-10-08"), grid.Text("Ana"), grid.Text("pix"), grid.Number(10), grid.Empty())
	g.AppendRow(grid.Text("09/10/2025"), grid.Text("Rui"), grid.Text("boleto"), grid.Number(10), grid.Empty())
	g.AppendRow(grid.Text("10/10/2025"), grid.Text("Eva"), grid.Text("débito"), grid.Number(150.505), grid.Empty())
	g.AppendRow(grid.Text("11/10/2025"), grid.Text("Leo"), grid.Text("dinheiro"), grid.Text("abc"), grid.Empty())
	return g
}

func TestExtract_PartialFailure(t *testing.T) {
	txs, rowErrs, err := NewExtractor().Extract(statementGrid())
	require.NoError(t, err)

	require.Len(t, txs, 2)
	require.Len(t, rowErrs, 4)

	assert.Equal(t, "06/10/2025", txs[0].Date())
	assert.Equal(t, validation.PaymentPix, txs[0].PaymentType())
	assert.Equal(t, "150.5", txs[0].Amount().String())
	assert.Equal(t, validation.PaymentCredit, txs[1].PaymentType())

	rows := make([]int, len(rowErrs))
	for i, re := range rowErrs {
		rows[i] = re.Row
	}
	assert.Equal(t, []int{2, 3, 4, 5}, rows)

	assert.ErrorIs(t, rowErrs[0], validation.ErrInvalidDate)
	assert.ErrorIs(t, rowErrs[1], validation.ErrInvalidPaymentType)
	assert.ErrorIs(t, rowErrs[2], validation.ErrInvalidAmount)
	assert.ErrorIs(t, rowErrs[3], validation.ErrInvalidAmount)
	assert.Contains(t, rowErrs[0].Error(), "row 2")
}

func TestExtract_ExtrasKeepColumnOrder(t *testing.T) {
	txs, _, err := NewExtractor().Extract(statementGrid())
	require.NoError(t, err)
	require.NotEmpty(t, txs)

	extras := txs[0].Extras()
	assert.Equal(t, []string{"Cliente", "Parcelas"}, extras.Keys())

	v, ok := extras.Get("Cliente")
	require.True(t, ok)
	assert.Equal(t, grid.Text("João Silva"), v)

	v, ok = extras.Get("Parcelas")
	require.True(t, ok)
	assert.Equal(t, grid.Number(1), v)
}

func TestExtract_CountInvariant(t *testing.T) {
	payments := []string{"pix", "nope", "crédito", "DEBITO"}
	amounts := []grid.Cell{grid.Number(1), grid.Number(-1), grid.Number(2.25), grid.Text("x"), grid.Number(0.001)}
	dates := []grid.Cell{grid.Text("01/01/2025"), grid.Text("1/1/2025"), grid.Empty()}

	g := grid.New([]string{"Data", "Tipo", "Valor"})
	for i := 0; i < 120; i++ {
		g.AppendRow(dates[i%len(dates)], grid.Text(payments[i%len(payments)]), amounts[i%len(amounts)])
	}

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			txs, rowErrs, err := NewExtractor(WithWorkers(workers)).Extract(g)
			require.NoError(t, err)
			assert.Equal(t, g.Len(), len(txs)+len(rowErrs))
		})
	}
}

func TestExtract_ParallelMatchesSequential(t *testing.T) {
	g := grid.New([]string{"Data", "Tipo", "Valor", "Seq"})
	for i := 0; i < 500; i++ {
		payment := "pix"
		if i%7 == 0 {
			payment = "cheque"
		}
		g.AppendRow(grid.Text("06/10/2025"), grid.Text(payment), grid.Number(float64(i)), grid.Number(float64(i)))
	}

	seqTx, seqErr, err := NewExtractor().Extract(g)
	require.NoError(t, err)

	parTx, parErr, err := NewExtractor(WithWorkers(8)).Extract(g)
	require.NoError(t, err)

	require.Equal(t, len(seqTx), len(parTx))
	for i := range seqTx {
		a, _ := seqTx[i].Extras().Get("Seq")
		b, _ := parTx[i].Extras().Get("Seq")
		assert.Equal(t, a, b)
	}
	assert.Equal(t, seqErr, parErr)
}

func TestExtract_MissingColumnAbortsSheet(t *testing.T) {
	g := grid.New([]string{"Cliente", "Tipo", "Valor"})
	g.AppendRow(grid.Text("x"), grid.Text("pix"), grid.Number(1))

	txs, rowErrs, err := NewExtractor().Extract(g)
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Nil(t, txs)
	assert.Nil(t, rowErrs)
}

func TestExtract_InjectedTables(t *testing.T) {
	payments, err := validation.DefaultPaymentTypes().With(map[string]string{"ted": validation.PaymentPix})
	require.NoError(t, err)

	e := NewExtractor(
		WithResolver(NewResolver(Synonyms{Date: []string{"when"}, PaymentType: []string{"how"}, Amount: []string{"much"}})),
		WithPaymentTypes(payments),
	)

	g := grid.New([]string{"When", "How", "Much"})
	g.AppendRow(grid.Text("06/10/2025"), grid.Text("TED"), grid.Number(12.3))

	txs, rowErrs, err := e.Extract(g)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, txs, 1)
	assert.Equal(t, validation.PaymentPix, txs[0].PaymentType())
}

func TestExtract_NoRows(t *testing.T) {
	txs, rowErrs, err := NewExtractor().Extract(grid.New([]string{"Data", "Tipo", "Valor"}))
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Empty(t, rowErrs)
}
