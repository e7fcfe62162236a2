// =============================================================================
// Conciliador - Field Resolver
// =============================================================================
//
// This module maps raw column labels to the three canonical transaction
// fields by keyword matching.
//
// MATCHING RULES:
//   1. Each label is trimmed and lower-cased.
//   2. A synonym set matches when any of its keywords is a substring of the
//      label ("data lançamento" matches the keyword "data").
//   3. Sets are tried in priority order: date, payment type, amount. The
//      first matching set claims the label.
//   4. When several labels match the same field, the last one in scan order
//      is kept.
//
// Labels that match nothing are left for the extras.
//
// =============================================================================

package mapper

import (
	"fmt"
	"strings"
)

// =============================================================================
// SYNONYMS
// =============================================================================

// Synonyms holds the keyword sets for each canonical field.
type Synonyms struct {
	Date        []string
	PaymentType []string
	Amount      []string
}

// DefaultSynonyms returns the built-in Portuguese/English keyword sets.
func DefaultSynonyms() Synonyms {
	return Synonyms{
		Date: []string{
			"data", "dt", "date", "data da transação", "data lançamento",
			"data_movimento", "data_transacao",
		},
		PaymentType: []string{
			"tipo", "tipo de transação", "transação", "transacao", "natureza",
			"categoria", "descrição", "descricao", "forma de pagamento",
			"meio de pagamento", "método de pagamento", "metodo de pagamento",
			"pagamento", "transferência", "transferencia",
		},
		Amount: []string{
			"valor", "valor da transação", "valor_transacao", "quantia",
			"montante", "total", "amount",
		},
	}
}

// normalized returns a copy with every keyword trimmed and lower-cased and
// blanks removed.
func (s Synonyms) normalized() Synonyms {
	clean := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, k := range in {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				out = append(out, k)
			}
		}
		return out
	}
	return Synonyms{
		Date:        clean(s.Date),
		PaymentType: clean(s.PaymentType),
		Amount:      clean(s.Amount),
	}
}

// =============================================================================
// MAPPING
// =============================================================================

// Mapping holds the column label resolved for each canonical field.
// An empty string means the field was not found.
type Mapping struct {
	Date        string
	PaymentType string
	Amount      string
}

// Consumes reports whether label is one of the resolved columns.
func (m Mapping) Consumes(label string) bool {
	return label == m.Date || label == m.PaymentType || label == m.Amount
}

// MissingColumnError is returned when one or more canonical fields have no
// matching column. It aborts extraction for the whole sheet.
type MissingColumnError struct {
	// Fields lists the missing canonical fields in priority order.
	Fields []string
}

// Error implements the error interface.
func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required columns not found: %s", strings.Join(e.Fields, ", "))
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver assigns column labels to canonical fields.
// It is immutable and safe for concurrent use.
type Resolver struct {
	synonyms Synonyms
}

// NewResolver creates a Resolver over the given keyword sets.
func NewResolver(synonyms Synonyms) *Resolver {
	return &Resolver{synonyms: synonyms.normalized()}
}

// Resolve maps labels to canonical fields.
//
// PARAMETERS:
//   - columns: The column labels in sheet order.
//
// RETURNS:
//   - The Mapping with every field resolved.
//   - A *MissingColumnError naming each field left unresolved.
func (r *Resolver) Resolve(columns []string) (Mapping, error) {
	var m Mapping

	for _, label := range columns {
		switch r.Classify(label) {
		case fieldDate:
			m.Date = label
		case fieldPaymentType:
			m.PaymentType = label
		case fieldAmount:
			m.Amount = label
		}
	}

	var missing []string
	if m.Date == "" {
		missing = append(missing, fieldDate)
	}
	if m.PaymentType == "" {
		missing = append(missing, fieldPaymentType)
	}
	if m.Amount == "" {
		missing = append(missing, fieldAmount)
	}
	if len(missing) > 0 {
		return m, &MissingColumnError{Fields: missing}
	}

	return m, nil
}

// Classify returns the canonical field a single label belongs to, or ""
// when it matches no synonym set.
func (r *Resolver) Classify(label string) string {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if normalized == "" {
		return ""
	}

	switch {
	case containsAny(normalized, r.synonyms.Date):
		return fieldDate
	case containsAny(normalized, r.synonyms.PaymentType):
		return fieldPaymentType
	case containsAny(normalized, r.synonyms.Amount):
		return fieldAmount
	default:
		return ""
	}
}

func containsAny(label string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(label, k) {
			return true
		}
	}
	return false
}
