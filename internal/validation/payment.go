package validation

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// CANONICAL PAYMENT TYPES
// =============================================================================

// Canonical payment type tokens.
const (
	PaymentCredit    = "CRÉDITO"
	PaymentDebit     = "DÉBITO"
	PaymentAgreement = "CONVENIADO"
	PaymentPix       = "PIX"
	PaymentCash      = "DINHEIRO"
)

// CanonicalPaymentTypes lists every canonical token.
var CanonicalPaymentTypes = []string{
	PaymentCredit,
	PaymentDebit,
	PaymentAgreement,
	PaymentPix,
	PaymentCash,
}

// IsCanonicalPaymentType reports whether token is one of the canonical tokens.
func IsCanonicalPaymentType(token string) bool {
	for _, c := range CanonicalPaymentTypes {
		if c == token {
			return true
		}
	}
	return false
}

// defaultPaymentVariants maps spelling variants to canonical tokens.
// Keys are compared after FoldToken, so accents and case do not matter.
var defaultPaymentVariants = map[string]string{
	"crédito":    PaymentCredit,
	"débito":     PaymentDebit,
	"conveniado": PaymentAgreement,
	"convenio":   PaymentAgreement,
	"pix":        PaymentPix,
	"dinheiro":   PaymentCash,
	"cash":       PaymentCash,
}

// =============================================================================
// PAYMENT TYPE TABLE
// =============================================================================

// PaymentTypes is an immutable synonym table resolving payment type
// spellings to canonical tokens.
type PaymentTypes struct {
	variants map[string]string
}

// DefaultPaymentTypes returns the built-in synonym table.
func DefaultPaymentTypes() *PaymentTypes {
	pt, _ := NewPaymentTypes(defaultPaymentVariants)
	return pt
}

// NewPaymentTypes builds a table from variant -> canonical pairs. Every
// canonical token always resolves to itself. Values must be canonical tokens.
func NewPaymentTypes(variants map[string]string) (*PaymentTypes, error) {
	table := make(map[string]string, len(variants)+len(CanonicalPaymentTypes))
	for _, c := range CanonicalPaymentTypes {
		table[FoldToken(c)] = c
	}

	for variant, canonical := range variants {
		if !IsCanonicalPaymentType(canonical) {
			return nil, fmt.Errorf("payment type %q maps to non-canonical token %q", variant, canonical)
		}
		key := FoldToken(variant)
		if key == "" {
			return nil, fmt.Errorf("payment type variant for %q is empty", canonical)
		}
		table[key] = canonical
	}

	return &PaymentTypes{variants: table}, nil
}

// With returns a new table extended with additional variants.
func (p *PaymentTypes) With(variants map[string]string) (*PaymentTypes, error) {
	merged := make(map[string]string, len(p.variants)+len(variants))
	for k, v := range p.variants {
		merged[k] = v
	}
	for k, v := range variants {
		merged[k] = v
	}
	return NewPaymentTypes(merged)
}

// Canonicalize resolves a token to its canonical form. It is idempotent.
//
// RETURNS:
//   - The canonical token.
//   - A *FieldError wrapping ErrInvalidPaymentType if the token is unknown.
func (p *PaymentTypes) Canonicalize(token string) (string, error) {
	if canonical, ok := p.variants[FoldToken(token)]; ok {
		return canonical, nil
	}
	return "", &FieldError{
		Field:   "payment_type",
		Value:   token,
		Message: "unknown payment type, valid types: " + strings.Join(p.Variants(), ", "),
		Kind:    ErrInvalidPaymentType,
	}
}

// Variants returns the folded spellings the table accepts, sorted.
func (p *PaymentTypes) Variants() []string {
	out := make([]string, 0, len(p.variants))
	for k := range p.variants {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FoldToken trims, lower-cases and strips diacritics: "  CRÉDITO " -> "credito".
func FoldToken(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return folded
}
