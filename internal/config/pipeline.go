package config

import (
	"github.com/ginjaninja78/conciliador/internal/mapper"
	"github.com/ginjaninja78/conciliador/internal/sheet"
	"github.com/ginjaninja78/conciliador/internal/validation"
)

// NormalizerOptions converts the normalizer settings, filling gaps with
// sheet.DefaultOptions.
func (c *MainConfig) NormalizerOptions() sheet.Options {
	opts := sheet.DefaultOptions()
	if c.Normalizer.HeaderFillRatio > 0 {
		opts.HeaderFillRatio = c.Normalizer.HeaderFillRatio
	}
	if c.Normalizer.MaxFillGap != nil {
		opts.MaxFillGap = *c.Normalizer.MaxFillGap
	}
	if c.Normalizer.PlaceholderMarker != "" {
		opts.PlaceholderMarker = c.Normalizer.PlaceholderMarker
	}
	return opts
}

// ResolverSynonyms returns the default keyword sets with every non-empty
// configured set swapped in.
func (c *MainConfig) ResolverSynonyms() mapper.Synonyms {
	syn := mapper.DefaultSynonyms()
	if len(c.Synonyms.Date) > 0 {
		syn.Date = c.Synonyms.Date
	}
	if len(c.Synonyms.PaymentType) > 0 {
		syn.PaymentType = c.Synonyms.PaymentType
	}
	if len(c.Synonyms.Amount) > 0 {
		syn.Amount = c.Synonyms.Amount
	}
	return syn
}

// PaymentTable returns the default payment type table extended with the
// configured variants.
func (c *MainConfig) PaymentTable() (*validation.PaymentTypes, error) {
	base := validation.DefaultPaymentTypes()
	if len(c.PaymentTypes) == 0 {
		return base, nil
	}
	return base.With(c.PaymentTypes)
}
