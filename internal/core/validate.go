package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Field keys used in validation error maps. They match the JSON field names
// the UI binds error messages to.
const (
	FieldDate            = "date"
	FieldDescription     = "description"
	FieldAmountInclusive = "amountInclusive"
	FieldAmountExclusive = "amountExclusive"
	FieldVATPercentage   = "vatPercentage"
)

// ValidateTransaction checks a candidate transaction before derivation and
// persistence. All violations are collected; an empty map means valid.
//
// A transaction missing both amounts is rejected, with both amount fields
// flagged so the form can highlight either input.
func ValidateTransaction(t Transaction) map[string]string {
	errs := make(map[string]string)

	if t.Date.IsZero() {
		errs[FieldDate] = "Datum is verplicht"
	}
	if strings.TrimSpace(t.Description) == "" {
		errs[FieldDescription] = "Omschrijving is verplicht"
	}
	validateAmounts(t.AmountInclusive, t.AmountExclusive, errs)
	validateVATPercentage(t.VATPercentage, errs)

	return errs
}

// ValidateTemplate applies the transaction rules minus the date to an
// autofill or fixed item template.
func ValidateTemplate(t Template) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(t.Description) == "" {
		errs[FieldDescription] = "Omschrijving is verplicht"
	}
	validateAmounts(t.AmountInclusive, t.AmountExclusive, errs)
	validateVATPercentage(t.VATPercentage, errs)

	return errs
}

func validateAmounts(inclusive, exclusive *decimal.Decimal, errs map[string]string) {
	hasInclusive := inclusive != nil && inclusive.IsPositive()
	hasExclusive := exclusive != nil && exclusive.IsPositive()
	if !hasInclusive && !hasExclusive {
		errs[FieldAmountInclusive] = "Bedrag inclusief of exclusief BTW is verplicht"
		errs[FieldAmountExclusive] = "Bedrag inclusief of exclusief BTW is verplicht"
	}
}

func validateVATPercentage(pct decimal.Decimal, errs map[string]string) {
	if pct.IsNegative() || pct.GreaterThan(oneHundred) {
		errs[FieldVATPercentage] = "BTW percentage moet tussen 0 en 100 liggen"
	}
}
