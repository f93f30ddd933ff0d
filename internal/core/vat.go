// Package core provides the VAT derivation, validation and aggregation
// engine for transactions.
//
// All monetary math is done on decimal values and rounded to 2 decimal
// places half-away-from-zero at the final step only, never on
// intermediates. Derived amounts therefore reconcile to within one cent.
package core

import (
	"github.com/shopspring/decimal"
)

var (
	oneHundred = decimal.NewFromInt(100)
)

// FromInclusive splits a VAT-inclusive amount into its exclusive amount and
// VAT amount for the given percentage.
//
//	vat       = inclusive * pct / (100 + pct)
//	exclusive = inclusive - vat
//
// A zero percentage yields the inclusive amount unchanged and zero VAT.
// Both results are rounded to 2 decimal places, half away from zero.
func FromInclusive(inclusive, vatPercent decimal.Decimal) (exclusive, vat decimal.Decimal, err error) {
	if err := checkVATInput(inclusive, vatPercent); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if vatPercent.IsZero() {
		return inclusive.Round(2), decimal.Zero, nil
	}
	rawVAT := inclusive.Mul(vatPercent).Div(oneHundred.Add(vatPercent))
	rawExclusive := inclusive.Sub(rawVAT)
	return rawExclusive.Round(2), rawVAT.Round(2), nil
}

// FromExclusive computes the VAT amount and VAT-inclusive amount from an
// exclusive amount and percentage.
//
//	vat       = exclusive * pct / 100
//	inclusive = exclusive + vat
//
// Same rounding rule as FromInclusive.
func FromExclusive(exclusive, vatPercent decimal.Decimal) (inclusive, vat decimal.Decimal, err error) {
	if err := checkVATInput(exclusive, vatPercent); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if vatPercent.IsZero() {
		return exclusive.Round(2), decimal.Zero, nil
	}
	rawVAT := exclusive.Mul(vatPercent).Div(oneHundred)
	rawInclusive := exclusive.Add(rawVAT)
	return rawInclusive.Round(2), rawVAT.Round(2), nil
}

// DeriveAmounts returns a copy of the transaction with the missing amount
// and the VAT amount filled in. The inclusive amount wins when both sides
// are present. Returns ErrNoAmount when neither side is set.
func DeriveAmounts(t Transaction) (Transaction, error) {
	switch {
	case t.AmountInclusive != nil:
		exclusive, vat, err := FromInclusive(*t.AmountInclusive, t.VATPercentage)
		if err != nil {
			return Transaction{}, err
		}
		rounded := t.AmountInclusive.Round(2)
		t.AmountInclusive = &rounded
		t.AmountExclusive = &exclusive
		t.VATAmount = &vat
	case t.AmountExclusive != nil:
		inclusive, vat, err := FromExclusive(*t.AmountExclusive, t.VATPercentage)
		if err != nil {
			return Transaction{}, err
		}
		rounded := t.AmountExclusive.Round(2)
		t.AmountExclusive = &rounded
		t.AmountInclusive = &inclusive
		t.VATAmount = &vat
	default:
		return Transaction{}, ErrNoAmount
	}
	return t, nil
}

func checkVATInput(amount, vatPercent decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	if vatPercent.IsNegative() || vatPercent.GreaterThan(oneHundred) {
		return ErrVATPercentageRange
	}
	return nil
}
