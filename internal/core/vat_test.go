package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestFromInclusive(t *testing.T) {
	cases := []struct {
		inclusive string
		pct       string
		exclusive string
		vat       string
	}{
		{"100", "21", "82.64", "17.36"},
		{"121", "21", "100", "21"},
		{"100", "0", "100", "0"},
		{"0", "21", "0", "0"},
		{"50", "9", "45.87", "4.13"},
		{"19.99", "21", "16.52", "3.47"},
	}
	for _, tc := range cases {
		exclusive, vat, err := FromInclusive(dec(tc.inclusive), dec(tc.pct))
		if err != nil {
			t.Fatalf("FromInclusive(%s, %s): %v", tc.inclusive, tc.pct, err)
		}
		if !exclusive.Equal(dec(tc.exclusive)) {
			t.Errorf("FromInclusive(%s, %s) exclusive = %s, want %s", tc.inclusive, tc.pct, exclusive, tc.exclusive)
		}
		if !vat.Equal(dec(tc.vat)) {
			t.Errorf("FromInclusive(%s, %s) vat = %s, want %s", tc.inclusive, tc.pct, vat, tc.vat)
		}
	}
}

func TestFromExclusive(t *testing.T) {
	cases := []struct {
		exclusive string
		pct       string
		inclusive string
		vat       string
	}{
		{"100", "21", "121", "21"},
		{"100", "9", "109", "9"},
		{"100", "0", "100", "0"},
		{"82.64", "21", "99.99", "17.35"},
		{"0", "21", "0", "0"},
	}
	for _, tc := range cases {
		inclusive, vat, err := FromExclusive(dec(tc.exclusive), dec(tc.pct))
		if err != nil {
			t.Fatalf("FromExclusive(%s, %s): %v", tc.exclusive, tc.pct, err)
		}
		if !inclusive.Equal(dec(tc.inclusive)) {
			t.Errorf("FromExclusive(%s, %s) inclusive = %s, want %s", tc.exclusive, tc.pct, inclusive, tc.inclusive)
		}
		if !vat.Equal(dec(tc.vat)) {
			t.Errorf("FromExclusive(%s, %s) vat = %s, want %s", tc.exclusive, tc.pct, vat, tc.vat)
		}
	}
}

func TestFromInclusiveReconciles(t *testing.T) {
	// exclusive + vat must reconcile with the inclusive input to within
	// one cent for any amount and percentage.
	epsilon := dec("0.01")
	amounts := []string{"0.01", "1", "19.99", "100", "1234.56", "99999.99"}
	percentages := []string{"0", "6", "9", "12.5", "21", "100"}
	for _, a := range amounts {
		for _, p := range percentages {
			exclusive, vat, err := FromInclusive(dec(a), dec(p))
			if err != nil {
				t.Fatalf("FromInclusive(%s, %s): %v", a, p, err)
			}
			diff := exclusive.Add(vat).Sub(dec(a)).Abs()
			if diff.GreaterThan(epsilon) {
				t.Errorf("FromInclusive(%s, %s): exclusive %s + vat %s off by %s", a, p, exclusive, vat, diff)
			}
		}
	}
}

func TestVATRoundTrip(t *testing.T) {
	// Deriving exclusive from inclusive and back must land within one cent
	// of the original. Exact equality is not guaranteed because both
	// directions round.
	epsilon := dec("0.01")
	amounts := []string{"0.03", "1", "100", "121", "999.95"}
	percentages := []string{"0", "9", "21", "100"}
	for _, a := range amounts {
		for _, p := range percentages {
			exclusive, _, err := FromInclusive(dec(a), dec(p))
			if err != nil {
				t.Fatalf("FromInclusive(%s, %s): %v", a, p, err)
			}
			inclusive, _, err := FromExclusive(exclusive, dec(p))
			if err != nil {
				t.Fatalf("FromExclusive(%s, %s): %v", exclusive, p, err)
			}
			diff := inclusive.Sub(dec(a)).Abs()
			if diff.GreaterThan(epsilon) {
				t.Errorf("round trip %s at %s%%: got %s (off by %s)", a, p, inclusive, diff)
			}
		}
	}
}

func TestVATInputContract(t *testing.T) {
	if _, _, err := FromInclusive(dec("-1"), dec("21")); err != ErrNegativeAmount {
		t.Errorf("negative inclusive: err = %v, want ErrNegativeAmount", err)
	}
	if _, _, err := FromExclusive(dec("-0.01"), dec("21")); err != ErrNegativeAmount {
		t.Errorf("negative exclusive: err = %v, want ErrNegativeAmount", err)
	}
	if _, _, err := FromInclusive(dec("100"), dec("-1")); err != ErrVATPercentageRange {
		t.Errorf("negative percentage: err = %v, want ErrVATPercentageRange", err)
	}
	if _, _, err := FromInclusive(dec("100"), dec("100.01")); err != ErrVATPercentageRange {
		t.Errorf("percentage over 100: err = %v, want ErrVATPercentageRange", err)
	}
}

func TestDeriveAmounts(t *testing.T) {
	t.Run("from inclusive", func(t *testing.T) {
		in := Transaction{AmountInclusive: decPtr("100"), VATPercentage: dec("21")}
		out, err := DeriveAmounts(in)
		if err != nil {
			t.Fatal(err)
		}
		if !out.AmountExclusive.Equal(dec("82.64")) || !out.VATAmount.Equal(dec("17.36")) {
			t.Errorf("got exclusive %s, vat %s", out.AmountExclusive, out.VATAmount)
		}
	})

	t.Run("from exclusive", func(t *testing.T) {
		in := Transaction{AmountExclusive: decPtr("100"), VATPercentage: dec("21")}
		out, err := DeriveAmounts(in)
		if err != nil {
			t.Fatal(err)
		}
		if !out.AmountInclusive.Equal(dec("121")) || !out.VATAmount.Equal(dec("21")) {
			t.Errorf("got inclusive %s, vat %s", out.AmountInclusive, out.VATAmount)
		}
	})

	t.Run("inclusive wins when both present", func(t *testing.T) {
		in := Transaction{
			AmountInclusive: decPtr("121"),
			AmountExclusive: decPtr("999"),
			VATPercentage:   dec("21"),
		}
		out, err := DeriveAmounts(in)
		if err != nil {
			t.Fatal(err)
		}
		if !out.AmountExclusive.Equal(dec("100")) {
			t.Errorf("exclusive = %s, want 100", out.AmountExclusive)
		}
	})

	t.Run("no amount", func(t *testing.T) {
		if _, err := DeriveAmounts(Transaction{VATPercentage: dec("21")}); err != ErrNoAmount {
			t.Errorf("err = %v, want ErrNoAmount", err)
		}
	})
}
