package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateTransaction(t *testing.T) {
	valid := Transaction{
		Date:            NewDate(2024, 3, 15),
		Description:     "Factuur webdesign",
		Type:            Income,
		AmountInclusive: decPtr("121"),
		VATPercentage:   dec("21"),
	}
	if errs := ValidateTransaction(valid); len(errs) != 0 {
		t.Fatalf("valid transaction flagged: %v", errs)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		fields []string
	}{
		{
			name:   "missing date",
			mutate: func(tr *Transaction) { tr.Date = Date{} },
			fields: []string{FieldDate},
		},
		{
			name:   "blank description",
			mutate: func(tr *Transaction) { tr.Description = "   " },
			fields: []string{FieldDescription},
		},
		{
			name: "both amounts missing",
			mutate: func(tr *Transaction) {
				tr.AmountInclusive = nil
				tr.AmountExclusive = nil
			},
			fields: []string{FieldAmountInclusive, FieldAmountExclusive},
		},
		{
			name: "zero amount counts as missing",
			mutate: func(tr *Transaction) {
				tr.AmountInclusive = decPtr("0")
				tr.AmountExclusive = nil
			},
			fields: []string{FieldAmountInclusive, FieldAmountExclusive},
		},
		{
			name:   "vat percentage negative",
			mutate: func(tr *Transaction) { tr.VATPercentage = dec("-1") },
			fields: []string{FieldVATPercentage},
		},
		{
			name:   "vat percentage over 100",
			mutate: func(tr *Transaction) { tr.VATPercentage = dec("101") },
			fields: []string{FieldVATPercentage},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := valid
			tc.mutate(&tr)
			errs := ValidateTransaction(tr)
			if len(errs) != len(tc.fields) {
				t.Fatalf("got %d errors (%v), want %d", len(errs), errs, len(tc.fields))
			}
			for _, f := range tc.fields {
				if errs[f] == "" {
					t.Errorf("field %q not flagged: %v", f, errs)
				}
			}
		})
	}
}

func TestValidateTransactionCollectsAllViolations(t *testing.T) {
	errs := ValidateTransaction(Transaction{VATPercentage: decimal.NewFromInt(200)})
	want := []string{FieldDate, FieldDescription, FieldAmountInclusive, FieldAmountExclusive, FieldVATPercentage}
	for _, f := range want {
		if errs[f] == "" {
			t.Errorf("field %q not flagged: %v", f, errs)
		}
	}
}

func TestValidateTemplate(t *testing.T) {
	tpl := Template{
		Kind:            AutofillTemplate,
		Description:     "Hosting maandelijks",
		Type:            Expense,
		AmountExclusive: decPtr("10"),
		VATPercentage:   dec("21"),
	}
	if errs := ValidateTemplate(tpl); len(errs) != 0 {
		t.Fatalf("valid template flagged: %v", errs)
	}

	tpl.Description = ""
	tpl.AmountExclusive = nil
	errs := ValidateTemplate(tpl)
	for _, f := range []string{FieldDescription, FieldAmountInclusive, FieldAmountExclusive} {
		if errs[f] == "" {
			t.Errorf("field %q not flagged: %v", f, errs)
		}
	}
	if errs[FieldDate] != "" {
		t.Error("template validation must not require a date")
	}
}
