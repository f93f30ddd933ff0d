package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"btwbuddy/internal/core"
	"btwbuddy/internal/storage"
)

func newTestService(t *testing.T) *TransactionService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	svc := NewTransactionService(repo)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return &d
}

func TestCreateDerivesAmounts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, core.Transaction{
		Date:            core.NewDate(2024, 3, 15),
		Description:     "Factuur",
		Type:            core.Income,
		AmountInclusive: decPtr(t, "121"),
		VATPercentage:   decimal.NewFromInt(21),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.AmountExclusive == nil || !created.AmountExclusive.Equal(decimal.NewFromInt(100)) {
		t.Errorf("exclusive = %v, want 100", created.AmountExclusive)
	}
	if created.VATAmount == nil || !created.VATAmount.Equal(decimal.NewFromInt(21)) {
		t.Errorf("vat = %v, want 21", created.VATAmount)
	}

	stored, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.AmountExclusive.Equal(decimal.NewFromInt(100)) {
		t.Errorf("stored exclusive = %s", stored.AmountExclusive)
	}
}

func TestCreateRejectsInvalidTransaction(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), core.Transaction{
		Date: core.NewDate(2024, 3, 15),
		Type: core.Income,
		// no description, no amounts
		VATPercentage: decimal.NewFromInt(21),
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	for _, f := range []string{core.FieldDescription, core.FieldAmountInclusive, core.FieldAmountExclusive} {
		if verr.Fields[f] == "" {
			t.Errorf("field %q not flagged: %v", f, verr.Fields)
		}
	}
}

func TestUpdateIsFullReplacement(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, core.Transaction{
		Date:            core.NewDate(2024, 3, 15),
		Description:     "Voor",
		Type:            core.Income,
		AmountInclusive: decPtr(t, "121"),
		VATPercentage:   decimal.NewFromInt(21),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Description = "Na"
	created.AmountInclusive = nil
	created.AmountExclusive = decPtr(t, "200")
	created.VATAmount = nil

	updated, err := svc.Update(ctx, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.AmountInclusive.Equal(decimal.NewFromInt(242)) {
		t.Errorf("inclusive = %s, want 242", updated.AmountInclusive)
	}

	stored, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Description != "Na" || !stored.VATAmount.Equal(decimal.NewFromInt(42)) {
		t.Errorf("stored = %+v", stored)
	}
}

func TestMonthlySummaryAndMonths(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	seed := []core.Transaction{
		{Date: core.NewDate(2024, 3, 1), Description: "in", Type: core.Income,
			AmountInclusive: decPtr(t, "1000"), VATPercentage: decimal.Zero},
		{Date: core.NewDate(2024, 3, 20), Description: "uit", Type: core.Expense,
			AmountInclusive: decPtr(t, "400"), VATPercentage: decimal.Zero},
		{Date: core.NewDate(2024, 1, 2), Description: "eerder", Type: core.Income,
			AmountInclusive: decPtr(t, "50"), VATPercentage: decimal.Zero},
	}
	for _, tr := range seed {
		if _, err := svc.Create(ctx, tr); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	summary, err := svc.MonthlySummary(ctx, 2024, 3)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TransactionCount != 2 || !summary.NetResult.Equal(decimal.NewFromInt(600)) {
		t.Errorf("summary = %+v", summary)
	}

	months, err := svc.Months(ctx)
	if err != nil {
		t.Fatalf("months: %v", err)
	}
	if len(months) != 2 || months[0] != (core.YearMonth{Year: 2024, Month: 3}) {
		t.Errorf("months = %v", months)
	}
}

func TestQuarterSummaries(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, core.Transaction{
		Date: core.NewDate(2024, 2, 1), Description: "in", Type: core.Income,
		AmountExclusive: decPtr(t, "100"), VATPercentage: decimal.NewFromInt(21),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	quarters, err := svc.QuarterSummaries(ctx, 2024)
	if err != nil {
		t.Fatalf("quarters: %v", err)
	}
	if len(quarters) != 4 {
		t.Fatalf("len = %d", len(quarters))
	}
	if !quarters[0].Balance.Equal(decimal.NewFromInt(21)) {
		t.Errorf("Q1 balance = %s, want 21", quarters[0].Balance)
	}
	if !quarters[1].Balance.IsZero() {
		t.Errorf("Q2 balance = %s, want 0", quarters[1].Balance)
	}
}

func TestTemplateLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTemplate(ctx, core.Template{
		Kind:            core.FixedTemplate,
		Description:     "Huur kantoor",
		Type:            core.Expense,
		AmountInclusive: decPtr(t, "500"),
		VATPercentage:   decimal.Zero,
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	// A template pre-populates a new transaction for a chosen date.
	tx := created.NewTransaction(core.NewDate(2024, 5, 1))
	if errs := core.ValidateTransaction(tx); len(errs) != 0 {
		t.Errorf("template-based transaction invalid: %v", errs)
	}

	_, err = svc.CreateTemplate(ctx, core.Template{Kind: core.AutofillTemplate})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	if err := svc.DeleteTemplate(ctx, created.ID); err != nil {
		t.Fatalf("delete template: %v", err)
	}
}
