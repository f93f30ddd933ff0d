package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"btwbuddy/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustDec(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return &d
}

func TestTransactionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	in := core.Transaction{
		Date:            core.NewDate(2024, 3, 15),
		Description:     "Factuur webdesign",
		Type:            core.Income,
		AmountInclusive: mustDec(t, "121"),
		AmountExclusive: mustDec(t, "100"),
		VATAmount:       mustDec(t, "21"),
		VATPercentage:   decimal.NewFromInt(21),
		InvoiceFile:     &core.InvoiceFile{OriginalName: "factuur.pdf", StoredPath: "/data/uploads/factuur.pdf"},
	}

	created, err := repo.CreateTransaction(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatal("create must assign id and createdAt")
	}

	got, err := repo.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != in.Description || got.Type != in.Type {
		t.Errorf("got %+v", got)
	}
	if got.Date.Year() != 2024 || got.Date.Month() != 3 || got.Date.Day() != 15 {
		t.Errorf("date = %v", got.Date)
	}
	if !got.AmountInclusive.Equal(decimal.NewFromInt(121)) || !got.VATAmount.Equal(decimal.NewFromInt(21)) {
		t.Errorf("amounts = %s / %s", got.AmountInclusive, got.VATAmount)
	}
	if got.InvoiceFile == nil || got.InvoiceFile.OriginalName != "factuur.pdf" {
		t.Errorf("invoice = %+v", got.InvoiceFile)
	}
}

func TestTransactionOptionalFieldsStayNil(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateTransaction(ctx, core.Transaction{
		Date:            core.NewDate(2024, 1, 1),
		Description:     "Cash uitgave",
		Type:            core.Expense,
		AmountInclusive: mustDec(t, "10"),
		VATPercentage:   decimal.Zero,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AmountExclusive != nil || got.VATAmount != nil || got.InvoiceFile != nil {
		t.Errorf("optional fields not nil: %+v", got)
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	dates := []core.Date{
		core.NewDate(2024, 1, 5),
		core.NewDate(2024, 3, 1),
		core.NewDate(2023, 12, 31),
	}
	for _, d := range dates {
		if _, err := repo.CreateTransaction(ctx, core.Transaction{
			Date: d, Description: "t", Type: core.Income,
			AmountInclusive: mustDec(t, "1"), VATPercentage: decimal.Zero,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	list, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	if list[0].Date.Month() != 3 || list[1].Date.Month() != 1 || list[2].Date.Year() != 2023 {
		t.Errorf("order wrong: %v %v %v", list[0].Date, list[1].Date, list[2].Date)
	}
}

func TestReplaceTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2024, 2, 1), Description: "voor", Type: core.Expense,
		AmountInclusive: mustDec(t, "10"), VATPercentage: decimal.Zero,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Description = "na"
	created.AmountInclusive = mustDec(t, "20.50")
	if err := repo.ReplaceTransaction(ctx, created); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := repo.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "na" || !got.AmountInclusive.Equal(*mustDec(t, "20.50")) {
		t.Errorf("got %+v", got)
	}

	if err := repo.ReplaceTransaction(ctx, core.Transaction{ID: "missing", Date: core.NewDate(2024, 1, 1)}); !errors.Is(err, ErrNotFound) {
		t.Errorf("replace missing: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateTransaction(ctx, core.Transaction{
		Date: core.NewDate(2024, 2, 1), Description: "weg", Type: core.Expense,
		AmountInclusive: mustDec(t, "10"), VATPercentage: decimal.Zero,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.DeleteTransaction(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: err = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteTransaction(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: err = %v, want ErrNotFound", err)
	}
}

func TestTemplateCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateTemplate(ctx, core.Template{
		Kind:            core.AutofillTemplate,
		Description:     "Hosting",
		Type:            core.Expense,
		AmountExclusive: mustDec(t, "10"),
		VATPercentage:   decimal.NewFromInt(21),
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	autofill, err := repo.ListTemplates(ctx, core.AutofillTemplate)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(autofill) != 1 || autofill[0].Description != "Hosting" {
		t.Fatalf("autofill = %+v", autofill)
	}

	fixed, err := repo.ListTemplates(ctx, core.FixedTemplate)
	if err != nil {
		t.Fatalf("list fixed: %v", err)
	}
	if len(fixed) != 0 {
		t.Errorf("fixed = %+v, want empty", fixed)
	}

	created.Description = "Hosting jaarlijks"
	if err := repo.ReplaceTemplate(ctx, created); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if err := repo.DeleteTemplate(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteTemplate(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: err = %v, want ErrNotFound", err)
	}
}
