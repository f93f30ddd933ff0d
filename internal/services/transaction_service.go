package services

import (
	"context"
	"fmt"

	"btwbuddy/internal/core"
	"btwbuddy/internal/storage"
)

// ValidationError carries the field-level messages of a rejected
// transaction or template. It never leaves the form-submission boundary
// as anything but a 422 with its field map.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

// TransactionService orchestrates validation, amount derivation and
// persistence of transactions and templates.
type TransactionService struct {
	storage *storage.SQLiteRepository
}

func NewTransactionService(storage *storage.SQLiteRepository) *TransactionService {
	return &TransactionService{storage: storage}
}

// Create validates the candidate, derives the missing amounts and stores
// the result.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if errs := core.ValidateTransaction(t); len(errs) > 0 {
		return core.Transaction{}, &ValidationError{Fields: errs}
	}
	derived, err := core.DeriveAmounts(t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("derive amounts: %w", err)
	}
	created, err := s.storage.CreateTransaction(ctx, derived)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	return created, nil
}

// Update replaces the stored transaction wholesale after validating and
// re-deriving its amounts.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if errs := core.ValidateTransaction(t); len(errs) > 0 {
		return core.Transaction{}, &ValidationError{Fields: errs}
	}
	derived, err := core.DeriveAmounts(t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("derive amounts: %w", err)
	}
	if err := s.storage.ReplaceTransaction(ctx, derived); err != nil {
		return core.Transaction{}, fmt.Errorf("replace transaction: %w", err)
	}
	return derived, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	return s.storage.DeleteTransaction(ctx, id)
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx)
}

// MonthlySummary recomputes the summary for a month from the full
// transaction set.
func (s *TransactionService) MonthlySummary(ctx context.Context, year, month int) (core.MonthlySummary, error) {
	transactions, err := s.storage.ListTransactions(ctx)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("list transactions: %w", err)
	}
	return core.Summarize(transactions, year, month), nil
}

// QuarterSummaries returns the VAT position of all four quarters of a year.
func (s *TransactionService) QuarterSummaries(ctx context.Context, year int) ([]core.QuarterSummary, error) {
	transactions, err := s.storage.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	summaries := make([]core.QuarterSummary, 0, 4)
	for q := 1; q <= 4; q++ {
		summaries = append(summaries, core.QuarterVAT(transactions, year, q))
	}
	return summaries, nil
}

// Months lists the distinct months that have transactions, newest first.
func (s *TransactionService) Months(ctx context.Context) ([]core.YearMonth, error) {
	transactions, err := s.storage.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return core.AvailableMonths(transactions), nil
}

// CreateTemplate validates and stores an autofill or fixed item template.
func (s *TransactionService) CreateTemplate(ctx context.Context, t core.Template) (core.Template, error) {
	if errs := core.ValidateTemplate(t); len(errs) > 0 {
		return core.Template{}, &ValidationError{Fields: errs}
	}
	created, err := s.storage.CreateTemplate(ctx, t)
	if err != nil {
		return core.Template{}, fmt.Errorf("save template: %w", err)
	}
	return created, nil
}

func (s *TransactionService) ListTemplates(ctx context.Context, kind core.TemplateKind) ([]core.Template, error) {
	return s.storage.ListTemplates(ctx, kind)
}

func (s *TransactionService) UpdateTemplate(ctx context.Context, t core.Template) (core.Template, error) {
	if errs := core.ValidateTemplate(t); len(errs) > 0 {
		return core.Template{}, &ValidationError{Fields: errs}
	}
	if err := s.storage.ReplaceTemplate(ctx, t); err != nil {
		return core.Template{}, fmt.Errorf("replace template: %w", err)
	}
	return t, nil
}

func (s *TransactionService) DeleteTemplate(ctx context.Context, id string) error {
	return s.storage.DeleteTemplate(ctx, id)
}

// Close closes the underlying storage.
func (s *TransactionService) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
