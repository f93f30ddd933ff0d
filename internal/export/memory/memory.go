// Package memory is an in-memory ledger writer used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"btwbuddy/internal/core"
	"btwbuddy/internal/export"
)

type AppendedMonth struct {
	Summary      core.MonthlySummary
	Transactions []core.Transaction
}

type Store struct {
	mu       sync.Mutex
	Appended []AppendedMonth
}

var _ export.LedgerWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) AppendMonth(_ context.Context, summary core.MonthlySummary, transactions []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Appended = append(s.Appended, AppendedMonth{Summary: summary, Transactions: transactions})
	return nil
}
