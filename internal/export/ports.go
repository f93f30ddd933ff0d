package export

import (
	"context"

	"btwbuddy/internal/core"
)

// LedgerWriter receives the rows of an exported month. Implemented by the
// Google Sheets adapter and an in-memory variant for tests.
type LedgerWriter interface {
	AppendMonth(ctx context.Context, summary core.MonthlySummary, transactions []core.Transaction) error
}
