// Package export builds the monthly export artifacts: a plain-text summary,
// copies of the attached invoices and, when configured, ledger rows appended
// to a spreadsheet. The xlsx rendering of the ledger and VAT views lives in
// the spreadsheet subsystem; this package fixes the artifact names and feeds
// it aggregated data.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"btwbuddy/internal/core"
)

// Exporter writes one month's artifacts to an export directory.
type Exporter struct {
	dir    string
	ledger LedgerWriter // optional
}

func NewExporter(dir string, ledger LedgerWriter) *Exporter {
	return &Exporter{dir: dir, ledger: ledger}
}

// WriteMonth writes the text summary and invoice copies for the given month
// and appends ledger rows when a writer is configured. Returns the paths of
// the files written.
func (e *Exporter) WriteMonth(ctx context.Context, transactions []core.Transaction, year, month int) ([]string, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	summaryPath := filepath.Join(e.dir, FileName(KindSummary, year, month, "txt"))
	if err := os.WriteFile(summaryPath, []byte(SummaryText(transactions, year, month)), 0o644); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}
	files := []string{summaryPath}

	for _, t := range transactions {
		if t.Date.Year() != year || t.Date.Month() != month || t.InvoiceFile == nil {
			continue
		}
		dest := filepath.Join(e.dir, t.InvoiceFile.OriginalName)
		if err := copyFile(t.InvoiceFile.StoredPath, dest); err != nil {
			// A missing invoice file must not abort the export.
			slog.WarnContext(ctx, "Skipping invoice copy",
				"file", t.InvoiceFile.OriginalName, "error", err)
			continue
		}
		files = append(files, dest)
	}

	if e.ledger != nil {
		summary := core.Summarize(transactions, year, month)
		if err := e.ledger.AppendMonth(ctx, summary, transactions); err != nil {
			return files, fmt.Errorf("append ledger rows: %w", err)
		}
	}

	slog.InfoContext(ctx, "Month exported", "year", year, "month", month, "files", len(files))
	return files, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
