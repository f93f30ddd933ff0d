// Package google implements the ledger writer against a Google Sheets
// spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"btwbuddy/internal/core"
	"btwbuddy/internal/export"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
}

var _ export.LedgerWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Auth via GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS. The sheet
// name defaults to "Grootboek" (GOOGLE_LEDGER_SHEET_NAME).
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	ledgerSheet := strings.TrimSpace(os.Getenv("GOOGLE_LEDGER_SHEET_NAME"))
	if ledgerSheet == "" {
		ledgerSheet = "Grootboek"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		ledgerSheet:   ledgerSheet,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	if credJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); credJSON != "" {
		return gsheet.NewService(ctx, goption.WithCredentialsJSON([]byte(credJSON)))
	}

	credFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if credFile == "" {
		credFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if credFile != "" {
		return gsheet.NewService(ctx, goption.WithCredentialsFile(credFile))
	}

	// Fall back to application default credentials
	return gsheet.NewService(ctx)
}

// AppendMonth appends one row per transaction of the month, followed by a
// totals row.
func (c *Client) AppendMonth(ctx context.Context, summary core.MonthlySummary, transactions []core.Transaction) error {
	var rows [][]any
	for _, t := range transactions {
		if t.Date.Year() != summary.Year || t.Date.Month() != summary.Month {
			continue
		}
		rows = append(rows, []any{
			t.Date.Format("2006-01-02"),
			t.Description,
			string(t.Type),
			decimalCell(t.AmountExclusive),
			decimalCell(t.VATAmount),
			decimalCell(t.AmountInclusive),
			t.VATPercentage.String(),
		})
	}
	rows = append(rows, []any{
		fmt.Sprintf("%d-%02d totaal", summary.Year, summary.Month),
		"",
		"",
		"",
		summary.TotalVAT.StringFixed(2),
		summary.NetResult.StringFixed(2),
		"",
	})

	vr := &gsheet.ValueRange{Values: rows}
	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.ledgerSheet+"!A:G", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.ledgerSheet, err)
	}
	return nil
}

func decimalCell(d *decimal.Decimal) any {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}
