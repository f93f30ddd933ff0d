package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"btwbuddy/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

const dateLayout = "2006-01-02"

// SQLiteRepository owns the whole transaction collection. Edits are full
// replacements, never partial updates.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction stores a new transaction, assigning its ID and creation
// timestamp. The caller is expected to have validated and derived amounts.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC()

	var invoiceName, invoicePath sql.NullString
	if t.InvoiceFile != nil {
		invoiceName = sql.NullString{String: t.InvoiceFile.OriginalName, Valid: true}
		invoicePath = sql.NullString{String: t.InvoiceFile.StoredPath, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, date, description, type, amount_inclusive, amount_exclusive,
			 vat_amount, vat_percentage, invoice_original_name, invoice_stored_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Date.Format(dateLayout), t.Description, string(t.Type),
		decimalToNull(t.AmountInclusive), decimalToNull(t.AmountExclusive),
		decimalToNull(t.VATAmount), t.VATPercentage.String(),
		invoiceName, invoicePath, t.CreatedAt,
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"type", string(t.Type),
		"date", t.Date.Format(dateLayout))
	return t, nil
}

// GetTransaction loads a single transaction by id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectTransactions+` WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns the whole collection, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectTransactions+` ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// ReplaceTransaction overwrites the stored transaction with the same id.
func (r *SQLiteRepository) ReplaceTransaction(ctx context.Context, t core.Transaction) error {
	var invoiceName, invoicePath sql.NullString
	if t.InvoiceFile != nil {
		invoiceName = sql.NullString{String: t.InvoiceFile.OriginalName, Valid: true}
		invoicePath = sql.NullString{String: t.InvoiceFile.StoredPath, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET
			date = ?, description = ?, type = ?,
			amount_inclusive = ?, amount_exclusive = ?, vat_amount = ?, vat_percentage = ?,
			invoice_original_name = ?, invoice_stored_path = ?
		WHERE id = ?`,
		t.Date.Format(dateLayout), t.Description, string(t.Type),
		decimalToNull(t.AmountInclusive), decimalToNull(t.AmountExclusive),
		decimalToNull(t.VATAmount), t.VATPercentage.String(),
		invoiceName, invoicePath, t.ID,
	)
	if err != nil {
		return fmt.Errorf("replace transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTransaction removes a transaction by id.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// CreateTemplate stores a new autofill or fixed item template.
func (r *SQLiteRepository) CreateTemplate(ctx context.Context, t core.Template) (core.Template, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO templates
			(id, kind, description, type, amount_inclusive, amount_exclusive,
			 vat_amount, vat_percentage, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Kind), t.Description, string(t.Type),
		decimalToNull(t.AmountInclusive), decimalToNull(t.AmountExclusive),
		decimalToNull(t.VATAmount), t.VATPercentage.String(), t.CreatedAt,
	)
	if err != nil {
		return core.Template{}, fmt.Errorf("create template: %w", err)
	}
	return t, nil
}

// ListTemplates returns all templates of the given kind, oldest first.
func (r *SQLiteRepository) ListTemplates(ctx context.Context, kind core.TemplateKind) ([]core.Template, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, description, type, amount_inclusive, amount_exclusive,
		       vat_amount, vat_percentage, created_at
		FROM templates WHERE kind = ? ORDER BY created_at ASC`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []core.Template
	for rows.Next() {
		var (
			t                    core.Template
			kindStr, typeStr     string
			inclusive, exclusive sql.NullString
			vat                  sql.NullString
			pct                  string
		)
		if err := rows.Scan(&t.ID, &kindStr, &t.Description, &typeStr,
			&inclusive, &exclusive, &vat, &pct, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		t.Kind = core.TemplateKind(kindStr)
		t.Type = core.TransactionType(typeStr)
		if t.AmountInclusive, err = nullToDecimal(inclusive); err != nil {
			return nil, fmt.Errorf("parse template amount: %w", err)
		}
		if t.AmountExclusive, err = nullToDecimal(exclusive); err != nil {
			return nil, fmt.Errorf("parse template amount: %w", err)
		}
		if t.VATAmount, err = nullToDecimal(vat); err != nil {
			return nil, fmt.Errorf("parse template vat: %w", err)
		}
		if t.VATPercentage, err = decimal.NewFromString(pct); err != nil {
			return nil, fmt.Errorf("parse template vat percentage: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// ReplaceTemplate overwrites the stored template with the same id.
func (r *SQLiteRepository) ReplaceTemplate(ctx context.Context, t core.Template) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE templates SET
			description = ?, type = ?,
			amount_inclusive = ?, amount_exclusive = ?, vat_amount = ?, vat_percentage = ?
		WHERE id = ?`,
		t.Description, string(t.Type),
		decimalToNull(t.AmountInclusive), decimalToNull(t.AmountExclusive),
		decimalToNull(t.VATAmount), t.VATPercentage.String(), t.ID,
	)
	if err != nil {
		return fmt.Errorf("replace template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTemplate removes a template by id.
func (r *SQLiteRepository) DeleteTemplate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const selectTransactions = `
	SELECT id, date, description, type, amount_inclusive, amount_exclusive,
	       vat_amount, vat_percentage, invoice_original_name, invoice_stored_path, created_at
	FROM transactions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                        core.Transaction
		dateStr, typeStr, pct    string
		inclusive, exclusive     sql.NullString
		vat                      sql.NullString
		invoiceName, invoicePath sql.NullString
	)
	err := row.Scan(&t.ID, &dateStr, &t.Description, &typeStr,
		&inclusive, &exclusive, &vat, &pct,
		&invoiceName, &invoicePath, &t.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}

	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date: %w", err)
	}
	t.Date = core.Date{Time: date}
	t.Type = core.TransactionType(typeStr)

	if t.AmountInclusive, err = nullToDecimal(inclusive); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount inclusive: %w", err)
	}
	if t.AmountExclusive, err = nullToDecimal(exclusive); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount exclusive: %w", err)
	}
	if t.VATAmount, err = nullToDecimal(vat); err != nil {
		return core.Transaction{}, fmt.Errorf("parse vat amount: %w", err)
	}
	if t.VATPercentage, err = decimal.NewFromString(pct); err != nil {
		return core.Transaction{}, fmt.Errorf("parse vat percentage: %w", err)
	}

	if invoiceName.Valid && invoicePath.Valid {
		t.InvoiceFile = &core.InvoiceFile{
			OriginalName: invoiceName.String,
			StoredPath:   invoicePath.String,
		}
	}
	return t, nil
}

func decimalToNull(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullToDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
