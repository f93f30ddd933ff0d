package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	AutofillTemplate TemplateKind = "autofill"
	FixedTemplate    TemplateKind = "fixed"
)

type (
	TransactionType string

	TemplateKind string

	Date struct {
		time.Time
	}

	// InvoiceFile references an attached invoice: the name the user picked
	// and the path the file was copied to.
	InvoiceFile struct {
		OriginalName string `json:"originalName"`
		StoredPath   string `json:"storedPath"`
	}

	// Transaction is a single income or expense booking. Amounts are optional
	// on input; DeriveAmounts fills the missing side plus the VAT amount
	// before persistence.
	Transaction struct {
		ID              string           `json:"id"`
		Date            Date             `json:"date"`
		Description     string           `json:"description"`
		Type            TransactionType  `json:"type"`
		AmountInclusive *decimal.Decimal `json:"amountInclusive,omitempty"`
		AmountExclusive *decimal.Decimal `json:"amountExclusive,omitempty"`
		VATAmount       *decimal.Decimal `json:"vatAmount,omitempty"`
		VATPercentage   decimal.Decimal  `json:"vatPercentage"`
		InvoiceFile     *InvoiceFile     `json:"invoiceFile,omitempty"`
		CreatedAt       time.Time        `json:"createdAt"`
	}

	// Template pre-populates a new transaction. Autofill templates are picked
	// by description while typing; fixed templates are recurring items the
	// user inserts each month. Same monetary shape as Transaction minus date.
	Template struct {
		ID              string           `json:"id"`
		Kind            TemplateKind     `json:"kind"`
		Description     string           `json:"description"`
		Type            TransactionType  `json:"type"`
		AmountInclusive *decimal.Decimal `json:"amountInclusive,omitempty"`
		AmountExclusive *decimal.Decimal `json:"amountExclusive,omitempty"`
		VATAmount       *decimal.Decimal `json:"vatAmount,omitempty"`
		VATPercentage   decimal.Decimal  `json:"vatPercentage"`
		CreatedAt       time.Time        `json:"createdAt"`
	}
)

var (
	ErrNegativeAmount     = errors.New("amount must be non-negative")
	ErrVATPercentageRange = errors.New("vat percentage must be between 0 and 100")
	ErrNoAmount           = errors.New("transaction has neither inclusive nor exclusive amount")
)

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the 1-based month.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Quarter returns the 1-based calendar quarter.
func (d Date) Quarter() int {
	return (d.Month() + 2) / 3
}

const dateLayout = "2006-01-02"

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Time.Format(dateLayout)
}

// MarshalJSON renders the date as "YYYY-MM-DD". Transactions carry no
// time-of-day component.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NewTransaction builds a transaction from a template, keeping the template's
// monetary fields and stamping the given date.
func (t Template) NewTransaction(date Date) Transaction {
	return Transaction{
		Date:            date,
		Description:     t.Description,
		Type:            t.Type,
		AmountInclusive: copyDecimal(t.AmountInclusive),
		AmountExclusive: copyDecimal(t.AmountExclusive),
		VATAmount:       copyDecimal(t.VATAmount),
		VATPercentage:   t.VATPercentage,
	}
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
