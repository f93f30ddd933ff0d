package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

type (
	// MonthlySummary is the aggregate for one calendar month. It is derived
	// on every call and never persisted or cached.
	MonthlySummary struct {
		Year             int             `json:"year"`
		Month            int             `json:"month"`
		TotalIncome      decimal.Decimal `json:"totalIncome"`
		TotalExpense     decimal.Decimal `json:"totalExpense"`
		TotalVAT         decimal.Decimal `json:"totalVat"`
		TotalVATIncome   decimal.Decimal `json:"totalVatIncome"`
		TotalVATExpense  decimal.Decimal `json:"totalVatExpense"`
		NetResult        decimal.Decimal `json:"netResult"`
		TransactionCount int             `json:"transactionCount"`
	}

	// QuarterSummary holds the VAT position for one calendar quarter.
	// Balance is the VAT payable: VAT charged on income minus VAT paid
	// on expenses.
	QuarterSummary struct {
		Year             int             `json:"year"`
		Quarter          int             `json:"quarter"`
		VATIncome        decimal.Decimal `json:"vatIncome"`
		VATExpense       decimal.Decimal `json:"vatExpense"`
		Balance          decimal.Decimal `json:"balance"`
		TransactionCount int             `json:"transactionCount"`
	}

	// YearMonth identifies a month that has at least one transaction.
	YearMonth struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}
)

// Summarize computes the monthly summary over the given transactions for
// year and 1-based month. Income and expense totals use the inclusive
// amount, VAT totals the VAT amount; missing amounts count as zero.
func Summarize(transactions []Transaction, year, month int) MonthlySummary {
	s := MonthlySummary{Year: year, Month: month}
	for _, t := range transactions {
		if t.Date.Year() != year || t.Date.Month() != month {
			continue
		}
		s.TransactionCount++
		inclusive := orZero(t.AmountInclusive)
		vat := orZero(t.VATAmount)
		s.TotalVAT = s.TotalVAT.Add(vat)
		switch t.Type {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(inclusive)
			s.TotalVATIncome = s.TotalVATIncome.Add(vat)
		case Expense:
			s.TotalExpense = s.TotalExpense.Add(inclusive)
			s.TotalVATExpense = s.TotalVATExpense.Add(vat)
		}
	}
	s.NetResult = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

// QuarterVAT computes the VAT balance for year and quarter (1-4), where a
// month belongs to quarter ceil(month/3). Same zero-default policy as
// Summarize.
func QuarterVAT(transactions []Transaction, year, quarter int) QuarterSummary {
	s := QuarterSummary{Year: year, Quarter: quarter}
	for _, t := range transactions {
		if t.Date.Year() != year || t.Date.Quarter() != quarter {
			continue
		}
		s.TransactionCount++
		vat := orZero(t.VATAmount)
		switch t.Type {
		case Income:
			s.VATIncome = s.VATIncome.Add(vat)
		case Expense:
			s.VATExpense = s.VATExpense.Add(vat)
		}
	}
	s.Balance = s.VATIncome.Sub(s.VATExpense)
	return s
}

// AvailableMonths returns the distinct months present in the transaction
// set, newest first (year descending, then month descending).
func AvailableMonths(transactions []Transaction) []YearMonth {
	seen := make(map[YearMonth]struct{})
	for _, t := range transactions {
		seen[YearMonth{Year: t.Date.Year(), Month: t.Date.Month()}] = struct{}{}
	}
	months := make([]YearMonth, 0, len(seen))
	for ym := range seen {
		months = append(months, ym)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year > months[j].Year
		}
		return months[i].Month > months[j].Month
	})
	return months
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
