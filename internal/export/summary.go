package export

import (
	"fmt"
	"strings"

	"btwbuddy/internal/core"
)

var monthNames = []string{
	"januari", "februari", "maart", "april", "mei", "juni",
	"juli", "augustus", "september", "oktober", "november", "december",
}

// SummaryText renders the plain-text summary for one exported month.
func SummaryText(transactions []core.Transaction, year, month int) string {
	s := core.Summarize(transactions, year, month)
	vatToPay := s.TotalVATIncome.Sub(s.TotalVATExpense)

	var incomeCount, expenseCount int
	var invoices []string
	seen := make(map[string]struct{})
	for _, t := range transactions {
		if t.Date.Year() != year || t.Date.Month() != month {
			continue
		}
		switch t.Type {
		case core.Income:
			incomeCount++
		case core.Expense:
			expenseCount++
		}
		if t.InvoiceFile != nil {
			if _, ok := seen[t.InvoiceFile.OriginalName]; !ok {
				seen[t.InvoiceFile.OriginalName] = struct{}{}
				invoices = append(invoices, t.InvoiceFile.OriginalName)
			}
		}
	}

	var b strings.Builder
	line := strings.Repeat("=", 60)
	sep := strings.Repeat("-", 60)

	fmt.Fprintf(&b, "%s\nEXPORT SAMENVATTING %s %d\n%s\n\n", line, monthNames[month-1], year, line)

	fmt.Fprintf(&b, "ALGEMENE GEGEVENS\n%s\n", sep)
	fmt.Fprintf(&b, "Totaal aantal transacties: %d\n", s.TransactionCount)
	fmt.Fprintf(&b, "Aantal inkomsten:          %d\n", incomeCount)
	fmt.Fprintf(&b, "Aantal uitgaven:           %d\n", expenseCount)
	fmt.Fprintf(&b, "Aantal facturen:           %d\n\n", len(invoices))

	fmt.Fprintf(&b, "FINANCIELE SAMENVATTING\n%s\n", sep)
	fmt.Fprintf(&b, "Totaal inkomsten: %s\n", euro(s.TotalIncome.StringFixed(2)))
	fmt.Fprintf(&b, "Totaal uitgaven:  %s\n", euro(s.TotalExpense.StringFixed(2)))
	fmt.Fprintf(&b, "Resultaat:        %s\n\n", euro(s.NetResult.StringFixed(2)))

	fmt.Fprintf(&b, "BTW SAMENVATTING\n%s\n", sep)
	fmt.Fprintf(&b, "BTW op inkomsten: %s\n", euro(s.TotalVATIncome.StringFixed(2)))
	fmt.Fprintf(&b, "BTW op uitgaven:  %s\n", euro(s.TotalVATExpense.StringFixed(2)))
	fmt.Fprintf(&b, "BTW te betalen:   %s\n\n", euro(vatToPay.StringFixed(2)))

	fmt.Fprintf(&b, "FACTUREN (%d)\n%s\n", len(invoices), sep)
	if len(invoices) == 0 {
		b.WriteString("Geen facturen geupload\n")
	} else {
		for i, name := range invoices {
			fmt.Fprintf(&b, "%d. %s\n", i+1, name)
		}
	}

	return b.String()
}

func euro(fixed string) string {
	return "€" + fixed
}
