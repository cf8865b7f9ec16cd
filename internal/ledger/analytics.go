package ledger

import (
	"fmt"
	"slices"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// Balance sums every amount.
func Balance(txs []model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total
}

// TotalIncome sums the positive amounts.
func TotalIncome(txs []model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Amount.IsPositive() {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// TotalExpenses sums the negative amounts. The result is zero or negative.
func TotalExpenses(txs []model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Amount.IsNegative() {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// Pending returns the transactions still waiting for a real amount.
func Pending(txs []model.Transaction) []model.Transaction {
	var out []model.Transaction
	for _, tx := range txs {
		if tx.IsPending {
			out = append(out, tx)
		}
	}
	return out
}

// SortByDate orders txs newest first. Rows on the same day keep their order.
func SortByDate(txs []model.Transaction) {
	slices.SortStableFunc(txs, func(a, b model.Transaction) int {
		switch {
		case a.Date.After(b.Date):
			return -1
		case a.Date.Before(b.Date):
			return 1
		default:
			return 0
		}
	})
}

// FormatCurrency renders an amount as "+$12.50" or "-$3.00".
func FormatCurrency(amount decimal.Decimal) string {
	sign := "+"
	if amount.IsNegative() {
		sign = "-"
	}
	return fmt.Sprintf("%s$%s", sign, amount.Abs().StringFixed(2))
}

// Summary aggregates the ledger up to a date.
type Summary struct {
	EndDate  civil.Date      `json:"endDate"`
	Balance  decimal.Decimal `json:"balance"`
	Count    int             `json:"count"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Pending  int             `json:"pending"`
}

// Summarize aggregates transactions dated on or before endDate. Unpaid rows
// are left out unless includeUnpaid is set.
func Summarize(txs []model.Transaction, endDate civil.Date, includeUnpaid bool) Summary {
	var selected []model.Transaction
	for _, tx := range txs {
		if tx.Date.After(endDate) {
			continue
		}
		if !tx.Paid && !includeUnpaid {
			continue
		}
		selected = append(selected, tx)
	}
	return Summary{
		EndDate:  endDate,
		Balance:  Balance(selected),
		Count:    len(selected),
		Income:   TotalIncome(selected),
		Expenses: TotalExpenses(selected),
		Pending:  len(Pending(selected)),
	}
}
