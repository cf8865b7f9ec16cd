package ledger

import (
	"slices"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// Draft is a transaction as entered by the user, before it is stored. Amount
// and Paid are pointers so a missing value can be told apart from zero or
// false.
type Draft struct {
	Date      civil.Date            `json:"date"`
	Type      model.TransactionType `json:"type"`
	Amount    *decimal.Decimal      `json:"amount"`
	Company   string                `json:"company"`
	Tags      []string              `json:"tags"`
	Paid      *bool                 `json:"paid"`
	IsPending bool                  `json:"isPending"`

	// Repeat marks the draft as part of a date-range series. Members of a
	// series may have a zero amount when the real value is not yet known.
	Repeat          bool            `json:"repeat"`
	RepeatFrequency RepeatFrequency `json:"repeatFrequency,omitempty"`
	RepeatUntil     *civil.Date     `json:"repeatUntil,omitempty"`
}

// NormalizeAmount forces the amount's sign to match the type: positive for
// income, negative for expenses and transfers.
func NormalizeAmount(d Draft) Draft {
	if d.Amount != nil {
		a := d.Type.Signed(*d.Amount)
		d.Amount = &a
	}
	return d
}

// Validate checks a draft and returns every violation found.
func Validate(d Draft) model.ValidationErrors {
	var errs model.ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, model.ValidationError{Field: field, Message: msg})
	}

	switch {
	case d.Date == (civil.Date{}):
		add("date", "Date is required")
	case !d.Date.IsValid():
		add("date", "Date is not a valid calendar date")
	}

	switch {
	case d.Type == "":
		add("type", "Transaction type is required")
	case !d.Type.Valid():
		add("type", "Transaction type must be one of: Income, Expense, Transfer")
	}

	switch {
	case d.Amount == nil:
		add("amount", "Amount is required")
	case d.Amount.IsZero() && !d.Repeat:
		add("amount", "Amount must be a non-zero number")
	}

	if strings.TrimSpace(d.Company) == "" {
		add("company", "Company is required")
	}

	if d.Paid == nil {
		add("paid", "Paid status is required")
	}

	if d.Amount != nil && !d.Amount.IsZero() {
		if d.Type == model.TypeIncome && d.Amount.IsNegative() {
			add("amount", "Income amount must be positive")
		}
		if (d.Type == model.TypeExpense || d.Type == model.TypeTransfer) && d.Amount.IsPositive() {
			add("amount", "Expense and Transfer amounts must be negative")
		}
	}

	return errs
}

// Transaction converts a validated draft into an unsaved transaction.
func (d Draft) Transaction() model.Transaction {
	tx := model.Transaction{
		Date:      d.Date,
		Type:      d.Type,
		Company:   strings.TrimSpace(d.Company),
		Tags:      slices.Clone(d.Tags),
		IsPending: d.IsPending,
	}
	if tx.Tags == nil {
		tx.Tags = []string{}
	}
	if d.Amount != nil {
		tx.Amount = *d.Amount
	}
	if d.Paid != nil {
		tx.Paid = *d.Paid
	}
	if d.Repeat && tx.Amount.IsZero() {
		tx.IsPending = true
	}
	return tx
}

// DraftOf returns the draft that would recreate tx, used to re-validate
// edited transactions. Pending generated rows keep their zero amount
// allowance, like members of a repeat series.
func DraftOf(tx model.Transaction) Draft {
	amount := tx.Amount
	paid := tx.Paid
	return Draft{
		Date:      tx.Date,
		Type:      tx.Type,
		Amount:    &amount,
		Company:   tx.Company,
		Tags:      slices.Clone(tx.Tags),
		Paid:      &paid,
		IsPending: tx.IsPending,
		Repeat:    tx.HasTag(model.TagRepeated) || (tx.IsAutoGenerated && tx.IsPending),
	}
}
