package model

import (
	"slices"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// TransactionType classifies the direction of money movement.
type TransactionType string

const (
	TypeIncome   TransactionType = "Income"
	TypeExpense  TransactionType = "Expense"
	TypeTransfer TransactionType = "Transfer"
)

// TransactionTypes lists the accepted types in display order.
var TransactionTypes = []TransactionType{TypeIncome, TypeExpense, TypeTransfer}

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return slices.Contains(TransactionTypes, t)
}

// Signed returns |amount| with the sign implied by t: positive for income,
// negative for expenses and transfers. Unknown types leave amount untouched.
func (t TransactionType) Signed(amount decimal.Decimal) decimal.Decimal {
	switch t {
	case TypeIncome:
		return amount.Abs()
	case TypeExpense, TypeTransfer:
		return amount.Abs().Neg()
	default:
		return amount
	}
}

// TagRepeated marks transactions created by a date-range repeat.
const TagRepeated = "Repeated"

// Transaction is a single ledger row.
type Transaction struct {
	ID              string          `json:"id"`
	Date            civil.Date      `json:"date"`
	Type            TransactionType `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Company         string          `json:"company"`
	Tags            []string        `json:"tags"`
	Paid            bool            `json:"paid"`
	TemplateID      string          `json:"templateId,omitempty"`
	IsAutoGenerated bool            `json:"isAutoGenerated"`
	IsPending       bool            `json:"isPending"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// HasTag reports whether the transaction carries tag.
func (t Transaction) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// Clone returns a copy that shares no slices with t.
func (t Transaction) Clone() Transaction {
	t.Tags = slices.Clone(t.Tags)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t
}
