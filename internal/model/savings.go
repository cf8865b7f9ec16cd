package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavingsAccount is a named balance tracked outside the ledger.
type SavingsAccount struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// AuthRecord holds the single user's PIN credentials.
type AuthRecord struct {
	PinHash          string    `json:"-"`
	SecurityQuestion string    `json:"securityQuestion"`
	AnswerCipher     []byte    `json:"-"`
	AnswerNonce      []byte    `json:"-"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Snapshot is the full dataset, used for backup and restore.
type Snapshot struct {
	Transactions       []Transaction        `json:"transactions"`
	RecurringTemplates []RecurrenceTemplate `json:"recurringTemplates"`
	TemplateExceptions []TemplateException  `json:"templateExceptions"`
	SavingsAccounts    []SavingsAccount     `json:"savingsAccounts"`
}

// Counts reports how many records of each kind were touched.
type Counts struct {
	Transactions       int `json:"transactions"`
	RecurringTemplates int `json:"recurringTemplates"`
	TemplateExceptions int `json:"templateExceptions"`
	SavingsAccounts    int `json:"savingsAccounts"`
}
