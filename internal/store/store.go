// Package store defines the persistence contract shared by the memory and
// Postgres backends.
package store

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"

	"github.com/tally-dev/tally/internal/model"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would break a uniqueness rule.
	ErrConflict = errors.New("conflict")
)

// Store is everything the application persists. Implementations assign IDs
// and timestamps on create and return copies that callers may modify.
type Store interface {
	Transactions
	Templates
	SavingsAccounts
	Auth

	// Snapshot returns the full dataset.
	Snapshot(ctx context.Context) (model.Snapshot, error)
	// Replace deletes everything and loads s in its place. Records keep
	// their IDs.
	Replace(ctx context.Context, s model.Snapshot) (model.Counts, error)
	// Clear deletes all transactions, templates, exceptions and savings
	// accounts. The PIN is kept.
	Clear(ctx context.Context) (model.Counts, error)

	Ping(ctx context.Context) error
	Close()
}

// Transactions persists ledger rows.
//
// Generated rows are unique on (template ID, date, company) and writes that
// would break this return ErrConflict. Duplicate suppression in the
// recurring processor uses the same key.
type Transactions interface {
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	// AllTransactions is ListTransactions under the name the recurring
	// processor uses.
	AllTransactions(ctx context.Context) ([]model.Transaction, error)
	GetTransaction(ctx context.Context, id string) (model.Transaction, error)
	SaveTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error)
	CreateTransactions(ctx context.Context, txs []model.Transaction) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// Templates persists recurrence templates and their exceptions.
type Templates interface {
	ListTemplates(ctx context.Context) ([]model.RecurrenceTemplate, error)
	ActiveTemplates(ctx context.Context) ([]model.RecurrenceTemplate, error)
	GetTemplate(ctx context.Context, id string) (model.RecurrenceTemplate, error)
	CreateTemplate(ctx context.Context, t model.RecurrenceTemplate) (model.RecurrenceTemplate, error)
	UpdateTemplate(ctx context.Context, t model.RecurrenceTemplate) (model.RecurrenceTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error
	// SaveTemplateWatermark sets LastGenerated. It never moves a watermark
	// backwards.
	SaveTemplateWatermark(ctx context.Context, templateID string, date civil.Date) error

	ListExceptions(ctx context.Context, templateID string) ([]model.TemplateException, error)
	UpsertException(ctx context.Context, ex model.TemplateException) (model.TemplateException, error)
	DeleteException(ctx context.Context, templateID string, occurrence civil.Date) error
}

// SavingsAccounts persists savings balances.
type SavingsAccounts interface {
	ListSavingsAccounts(ctx context.Context) ([]model.SavingsAccount, error)
	GetSavingsAccount(ctx context.Context, id string) (model.SavingsAccount, error)
	CreateSavingsAccount(ctx context.Context, a model.SavingsAccount) (model.SavingsAccount, error)
	UpdateSavingsAccount(ctx context.Context, a model.SavingsAccount) (model.SavingsAccount, error)
	DeleteSavingsAccount(ctx context.Context, id string) error
}

// Auth persists the single PIN record.
type Auth interface {
	// GetAuth returns ErrNotFound until a PIN has been set.
	GetAuth(ctx context.Context) (model.AuthRecord, error)
	SaveAuth(ctx context.Context, rec model.AuthRecord) error
}
