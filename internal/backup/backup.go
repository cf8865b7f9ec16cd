// Package backup exports the whole dataset as one JSON document and loads it
// back.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/civil"

	"github.com/tally-dev/tally/internal/model"
)

// Version is written into every exported document.
const Version = "2.0"

// ErrInvalidFormat is returned for documents without a transactions list.
var ErrInvalidFormat = errors.New("invalid backup format")

// Document is the backup file.
type Document struct {
	Version    string          `json:"version"`
	ExportDate time.Time       `json:"exportDate"`
	Data       *model.Snapshot `json:"data"`
}

// Decode reads a document and checks that it carries transactions.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := doc.Check(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Check reports ErrInvalidFormat when the data section or its transactions
// are missing. An empty list is fine.
func (d Document) Check() error {
	if d.Data == nil || d.Data.Transactions == nil {
		return ErrInvalidFormat
	}
	return nil
}

// Encode writes the document as indented JSON.
func (d Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// Store is the part of the store the backup needs.
type Store interface {
	Snapshot(ctx context.Context) (model.Snapshot, error)
	Replace(ctx context.Context, s model.Snapshot) (model.Counts, error)
	Clear(ctx context.Context) (model.Counts, error)
}

// RestoreResult reports how many records a restore loaded.
type RestoreResult struct {
	TransactionsRestored    int `json:"transactionsRestored"`
	TemplatesRestored       int `json:"templatesRestored"`
	ExceptionsRestored      int `json:"exceptionsRestored"`
	SavingsAccountsRestored int `json:"savingsAccountsRestored"`
	// DuplicatesDropped counts generated rows left out because an earlier
	// row in the document already holds their (template, date, company).
	DuplicatesDropped int `json:"duplicatesDropped"`
}

// CleanupResult reports how many records a cleanup removed.
type CleanupResult struct {
	TransactionsDeleted    int `json:"transactionsDeleted"`
	TemplatesDeleted       int `json:"templatesDeleted"`
	ExceptionsDeleted      int `json:"exceptionsDeleted"`
	SavingsAccountsDeleted int `json:"savingsAccountsDeleted"`
}

// Service exports, restores and wipes data.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a backup Service.
func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Export snapshots everything into a new document.
func (s *Service) Export(ctx context.Context) (Document, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("reading data: %w", err)
	}
	if snap.Transactions == nil {
		snap.Transactions = []model.Transaction{}
	}
	if snap.RecurringTemplates == nil {
		snap.RecurringTemplates = []model.RecurrenceTemplate{}
	}
	if snap.TemplateExceptions == nil {
		snap.TemplateExceptions = []model.TemplateException{}
	}
	if snap.SavingsAccounts == nil {
		snap.SavingsAccounts = []model.SavingsAccount{}
	}
	return Document{Version: Version, ExportDate: s.now(), Data: &snap}, nil
}

// Restore replaces all data with the document's contents.
func (s *Service) Restore(ctx context.Context, doc Document) (RestoreResult, error) {
	if err := doc.Check(); err != nil {
		return RestoreResult{}, err
	}
	snap := *doc.Data
	var dropped int
	snap.Transactions, dropped = dropGeneratedDuplicates(snap.Transactions)

	c, err := s.store.Replace(ctx, snap)
	if err != nil {
		return RestoreResult{}, fmt.Errorf("restoring data: %w", err)
	}
	return RestoreResult{
		TransactionsRestored:    c.Transactions,
		TemplatesRestored:       c.RecurringTemplates,
		ExceptionsRestored:      c.TemplateExceptions,
		SavingsAccountsRestored: c.SavingsAccounts,
		DuplicatesDropped:       dropped,
	}, nil
}

type generatedKey struct {
	templateID string
	date       civil.Date
	company    string
}

// dropGeneratedDuplicates keeps the first generated row per (template, date,
// company) so older backups, written before the store enforced that key,
// still load. Manual rows are never dropped.
func dropGeneratedDuplicates(txs []model.Transaction) ([]model.Transaction, int) {
	seen := make(map[generatedKey]bool)
	out := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.TemplateID != "" {
			k := generatedKey{tx.TemplateID, tx.Date, tx.Company}
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		out = append(out, tx)
	}
	return out, len(txs) - len(out)
}

// Cleanup deletes all transactions, templates, exceptions and savings
// accounts. The PIN is kept.
func (s *Service) Cleanup(ctx context.Context) (CleanupResult, error) {
	c, err := s.store.Clear(ctx)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("clearing data: %w", err)
	}
	return CleanupResult{
		TransactionsDeleted:    c.Transactions,
		TemplatesDeleted:       c.RecurringTemplates,
		ExceptionsDeleted:      c.TemplateExceptions,
		SavingsAccountsDeleted: c.SavingsAccounts,
	}, nil
}
