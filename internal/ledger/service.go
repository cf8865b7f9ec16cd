package ledger

import (
	"context"
	"fmt"
	"slices"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// Store persists transactions.
type Store interface {
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	GetTransaction(ctx context.Context, id string) (model.Transaction, error)
	// CreateTransactions stores all of txs or none of them.
	CreateTransactions(ctx context.Context, txs []model.Transaction) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// EditMode selects how an edit to a repeated transaction propagates.
type EditMode string

const (
	// EditThis changes only the selected transaction.
	EditThis EditMode = "this"
	// EditFuture changes the selected transaction and every later member of
	// its series.
	EditFuture EditMode = "future"
)

// Patch lists the fields an update changes. Nil fields are left alone.
type Patch struct {
	Date      *civil.Date            `json:"date"`
	Type      *model.TransactionType `json:"type"`
	Amount    *decimal.Decimal       `json:"amount"`
	Company   *string                `json:"company"`
	Tags      []string               `json:"tags"`
	Paid      *bool                  `json:"paid"`
	IsPending *bool                  `json:"isPending"`

	RecurringEditMode EditMode `json:"recurringEditMode,omitempty"`
}

// Service provides business logic for ad-hoc transactions.
type Service struct {
	store Store
}

// NewService creates a ledger Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns all transactions, newest first.
func (s *Service) List(ctx context.Context) ([]model.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	SortByDate(txs)
	return txs, nil
}

// Get returns one transaction.
func (s *Service) Get(ctx context.Context, id string) (model.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// Create normalizes, validates and stores a draft. A repeating draft expands
// into a series that is stored all at once or not at all.
func (s *Service) Create(ctx context.Context, d Draft) ([]model.Transaction, error) {
	var txs []model.Transaction
	if d.RepeatFrequency != "" || d.RepeatUntil != nil {
		series, errs := Expand(d)
		if len(errs) > 0 {
			return nil, errs
		}
		txs = series
	} else {
		d = NormalizeAmount(d)
		if errs := Validate(d); len(errs) > 0 {
			return nil, errs
		}
		txs = []model.Transaction{d.Transaction()}
	}

	created, err := s.store.CreateTransactions(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("creating transactions: %w", err)
	}
	return created, nil
}

// UpdateResult reports the outcome of Update. Transaction is set for a
// single edit; Updated counts every row changed.
type UpdateResult struct {
	Transaction *model.Transaction
	Updated     int
}

// Update applies p to transaction id. For a repeated transaction with
// EditFuture, the same change (except the date) also applies to every
// Repeated transaction with the same company, type and absolute amount dated
// on or after it.
func (s *Service) Update(ctx context.Context, id string, p Patch) (UpdateResult, error) {
	existing, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return UpdateResult{}, err
	}

	if p.RecurringEditMode == EditFuture && existing.HasTag(model.TagRepeated) {
		return s.updateSeries(ctx, existing, p)
	}

	updated, err := s.apply(ctx, existing, p)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Transaction: &updated, Updated: 1}, nil
}

func (s *Service) updateSeries(ctx context.Context, anchor model.Transaction, p Patch) (UpdateResult, error) {
	all, err := s.store.ListTransactions(ctx)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("listing transactions: %w", err)
	}

	var series []model.Transaction
	for _, tx := range all {
		if tx.HasTag(model.TagRepeated) &&
			tx.Company == anchor.Company &&
			tx.Type == anchor.Type &&
			tx.Amount.Abs().Equal(anchor.Amount.Abs()) &&
			!tx.Date.Before(anchor.Date) {
			series = append(series, tx)
		}
	}

	// Validate every member before writing any of them.
	p.Date = nil
	merged := make([]model.Transaction, len(series))
	for i, tx := range series {
		m, errs := merge(tx, p)
		if len(errs) > 0 {
			return UpdateResult{}, errs
		}
		merged[i] = m
	}

	for _, m := range merged {
		if _, err := s.store.UpdateTransaction(ctx, m); err != nil {
			return UpdateResult{}, fmt.Errorf("updating transaction %s: %w", m.ID, err)
		}
	}
	return UpdateResult{Updated: len(merged)}, nil
}

func (s *Service) apply(ctx context.Context, existing model.Transaction, p Patch) (model.Transaction, error) {
	m, errs := merge(existing, p)
	if len(errs) > 0 {
		return model.Transaction{}, errs
	}
	updated, err := s.store.UpdateTransaction(ctx, m)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("updating transaction %s: %w", existing.ID, err)
	}
	return updated, nil
}

// merge applies p to tx and re-runs normalization and validation. The amount
// is re-signed only when the amount or type changed.
func merge(tx model.Transaction, p Patch) (model.Transaction, model.ValidationErrors) {
	d := DraftOf(tx)
	if p.Date != nil {
		d.Date = *p.Date
	}
	if p.Type != nil {
		d.Type = *p.Type
	}
	if p.Amount != nil {
		a := *p.Amount
		d.Amount = &a
	}
	if p.Company != nil {
		d.Company = *p.Company
	}
	if p.Tags != nil {
		d.Tags = slices.Clone(p.Tags)
	}
	if p.Paid != nil {
		d.Paid = p.Paid
	}
	if p.IsPending != nil {
		d.IsPending = *p.IsPending
	}
	if p.Amount != nil || p.Type != nil {
		d = NormalizeAmount(d)
		if p.Amount != nil && !d.Amount.IsZero() && p.IsPending == nil {
			d.IsPending = false
		}
	}
	if errs := Validate(d); len(errs) > 0 {
		return model.Transaction{}, errs
	}

	out := d.Transaction()
	out.ID = tx.ID
	out.TemplateID = tx.TemplateID
	out.IsAutoGenerated = tx.IsAutoGenerated
	out.CreatedAt = tx.CreatedAt
	return out, nil
}

// Delete removes a transaction.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteTransaction(ctx, id)
}
