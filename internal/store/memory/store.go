// Package memory is an in-memory store.Store. It is safe for concurrent use
// and loses everything on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps every record in slices guarded by one lock. Records go in and
// come out as copies.
type Store struct {
	mu sync.RWMutex

	transactions []model.Transaction
	templates    []model.RecurrenceTemplate
	exceptions   []model.TemplateException
	savings      []model.SavingsAccount
	auth         *model.AuthRecord

	now func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{now: func() time.Time { return time.Now().UTC() }}
}

// Snapshot implements store.Store.
func (s *Store) Snapshot(_ context.Context) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := model.Snapshot{
		Transactions:       make([]model.Transaction, len(s.transactions)),
		RecurringTemplates: make([]model.RecurrenceTemplate, len(s.templates)),
		TemplateExceptions: append([]model.TemplateException{}, s.exceptions...),
		SavingsAccounts:    append([]model.SavingsAccount{}, s.savings...),
	}
	for i, tx := range s.transactions {
		snap.Transactions[i] = tx.Clone()
	}
	for i, t := range s.templates {
		snap.RecurringTemplates[i] = t.Clone()
	}
	return snap, nil
}

// Replace implements store.Store.
func (s *Store) Replace(_ context.Context, snap model.Snapshot) (model.Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.transactions
	s.transactions = make([]model.Transaction, 0, len(snap.Transactions))
	for _, tx := range snap.Transactions {
		tx = s.stamp(tx.Clone())
		if s.generatedClash(tx, -1) {
			s.transactions = prev
			return model.Counts{}, store.ErrConflict
		}
		s.transactions = append(s.transactions, tx)
	}
	s.templates = make([]model.RecurrenceTemplate, 0, len(snap.RecurringTemplates))
	for _, t := range snap.RecurringTemplates {
		t = t.Clone()
		if t.ID == "" {
			t.ID = newID()
		}
		s.templates = append(s.templates, t)
	}
	s.exceptions = append([]model.TemplateException{}, snap.TemplateExceptions...)
	s.savings = append([]model.SavingsAccount{}, snap.SavingsAccounts...)
	for i := range s.savings {
		if s.savings[i].ID == "" {
			s.savings[i].ID = newID()
		}
	}

	return s.counts(), nil
}

// Clear implements store.Store.
func (s *Store) Clear(_ context.Context) (model.Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.counts()
	s.transactions = nil
	s.templates = nil
	s.exceptions = nil
	s.savings = nil
	return c, nil
}

func (s *Store) counts() model.Counts {
	return model.Counts{
		Transactions:       len(s.transactions),
		RecurringTemplates: len(s.templates),
		TemplateExceptions: len(s.exceptions),
		SavingsAccounts:    len(s.savings),
	}
}

// Ping implements store.Store.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close implements store.Store.
func (s *Store) Close() {}
