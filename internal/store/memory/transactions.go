package memory

import (
	"context"

	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store"
)

func newID() string { return id.New() }

// stamp fills in the ID and timestamps of a record about to be stored.
func (s *Store) stamp(tx model.Transaction) model.Transaction {
	now := s.now()
	if tx.ID == "" {
		tx.ID = newID()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	if tx.UpdatedAt.IsZero() {
		tx.UpdatedAt = now
	}
	if tx.Tags == nil {
		tx.Tags = []string{}
	}
	return tx
}

// ListTransactions implements store.Transactions.
func (s *Store) ListTransactions(_ context.Context) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Transaction, len(s.transactions))
	for i, tx := range s.transactions {
		out[i] = tx.Clone()
	}
	return out, nil
}

// AllTransactions implements store.Transactions.
func (s *Store) AllTransactions(ctx context.Context) ([]model.Transaction, error) {
	return s.ListTransactions(ctx)
}

// GetTransaction implements store.Transactions.
func (s *Store) GetTransaction(_ context.Context, txID string) (model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.txIndex(txID)
	if i < 0 {
		return model.Transaction{}, store.ErrNotFound
	}
	return s.transactions[i].Clone(), nil
}

// SaveTransaction implements store.Transactions.
func (s *Store) SaveTransaction(_ context.Context, tx model.Transaction) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx.ID = ""
	tx = s.stamp(tx.Clone())
	if s.generatedClash(tx, -1) {
		return model.Transaction{}, store.ErrConflict
	}
	s.transactions = append(s.transactions, tx)
	return tx.Clone(), nil
}

// CreateTransactions implements store.Transactions. Either every row is
// stored or none is.
func (s *Store) CreateTransactions(_ context.Context, txs []model.Transaction) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.transactions)
	out := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		tx.ID = ""
		tx = s.stamp(tx.Clone())
		if s.generatedClash(tx, -1) {
			s.transactions = s.transactions[:n]
			return nil, store.ErrConflict
		}
		s.transactions = append(s.transactions, tx)
		out = append(out, tx.Clone())
	}
	return out, nil
}

// UpdateTransaction implements store.Transactions.
func (s *Store) UpdateTransaction(_ context.Context, tx model.Transaction) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.txIndex(tx.ID)
	if i < 0 {
		return model.Transaction{}, store.ErrNotFound
	}
	if s.generatedClash(tx, i) {
		return model.Transaction{}, store.ErrConflict
	}
	tx = tx.Clone()
	tx.CreatedAt = s.transactions[i].CreatedAt
	tx.UpdatedAt = s.now()
	if tx.Tags == nil {
		tx.Tags = []string{}
	}
	s.transactions[i] = tx
	return tx.Clone(), nil
}

// DeleteTransaction implements store.Transactions.
func (s *Store) DeleteTransaction(_ context.Context, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.txIndex(txID)
	if i < 0 {
		return store.ErrNotFound
	}
	s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
	return nil
}

func (s *Store) txIndex(txID string) int {
	for i := range s.transactions {
		if s.transactions[i].ID == txID {
			return i
		}
	}
	return -1
}

// generatedClash reports whether tx collides with another generated row on
// (template ID, date, company). skip is the index of tx itself, or -1.
func (s *Store) generatedClash(tx model.Transaction, skip int) bool {
	if tx.TemplateID == "" {
		return false
	}
	for i, o := range s.transactions {
		if i == skip {
			continue
		}
		if o.TemplateID == tx.TemplateID && o.Date == tx.Date && o.Company == tx.Company {
			return true
		}
	}
	return false
}
