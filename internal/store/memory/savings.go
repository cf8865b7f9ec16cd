package memory

import (
	"context"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store"
)

// ListSavingsAccounts implements store.SavingsAccounts.
func (s *Store) ListSavingsAccounts(_ context.Context) ([]model.SavingsAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.SavingsAccount{}, s.savings...), nil
}

// GetSavingsAccount implements store.SavingsAccounts.
func (s *Store) GetSavingsAccount(_ context.Context, accountID string) (model.SavingsAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.savingsIndex(accountID)
	if i < 0 {
		return model.SavingsAccount{}, store.ErrNotFound
	}
	return s.savings[i], nil
}

// CreateSavingsAccount implements store.SavingsAccounts.
func (s *Store) CreateSavingsAccount(_ context.Context, a model.SavingsAccount) (model.SavingsAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	a.ID = newID()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.savings = append(s.savings, a)
	return a, nil
}

// UpdateSavingsAccount implements store.SavingsAccounts.
func (s *Store) UpdateSavingsAccount(_ context.Context, a model.SavingsAccount) (model.SavingsAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.savingsIndex(a.ID)
	if i < 0 {
		return model.SavingsAccount{}, store.ErrNotFound
	}
	a.CreatedAt = s.savings[i].CreatedAt
	a.UpdatedAt = s.now()
	s.savings[i] = a
	return a, nil
}

// DeleteSavingsAccount implements store.SavingsAccounts.
func (s *Store) DeleteSavingsAccount(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.savingsIndex(accountID)
	if i < 0 {
		return store.ErrNotFound
	}
	s.savings = append(s.savings[:i], s.savings[i+1:]...)
	return nil
}

func (s *Store) savingsIndex(accountID string) int {
	for i := range s.savings {
		if s.savings[i].ID == accountID {
			return i
		}
	}
	return -1
}

// GetAuth implements store.Auth.
func (s *Store) GetAuth(_ context.Context) (model.AuthRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.auth == nil {
		return model.AuthRecord{}, store.ErrNotFound
	}
	rec := *s.auth
	rec.AnswerCipher = append([]byte(nil), rec.AnswerCipher...)
	rec.AnswerNonce = append([]byte(nil), rec.AnswerNonce...)
	return rec, nil
}

// SaveAuth implements store.Auth.
func (s *Store) SaveAuth(_ context.Context, rec model.AuthRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.AnswerCipher = append([]byte(nil), rec.AnswerCipher...)
	rec.AnswerNonce = append([]byte(nil), rec.AnswerNonce...)
	rec.UpdatedAt = s.now()
	s.auth = &rec
	return nil
}
