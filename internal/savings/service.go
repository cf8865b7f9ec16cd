// Package savings tracks named balances kept outside the ledger.
package savings

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// Store persists savings accounts.
type Store interface {
	ListSavingsAccounts(ctx context.Context) ([]model.SavingsAccount, error)
	GetSavingsAccount(ctx context.Context, id string) (model.SavingsAccount, error)
	CreateSavingsAccount(ctx context.Context, a model.SavingsAccount) (model.SavingsAccount, error)
	UpdateSavingsAccount(ctx context.Context, a model.SavingsAccount) (model.SavingsAccount, error)
	DeleteSavingsAccount(ctx context.Context, id string) error
}

// Input is the writable part of an account. Nil fields are left alone on
// update.
type Input struct {
	Name    *string          `json:"name"`
	Balance *decimal.Decimal `json:"balance"`
}

// Service provides CRUD over savings accounts.
type Service struct {
	store Store
}

// NewService creates a savings Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns all accounts sorted by name.
func (s *Service) List(ctx context.Context) ([]model.SavingsAccount, error) {
	accts, err := s.store.ListSavingsAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing savings accounts: %w", err)
	}
	slices.SortStableFunc(accts, func(a, b model.SavingsAccount) int {
		return strings.Compare(a.Name, b.Name)
	})
	return accts, nil
}

// Create stores a new account. Name and balance are both required.
func (s *Service) Create(ctx context.Context, in Input) (model.SavingsAccount, error) {
	var errs model.ValidationErrors
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		errs = append(errs, model.ValidationError{Field: "name", Message: "Name is required"})
	}
	if in.Balance == nil {
		errs = append(errs, model.ValidationError{Field: "balance", Message: "Balance is required"})
	}
	if len(errs) > 0 {
		return model.SavingsAccount{}, errs
	}
	return s.store.CreateSavingsAccount(ctx, model.SavingsAccount{
		Name:    strings.TrimSpace(*in.Name),
		Balance: *in.Balance,
	})
}

// Update applies the supplied fields to an existing account.
func (s *Service) Update(ctx context.Context, id string, in Input) (model.SavingsAccount, error) {
	a, err := s.store.GetSavingsAccount(ctx, id)
	if err != nil {
		return model.SavingsAccount{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return model.SavingsAccount{}, model.ValidationErrors{{Field: "name", Message: "Name is required"}}
		}
		a.Name = name
	}
	if in.Balance != nil {
		a.Balance = *in.Balance
	}
	return s.store.UpdateSavingsAccount(ctx, a)
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteSavingsAccount(ctx, id)
}

// Total sums the balances of accts.
func Total(accts []model.SavingsAccount) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accts {
		total = total.Add(a.Balance)
	}
	return total
}
