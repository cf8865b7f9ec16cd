package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/model"
)

const savingsColumns = `id, name, balance::text, created_at, updated_at`

func scanSavingsAccount(row pgx.Row) (model.SavingsAccount, error) {
	var (
		a       model.SavingsAccount
		balance string
	)
	if err := row.Scan(&a.ID, &a.Name, &balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return model.SavingsAccount{}, err
	}
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return model.SavingsAccount{}, fmt.Errorf("parsing stored balance %q: %w", balance, err)
	}
	a.Balance = b
	return a, nil
}

// ListSavingsAccounts implements store.SavingsAccounts.
func (s *Store) ListSavingsAccounts(ctx context.Context) ([]model.SavingsAccount, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+savingsColumns+` FROM savings_accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing savings accounts: %w", err)
	}
	defer rows.Close()
	var out []model.SavingsAccount
	for rows.Next() {
		a, err := scanSavingsAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetSavingsAccount implements store.SavingsAccounts.
func (s *Store) GetSavingsAccount(ctx context.Context, accountID string) (model.SavingsAccount, error) {
	a, err := scanSavingsAccount(s.pool.QueryRow(ctx,
		`SELECT `+savingsColumns+` FROM savings_accounts WHERE id = $1`, accountID))
	if err != nil {
		return model.SavingsAccount{}, mapErr(err)
	}
	return a, nil
}

func (s *Store) insertSavingsAccount(ctx context.Context, q querier, a model.SavingsAccount) (model.SavingsAccount, error) {
	now := s.now()
	if a.ID == "" {
		a.ID = id.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	saved, err := scanSavingsAccount(q.QueryRow(ctx, `
		INSERT INTO savings_accounts (id, name, balance, created_at, updated_at)
		VALUES ($1, $2, $3::text::numeric, $4, $5)
		RETURNING `+savingsColumns,
		a.ID, a.Name, a.Balance.String(), a.CreatedAt, a.UpdatedAt))
	if err != nil {
		return model.SavingsAccount{}, mapErr(err)
	}
	return saved, nil
}

// CreateSavingsAccount implements store.SavingsAccounts.
func (s *Store) CreateSavingsAccount(ctx context.Context, a model.SavingsAccount) (model.SavingsAccount, error) {
	a.ID = ""
	a.CreatedAt, a.UpdatedAt = s.now(), s.now()
	return s.insertSavingsAccount(ctx, s.pool, a)
}

// UpdateSavingsAccount implements store.SavingsAccounts.
func (s *Store) UpdateSavingsAccount(ctx context.Context, a model.SavingsAccount) (model.SavingsAccount, error) {
	saved, err := scanSavingsAccount(s.pool.QueryRow(ctx, `
		UPDATE savings_accounts SET name = $2, balance = $3::text::numeric, updated_at = $4
		WHERE id = $1
		RETURNING `+savingsColumns,
		a.ID, a.Name, a.Balance.String(), s.now()))
	if err != nil {
		return model.SavingsAccount{}, mapErr(err)
	}
	return saved, nil
}

// DeleteSavingsAccount implements store.SavingsAccounts.
func (s *Store) DeleteSavingsAccount(ctx context.Context, accountID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM savings_accounts WHERE id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("deleting savings account: %w", err)
	}
	return mustAffect(tag)
}

// GetAuth implements store.Auth.
func (s *Store) GetAuth(ctx context.Context) (model.AuthRecord, error) {
	var rec model.AuthRecord
	err := s.pool.QueryRow(ctx, `
		SELECT pin_hash, security_question, answer_cipher, answer_nonce, updated_at
		FROM auth WHERE id = 1`).
		Scan(&rec.PinHash, &rec.SecurityQuestion, &rec.AnswerCipher, &rec.AnswerNonce, &rec.UpdatedAt)
	if err != nil {
		return model.AuthRecord{}, mapErr(err)
	}
	return rec, nil
}

// SaveAuth implements store.Auth.
func (s *Store) SaveAuth(ctx context.Context, rec model.AuthRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO auth (id, pin_hash, security_question, answer_cipher, answer_nonce, updated_at)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			pin_hash = EXCLUDED.pin_hash,
			security_question = EXCLUDED.security_question,
			answer_cipher = EXCLUDED.answer_cipher,
			answer_nonce = EXCLUDED.answer_nonce,
			updated_at = EXCLUDED.updated_at`,
		rec.PinHash, rec.SecurityQuestion, rec.AnswerCipher, rec.AnswerNonce, s.now())
	if err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}
	return nil
}
