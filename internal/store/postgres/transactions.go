package postgres

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/id"
	"github.com/tally-dev/tally/internal/model"
)

const transactionColumns = `id, date::text, type, amount::text, company, tags, paid,
	template_id, is_auto_generated, is_pending, created_at, updated_at`

func scanTransaction(row pgx.Row) (model.Transaction, error) {
	var (
		tx         model.Transaction
		date       string
		amount     string
		templateID pgtype.Text
	)
	err := row.Scan(&tx.ID, &date, &tx.Type, &amount, &tx.Company, &tx.Tags, &tx.Paid,
		&templateID, &tx.IsAutoGenerated, &tx.IsPending, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return model.Transaction{}, err
	}
	if tx.Date, err = civil.ParseDate(date); err != nil {
		return model.Transaction{}, fmt.Errorf("parsing stored date %q: %w", date, err)
	}
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return model.Transaction{}, fmt.Errorf("parsing stored amount %q: %w", amount, err)
	}
	tx.TemplateID = templateID.String
	if tx.Tags == nil {
		tx.Tags = []string{}
	}
	return tx, nil
}

func collectTransactions(rows pgx.Rows) ([]model.Transaction, error) {
	defer rows.Close()
	var out []model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// insertTransaction stores tx, keeping its ID and timestamps when set.
func (s *Store) insertTransaction(ctx context.Context, q querier, tx model.Transaction) (model.Transaction, error) {
	now := s.now()
	if tx.ID == "" {
		tx.ID = id.New()
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
	row := q.QueryRow(ctx, `
		INSERT INTO transactions (id, date, type, amount, company, tags, paid,
			template_id, is_auto_generated, is_pending, created_at, updated_at)
		VALUES ($1, $2::text::date, $3, $4::text::numeric, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+transactionColumns,
		tx.ID, tx.Date.String(), tx.Type, tx.Amount.String(), tx.Company, tx.Tags, tx.Paid,
		idText(tx.TemplateID), tx.IsAutoGenerated, tx.IsPending, tx.CreatedAt, tx.UpdatedAt)
	saved, err := scanTransaction(row)
	if err != nil {
		return model.Transaction{}, mapErr(err)
	}
	return saved, nil
}

// ListTransactions implements store.Transactions.
func (s *Store) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return collectTransactions(rows)
}

// AllTransactions implements store.Transactions.
func (s *Store) AllTransactions(ctx context.Context) ([]model.Transaction, error) {
	return s.ListTransactions(ctx)
}

// GetTransaction implements store.Transactions.
func (s *Store) GetTransaction(ctx context.Context, txID string) (model.Transaction, error) {
	tx, err := scanTransaction(s.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, txID))
	if err != nil {
		return model.Transaction{}, mapErr(err)
	}
	return tx, nil
}

// SaveTransaction implements store.Transactions.
func (s *Store) SaveTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	tx.ID = ""
	return s.insertTransaction(ctx, s.pool, tx)
}

// CreateTransactions implements store.Transactions. The rows are inserted in
// one database transaction.
func (s *Store) CreateTransactions(ctx context.Context, txs []model.Transaction) ([]model.Transaction, error) {
	out := make([]model.Transaction, 0, len(txs))
	err := s.inTx(ctx, func(q querier) error {
		for _, tx := range txs {
			tx.ID = ""
			saved, err := s.insertTransaction(ctx, q, tx)
			if err != nil {
				return err
			}
			out = append(out, saved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTransaction implements store.Transactions.
func (s *Store) UpdateTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	if tx.Tags == nil {
		tx.Tags = []string{}
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE transactions SET
			date = $2::text::date, type = $3, amount = $4::text::numeric, company = $5,
			tags = $6, paid = $7, template_id = $8, is_auto_generated = $9,
			is_pending = $10, updated_at = $11
		WHERE id = $1
		RETURNING `+transactionColumns,
		tx.ID, tx.Date.String(), tx.Type, tx.Amount.String(), tx.Company, tx.Tags, tx.Paid,
		idText(tx.TemplateID), tx.IsAutoGenerated, tx.IsPending, s.now())
	saved, err := scanTransaction(row)
	if err != nil {
		return model.Transaction{}, mapErr(err)
	}
	return saved, nil
}

// DeleteTransaction implements store.Transactions.
func (s *Store) DeleteTransaction(ctx context.Context, txID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, txID)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}
	return mustAffect(tag)
}
