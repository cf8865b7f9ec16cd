package postgres

import (
	"context"
	"fmt"

	"github.com/tally-dev/tally/internal/model"
)

// Snapshot implements store.Store.
func (s *Store) Snapshot(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	err := s.inTx(ctx, func(q querier) error {
		rows, err := q.Query(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY date, created_at`)
		if err != nil {
			return fmt.Errorf("reading transactions: %w", err)
		}
		if snap.Transactions, err = collectTransactions(rows); err != nil {
			return err
		}

		rows, err = q.Query(ctx, `SELECT `+templateColumns+` FROM recurring_templates ORDER BY created_at`)
		if err != nil {
			return fmt.Errorf("reading templates: %w", err)
		}
		if snap.RecurringTemplates, err = collectTemplates(rows); err != nil {
			return err
		}

		rows, err = q.Query(ctx, `SELECT `+exceptionColumns+` FROM template_exceptions ORDER BY template_id, occurrence_date`)
		if err != nil {
			return fmt.Errorf("reading exceptions: %w", err)
		}
		if snap.TemplateExceptions, err = collectExceptions(rows); err != nil {
			return err
		}

		rows, err = q.Query(ctx, `SELECT `+savingsColumns+` FROM savings_accounts ORDER BY name`)
		if err != nil {
			return fmt.Errorf("reading savings accounts: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			a, err := scanSavingsAccount(rows)
			if err != nil {
				return err
			}
			snap.SavingsAccounts = append(snap.SavingsAccounts, a)
		}
		return rows.Err()
	})
	return snap, err
}

// Replace implements store.Store. The swap happens in one transaction, so a
// failed restore leaves the previous data in place.
func (s *Store) Replace(ctx context.Context, snap model.Snapshot) (model.Counts, error) {
	var counts model.Counts
	err := s.inTx(ctx, func(q querier) error {
		if _, err := clearAll(ctx, q); err != nil {
			return err
		}
		for _, tx := range snap.Transactions {
			if _, err := s.insertTransaction(ctx, q, tx); err != nil {
				return fmt.Errorf("restoring transaction %s: %w", tx.ID, err)
			}
			counts.Transactions++
		}
		for _, t := range snap.RecurringTemplates {
			if _, err := s.insertTemplate(ctx, q, t); err != nil {
				return fmt.Errorf("restoring template %s: %w", t.ID, err)
			}
			counts.RecurringTemplates++
		}
		for _, e := range snap.TemplateExceptions {
			if _, err := s.insertException(ctx, q, e); err != nil {
				return fmt.Errorf("restoring exception %s: %w", e.ID, err)
			}
			counts.TemplateExceptions++
		}
		for _, a := range snap.SavingsAccounts {
			if _, err := s.insertSavingsAccount(ctx, q, a); err != nil {
				return fmt.Errorf("restoring savings account %s: %w", a.ID, err)
			}
			counts.SavingsAccounts++
		}
		return nil
	})
	if err != nil {
		return model.Counts{}, err
	}
	return counts, nil
}

// Clear implements store.Store.
func (s *Store) Clear(ctx context.Context) (model.Counts, error) {
	var counts model.Counts
	err := s.inTx(ctx, func(q querier) error {
		var err error
		counts, err = clearAll(ctx, q)
		return err
	})
	return counts, err
}

func clearAll(ctx context.Context, q querier) (model.Counts, error) {
	var c model.Counts
	for _, t := range []struct {
		table string
		n     *int
	}{
		{"transactions", &c.Transactions},
		{"recurring_templates", &c.RecurringTemplates},
		{"template_exceptions", &c.TemplateExceptions},
		{"savings_accounts", &c.SavingsAccounts},
	} {
		tag, err := q.Exec(ctx, `DELETE FROM `+t.table)
		if err != nil {
			return model.Counts{}, fmt.Errorf("clearing %s: %w", t.table, err)
		}
		*t.n = int(tag.RowsAffected())
	}
	return c, nil
}
