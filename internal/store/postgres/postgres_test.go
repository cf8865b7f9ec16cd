package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store"
)

// openTestStore connects to TALLY_TEST_DATABASE_URL, migrates it and wipes
// it. Tests are skipped when the variable is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TALLY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TALLY_TEST_DATABASE_URL not set")
	}
	require.NoError(t, MigrateUp(dsn))

	ctx := context.Background()
	s, err := Open(ctx, dsn, Options{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.Clear(ctx)
	require.NoError(t, err)
	_, err = s.pool.Exec(ctx, `DELETE FROM auth`)
	require.NoError(t, err)
	return s
}

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestMigrator_Version(t *testing.T) {
	dsn := os.Getenv("TALLY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TALLY_TEST_DATABASE_URL not set")
	}
	g, err := NewMigrator(dsn)
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Up())
	v, dirty, err := g.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)
}

func TestTransactionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveTransaction(ctx, model.Transaction{
		Date:    date(2024, 2, 29),
		Type:    model.TypeExpense,
		Amount:  decimal.RequireFromString("-1234.56"),
		Company: "Landlord",
		Tags:    []string{"housing"},
		Paid:    true,
	})
	require.NoError(t, err)

	got, err := s.GetTransaction(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 29), got.Date)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("-1234.56")))
	assert.Equal(t, []string{"housing"}, got.Tags)
	assert.Empty(t, got.TemplateID)

	_, err = s.GetTransaction(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGeneratedRowsAreUnique(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	row := model.Transaction{
		Date: date(2024, 3, 1), Type: model.TypeExpense, Amount: decimal.NewFromInt(-100),
		Company: "Rent", TemplateID: "tpl-1", IsAutoGenerated: true,
	}
	_, err := s.SaveTransaction(ctx, row)
	require.NoError(t, err)
	_, err = s.SaveTransaction(ctx, row)
	assert.ErrorIs(t, err, store.ErrConflict)

	// The batch insert rolls back as a whole.
	next := row
	next.Date = date(2024, 4, 1)
	_, err = s.CreateTransactions(ctx, []model.Transaction{next, row})
	assert.ErrorIs(t, err, store.ErrConflict)
	all, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTemplateWatermarkAndExceptions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	amount := decimal.RequireFromString("100")
	day := 15
	tpl, err := s.CreateTemplate(ctx, model.RecurrenceTemplate{
		Type:       model.TypeExpense,
		Company:    "Gym",
		AmountType: model.AmountFixed,
		Amount:     &amount,
		StartDate:  date(2024, 1, 15),
		RecurrencePattern: &model.RecurrencePattern{
			Frequency: model.FrequencyMonthly, DayOfMonth: &day,
		},
		IsActive: true,
	})
	require.NoError(t, err)
	require.NotNil(t, tpl.RecurrencePattern)
	assert.Equal(t, 15, *tpl.RecurrencePattern.DayOfMonth)
	assert.Nil(t, tpl.LastGenerated)

	require.NoError(t, s.SaveTemplateWatermark(ctx, tpl.ID, date(2024, 3, 15)))
	require.NoError(t, s.SaveTemplateWatermark(ctx, tpl.ID, date(2024, 2, 15)))
	got, err := s.GetTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 3, 15), *got.LastGenerated)
	assert.ErrorIs(t, s.SaveTemplateWatermark(ctx, "missing", date(2024, 3, 15)), store.ErrNotFound)

	_, err = s.UpsertException(ctx, model.TemplateException{
		TemplateID: tpl.ID, OccurrenceDate: date(2024, 4, 15), Type: model.ExceptionSkip,
	})
	require.NoError(t, err)
	moved := date(2024, 4, 20)
	_, err = s.UpsertException(ctx, model.TemplateException{
		TemplateID: tpl.ID, OccurrenceDate: date(2024, 4, 15), Type: model.ExceptionDate, ModifiedDate: &moved,
	})
	require.NoError(t, err)

	exs, err := s.ListExceptions(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, exs, 1)
	assert.Equal(t, model.ExceptionDate, exs[0].Type)
	assert.Equal(t, moved, *exs[0].ModifiedDate)

	require.NoError(t, s.DeleteTemplate(ctx, tpl.ID))
	exs, err = s.ListExceptions(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Empty(t, exs)
}

func TestReplaceKeepsIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	counts, err := s.Replace(ctx, model.Snapshot{
		Transactions: []model.Transaction{{
			ID: "legacy-1", Date: date(2023, 12, 1), Type: model.TypeIncome,
			Amount: decimal.NewFromInt(10), Company: "Acme",
		}},
		SavingsAccounts: []model.SavingsAccount{{ID: "sav-1", Name: "Rainy day", Balance: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.Counts{Transactions: 1, SavingsAccounts: 1}, counts)

	_, err = s.GetTransaction(ctx, "legacy-1")
	assert.NoError(t, err)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Transactions, 1)
	assert.Len(t, snap.SavingsAccounts, 1)
}

func TestAuthUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.GetAuth(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SaveAuth(ctx, model.AuthRecord{PinHash: "a", SecurityQuestion: "Q", AnswerCipher: []byte{1}, AnswerNonce: []byte{2}}))
	require.NoError(t, s.SaveAuth(ctx, model.AuthRecord{PinHash: "b", SecurityQuestion: "Q"}))

	rec, err := s.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", rec.PinHash)
}
