package backup_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/backup"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store/memory"
)

func seed(t *testing.T, st *memory.Store) {
	t.Helper()
	ctx := context.Background()
	_, err := st.SaveTransaction(ctx, model.Transaction{
		Date:    civil.Date{Year: 2024, Month: time.May, Day: 1},
		Type:    model.TypeIncome,
		Amount:  decimal.RequireFromString("1500.00"),
		Company: "Employer",
		Paid:    true,
	})
	require.NoError(t, err)
	_, err = st.CreateSavingsAccount(ctx, model.SavingsAccount{Name: "Emergency", Balance: decimal.NewFromInt(100)})
	require.NoError(t, err)
}

func TestExportRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := memory.New()
	seed(t, src)

	doc, err := backup.NewService(src).Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2.0", doc.Version)
	assert.NotNil(t, doc.Data.RecurringTemplates)

	var buf bytes.Buffer
	require.NoError(t, doc.Encode(&buf))
	assert.Contains(t, buf.String(), `"exportDate"`)
	assert.Contains(t, buf.String(), `"recurringTemplates": []`)

	decoded, err := backup.Decode(&buf)
	require.NoError(t, err)

	dst := memory.New()
	res, err := backup.NewService(dst).Restore(ctx, decoded)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TransactionsRestored)
	assert.Equal(t, 1, res.SavingsAccountsRestored)

	want, err := src.ListTransactions(ctx)
	require.NoError(t, err)
	got, err := dst.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want[0].ID, got[0].ID)
	assert.True(t, want[0].Amount.Equal(got[0].Amount))
}

func TestDecode_InvalidFormat(t *testing.T) {
	for _, in := range []string{
		`{}`,
		`{"version":"2.0","data":{}}`,
		`{"data":{"transactions":null}}`,
		`not json`,
	} {
		_, err := backup.Decode(strings.NewReader(in))
		assert.ErrorIs(t, err, backup.ErrInvalidFormat, in)
	}

	doc, err := backup.Decode(strings.NewReader(`{"data":{"transactions":[]}}`))
	require.NoError(t, err)
	assert.Empty(t, doc.Data.Transactions)
}

func TestRestore_ReplacesExisting(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	seed(t, st)

	doc, err := backup.Decode(strings.NewReader(`{"version":"2.0","data":{"transactions":[
		{"id":"a","date":"2024-01-01","type":"Expense","amount":-5,"company":"Cafe","tags":[],"paid":true}
	]}}`))
	require.NoError(t, err)

	res, err := backup.NewService(st).Restore(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, backup.RestoreResult{TransactionsRestored: 1}, res)

	accts, err := st.ListSavingsAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accts)
}

func TestRestore_DropsDuplicateGeneratedRows(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	doc, err := backup.Decode(strings.NewReader(`{"version":"2.0","data":{"transactions":[
		{"id":"g1","date":"2024-02-01","type":"Expense","amount":-50,"company":"Gym","tags":[],"paid":false,"templateId":"tpl","isAutoGenerated":true},
		{"id":"g2","date":"2024-02-01","type":"Expense","amount":-50,"company":"Gym","tags":[],"paid":false,"templateId":"tpl","isAutoGenerated":true},
		{"id":"m1","date":"2024-02-01","type":"Expense","amount":-50,"company":"Gym","tags":[],"paid":true},
		{"id":"m2","date":"2024-02-01","type":"Expense","amount":-50,"company":"Gym","tags":[],"paid":true}
	]}}`))
	require.NoError(t, err)

	res, err := backup.NewService(st).Restore(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, 3, res.TransactionsRestored)
	assert.Equal(t, 1, res.DuplicatesDropped)

	txs, err := st.AllTransactions(ctx)
	require.NoError(t, err)
	var ids []string
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}
	assert.ElementsMatch(t, []string{"g1", "m1", "m2"}, ids)
}

func TestCleanup(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	seed(t, st)

	res, err := backup.NewService(st).Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, backup.CleanupResult{TransactionsDeleted: 1, SavingsAccountsDeleted: 1}, res)

	txs, err := st.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
}
