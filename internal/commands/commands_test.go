package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/buildinfo"
	"github.com/tally-dev/tally/internal/commands"
	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store/memory"
)

var testNow = time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

func runTally(t *testing.T, st *memory.Store, args ...string) (string, error) {
	t.Helper()
	cmd := commands.NewRootCommandWithStore(st, testNow)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// initConfig writes a tally.yaml pinned to UTC and returns its path.
func initConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runTally(t, memory.New(), "init", dir, "--timezone", "UTC")
	require.NoError(t, err)
	return filepath.Join(dir, config.FileName)
}

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedTransaction(t *testing.T, st *memory.Store, day string, typ model.TransactionType, amount string, company string) {
	t.Helper()
	_, err := st.SaveTransaction(context.Background(), model.Transaction{
		Date:    date(day),
		Type:    typ,
		Amount:  decimal.RequireFromString(amount),
		Company: company,
		Tags:    []string{"seed"},
		Paid:    true,
	})
	require.NoError(t, err)
}

func TestVersion(t *testing.T) {
	out, err := runTally(t, memory.New(), "--version")
	require.NoError(t, err)
	assert.Contains(t, out, buildinfo.String())
}

func TestInit_WritesConfig(t *testing.T) {
	dir := t.TempDir()
	out, err := runTally(t, memory.New(), "init", dir, "--database-url", "postgres://u@db/tally", "--timezone", "UTC")
	require.NoError(t, err)

	path := filepath.Join(dir, config.FileName)
	assert.Contains(t, out, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Auth.EncryptionKey, 64)
	assert.Equal(t, "postgres://u@db/tally", cfg.Database.URL)
	assert.Equal(t, "UTC", cfg.Ledger.Timezone)
	require.NoError(t, cfg.Validate())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	_, err := runTally(t, memory.New(), "init", dir)
	require.NoError(t, err)
	first, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)

	_, err = runTally(t, memory.New(), "init", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = runTally(t, memory.New(), "init", dir, "--force")
	require.NoError(t, err)
	second, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.NotEqual(t, first.Auth.EncryptionKey, second.Auth.EncryptionKey)
}

func TestInit_RejectsBadTimezone(t *testing.T) {
	dir := t.TempDir()
	_, err := runTally(t, memory.New(), "init", dir, "--timezone", "Mars/Olympus")
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, config.FileName))
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, err := runTally(t, memory.New(), "--config", filepath.Join(t.TempDir(), "missing.yaml"), "export")
	require.Error(t, err)
}

func TestProcess(t *testing.T) {
	cfgPath := initConfig(t)
	st := memory.New()
	amount := decimal.NewFromInt(-50)
	_, err := st.CreateTemplate(context.Background(), model.RecurrenceTemplate{
		Type:              model.TypeExpense,
		Company:           "Gym",
		Tags:              []string{},
		AmountType:        model.AmountFixed,
		Amount:            &amount,
		StartDate:         date("2024-01-15"),
		RecurrencePattern: &model.RecurrencePattern{Frequency: model.FrequencyMonthly},
		IsActive:          true,
	})
	require.NoError(t, err)

	out, err := runTally(t, st, "--config", cfgPath, "process", "--as-of", "2024-02-20")
	require.NoError(t, err)
	assert.Contains(t, out, "as of 2024-02-20: 2 generated, 0 duplicates, 0 skipped")
	assert.Contains(t, out, "2024-02-15")
	assert.Contains(t, out, "-$50.00")

	// The clock supplies today when --as-of is omitted.
	out, err = runTally(t, st, "--config", cfgPath, "process")
	require.NoError(t, err)
	assert.Contains(t, out, "as of 2024-03-20: 1 generated")

	txs, err := st.AllTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, txs, 3)

	out, err = runTally(t, st, "--config", cfgPath, "process", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"generated": 0`)
}

func TestProcess_BadAsOf(t *testing.T) {
	cfgPath := initConfig(t)
	_, err := runTally(t, memory.New(), "--config", cfgPath, "process", "--as-of", "20/03/2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--as-of")
}

func TestBackupAndRestore(t *testing.T) {
	cfgPath := initConfig(t)
	src := memory.New()
	seedTransaction(t, src, "2024-03-01", model.TypeIncome, "2500", "Employer")
	_, err := src.CreateSavingsAccount(context.Background(), model.SavingsAccount{Name: "Rainy day", Balance: decimal.NewFromInt(900)})
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "backup.json")
	_, err = runTally(t, src, "--config", cfgPath, "backup", "-o", file)
	require.NoError(t, err)

	dst := memory.New()
	seedTransaction(t, dst, "2023-12-01", model.TypeExpense, "-10", "Replaced")
	out, err := runTally(t, dst, "--config", cfgPath, "restore", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Restored 1 transactions, 0 templates, 0 exceptions, 1 savings accounts")

	want, err := src.AllTransactions(context.Background())
	require.NoError(t, err)
	got, err := dst.AllTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want[0].ID, got[0].ID)
	assert.Equal(t, "Employer", got[0].Company)
}

func TestBackup_Stdout(t *testing.T) {
	cfgPath := initConfig(t)
	out, err := runTally(t, memory.New(), "--config", cfgPath, "backup")
	require.NoError(t, err)
	assert.Contains(t, out, `"version": "2.0"`)
	assert.Contains(t, out, `"transactions": []`)
}

func TestRestore_InvalidDocument(t *testing.T) {
	cfgPath := initConfig(t)
	file := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"version":"2.0"}`), 0o644))

	st := memory.New()
	seedTransaction(t, st, "2024-03-01", model.TypeIncome, "1", "Kept")
	_, err := runTally(t, st, "--config", cfgPath, "restore", file)
	require.Error(t, err)

	txs, err := st.AllTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestCleanup(t *testing.T) {
	cfgPath := initConfig(t)
	st := memory.New()
	seedTransaction(t, st, "2024-03-01", model.TypeIncome, "1", "Gone")

	_, err := runTally(t, st, "--config", cfgPath, "cleanup")
	require.Error(t, err)

	out, err := runTally(t, st, "--config", cfgPath, "cleanup", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 transactions")
}

func TestExportAndImport(t *testing.T) {
	cfgPath := initConfig(t)
	src := memory.New()
	seedTransaction(t, src, "2024-03-01", model.TypeIncome, "2500", "Employer")
	seedTransaction(t, src, "2024-03-05", model.TypeExpense, "-42.5", "Grocer")

	out, err := runTally(t, src, "--config", cfgPath, "export")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, ledger.Header, lines[0])
	assert.Contains(t, lines[1], "2024-03-05")

	file := filepath.Join(t.TempDir(), "tx.csv")
	_, err = runTally(t, src, "--config", cfgPath, "export", "-o", file)
	require.NoError(t, err)

	dst := memory.New()
	out, err = runTally(t, dst, "--config", cfgPath, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 transactions")

	got, err := dst.AllTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	srcTxs, err := src.AllTransactions(context.Background())
	require.NoError(t, err)
	for _, tx := range got {
		for _, orig := range srcTxs {
			assert.NotEqual(t, orig.ID, tx.ID)
		}
	}
}

func TestImport_ReimportGeneratedRowsIntoSameLedger(t *testing.T) {
	cfgPath := initConfig(t)
	ctx := context.Background()
	st := memory.New()
	_, err := st.SaveTransaction(ctx, model.Transaction{
		Date:            date("2024-03-15"),
		Type:            model.TypeExpense,
		Amount:          decimal.NewFromInt(-50),
		Company:         "Gym",
		Tags:            []string{},
		TemplateID:      "tpl-gym",
		IsAutoGenerated: true,
	})
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "tx.csv")
	_, err = runTally(t, st, "--config", cfgPath, "export", "-o", file)
	require.NoError(t, err)

	out, err := runTally(t, st, "--config", cfgPath, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 transactions")

	txs, err := st.AllTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	var linked int
	for _, tx := range txs {
		if tx.TemplateID != "" {
			linked++
		}
	}
	assert.Equal(t, 1, linked)
}

func TestImport_RejectsInvalidRows(t *testing.T) {
	cfgPath := initConfig(t)
	file := filepath.Join(t.TempDir(), "tx.csv")
	csv := ledger.Header + "\n" +
		",2024-03-01,Income,10.00,Ok,,true,,false,false\n" +
		",2024-03-02,Expense,10.00,,,true,,false,false\n"
	require.NoError(t, os.WriteFile(file, []byte(csv), 0o644))

	st := memory.New()
	_, err := runTally(t, st, "--config", cfgPath, "import", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3: company")
	assert.Contains(t, err.Error(), "row 3: amount")

	txs, err := st.AllTransactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestImport_BankDirectory(t *testing.T) {
	cfgPath := initConfig(t)
	dir := t.TempDir()
	csv := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n" +
		"DEBIT,03/04/2024,CORNER GROCER,-56.30,DEBIT_CARD,2259.58,\n" +
		"CREDIT,03/08/2024,ACME PAYROLL,2500.00,ACH_CREDIT,4759.58,\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "march.csv"), []byte(csv), 0o644))

	st := memory.New()
	out, err := runTally(t, st, "--config", cfgPath, "import", "--format", "chase", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 transactions from march.csv")
	assert.FileExists(t, filepath.Join(dir, "processed", "march.csv"))

	txs, err := st.AllTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	out, err = runTally(t, st, "--config", cfgPath, "import", "--format", "chase", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No CSV files")
}

func TestImport_UnknownFormat(t *testing.T) {
	_, err := runTally(t, memory.New(), "import", "--format", "ofx", "x.csv")
	assert.ErrorContains(t, err, `unknown format "ofx"`)
}
