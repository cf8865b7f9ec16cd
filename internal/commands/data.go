package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/backup"
	"github.com/tally-dev/tally/internal/importer"
	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/model"
)

func newBackupCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write every record to a JSON backup document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			svc, err := a.services(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer svc.store.Close()

			doc, err := svc.backup.Export(cmd.Context())
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, doc.Encode)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func newRestoreCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace all data with the contents of a backup document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening backup: %w", err)
			}
			defer f.Close()

			doc, err := backup.Decode(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			svc, err := a.services(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer svc.store.Close()

			res, err := svc.backup.Restore(cmd.Context(), doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Restored %d transactions, %d templates, %d exceptions, %d savings accounts\n",
				res.TransactionsRestored, res.TemplatesRestored, res.ExceptionsRestored, res.SavingsAccountsRestored)
			if res.DuplicatesDropped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Dropped %d duplicate generated transactions\n", res.DuplicatesDropped)
			}
			return nil
		},
	}
	return cmd
}

func newCleanupCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete all transactions, templates and savings accounts",
		Long:  "Delete all transactions, templates, template exceptions and savings accounts. The PIN is kept.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("cleanup deletes all data; pass --yes to confirm")
			}
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			svc, err := a.services(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer svc.store.Close()

			res, err := svc.backup.Cleanup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Deleted %d transactions, %d templates, %d exceptions, %d savings accounts\n",
				res.TransactionsDeleted, res.TemplatesDeleted, res.ExceptionsDeleted, res.SavingsAccountsDeleted)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all transactions as CSV, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			svc, err := a.services(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer svc.store.Close()

			txs, err := svc.ledger.List(cmd.Context())
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, func(w io.Writer) error {
				return ledger.WriteTransactions(w, txs)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func newImportCommand(a *app) *cobra.Command {
	var format string
	var dir string

	cmd := &cobra.Command{
		Use:   "import [file.csv...]",
		Short: "Add transactions from CSV files",
		Long: "Add transactions from CSV files, either written by `tally export` (--format tally) " +
			"or downloaded from a bank (--format chase). Rows get new IDs. Each file is validated " +
			"first and nothing from it is written unless every row passes.\n\n" +
			"With --dir, every CSV in the directory is imported and moved to its processed/ subdirectory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := importer.DefaultRegistry().Get(format)
			if parser == nil {
				return fmt.Errorf("unknown format %q", format)
			}

			paths := args
			if dir != "" {
				if len(args) > 0 {
					return errors.New("pass either files or --dir, not both")
				}
				files, err := importer.Scan(dir)
				if err != nil {
					return err
				}
				for _, f := range files {
					paths = append(paths, f.Path)
				}
			}
			if len(paths) == 0 {
				if dir != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "No CSV files in %s\n", dir)
					return nil
				}
				return errors.New("pass at least one CSV file or --dir")
			}

			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			svc, err := a.services(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer svc.store.Close()

			for _, path := range paths {
				n, err := importFile(cmd.Context(), svc, parser, path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if dir != "" {
					if err := importer.MarkProcessed(dir, filepath.Base(path)); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions from %s\n", n, filepath.Base(path))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "tally", "CSV format: tally or chase")
	cmd.Flags().StringVar(&dir, "dir", "", "import every CSV in this directory")
	return cmd
}

func importFile(ctx context.Context, svc *services, parser importer.Parser, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	txs, err := parser.Parse(f)
	if err != nil {
		return 0, err
	}
	if err := validateImport(txs); err != nil {
		return 0, err
	}
	if len(txs) == 0 {
		return 0, nil
	}
	saved, err := svc.store.CreateTransactions(ctx, txs)
	if err != nil {
		return 0, fmt.Errorf("importing transactions: %w", err)
	}
	return len(saved), nil
}

// validateImport checks every row and reports all failures with their CSV
// line numbers.
func validateImport(txs []model.Transaction) error {
	var lines []string
	for i, tx := range txs {
		for _, e := range ledger.Validate(ledger.DraftOf(tx)) {
			lines = append(lines, fmt.Sprintf("row %d: %s: %s", i+2, e.Field, e.Message))
		}
	}
	if len(lines) > 0 {
		return errors.New(strings.Join(lines, "; "))
	}
	return nil
}
