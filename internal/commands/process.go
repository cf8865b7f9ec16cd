package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/ledger"
)

func newProcessCommand(a *app) *cobra.Command {
	var asOf string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Generate due transactions from active recurring templates",
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

			now := a.now()
			if asOf != "" {
				d, err := civil.ParseDate(asOf)
				if err != nil {
					return fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
				}
				now = time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, svc.loc)
			}

			report, runErr := svc.processor.Run(cmd.Context(), now)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
				return runErr
			}

			fmt.Fprintf(out, "Processed recurring templates as of %s: %d generated, %d duplicates, %d skipped\n",
				report.AsOf, report.Generated, report.Duplicates, report.Skipped)
			for _, tx := range report.Created {
				fmt.Fprintf(out, "  %s  %-8s %12s  %s\n", tx.Date, tx.Type, ledger.FormatCurrency(tx.Amount), tx.Company)
			}
			for _, id := range report.Failed {
				fmt.Fprintf(out, "  failed: template %s\n", id)
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "process as of this date (YYYY-MM-DD) instead of today")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}
