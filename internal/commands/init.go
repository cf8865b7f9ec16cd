package commands

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/config"
)

func newInitCommand() *cobra.Command {
	var databaseURL string
	var timezone string
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter tally.yaml with a fresh encryption key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			path, err := runInit(absDir, databaseURL, timezone, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone that decides what \"today\" is")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing tally.yaml")

	return cmd
}

func runInit(dir, databaseURL, timezone string, force bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}

	path := filepath.Join(dir, config.FileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("checking %s: %w", path, err)
		}
	}

	key, err := newEncryptionKey()
	if err != nil {
		return "", err
	}

	cfg := config.Default()
	cfg.Auth.EncryptionKey = key
	cfg.Database.URL = databaseURL
	if timezone != "" {
		cfg.Ledger.Timezone = timezone
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	if err := config.Save(path, cfg); err != nil {
		return "", err
	}
	return path, nil
}

func newEncryptionKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating encryption key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
