package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/api"
	"github.com/tally-dev/tally/internal/auth"
	"github.com/tally-dev/tally/internal/backup"
	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/logger"
	"github.com/tally-dev/tally/internal/recurring"
	"github.com/tally-dev/tally/internal/savings"
	"github.com/tally-dev/tally/internal/store"
	"github.com/tally-dev/tally/internal/store/memory"
	"github.com/tally-dev/tally/internal/store/postgres"
)

// app carries what every subcommand shares: where the config lives and how
// to reach the store.
type app struct {
	configPath string
	openStore  func(ctx context.Context, cfg *config.Config, inMemory bool) (store.Store, error)
	now        func() time.Time
}

// loadConfig reads the config file, then environment overrides. A missing
// file is fine unless --config was given explicitly.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	default:
		return nil, err
	}

	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", a.configPath, err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logger.New(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
}

func openStore(ctx context.Context, cfg *config.Config, inMemory bool) (store.Store, error) {
	if inMemory {
		return memory.New(), nil
	}
	dsn := cfg.Database.DSN()
	if cfg.Database.RunMigrations {
		if err := postgres.MigrateUp(dsn); err != nil {
			return nil, err
		}
	}
	st, err := postgres.Open(ctx, dsn, postgres.Options{MaxConns: cfg.Database.MaxConns})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// services are the application layer wired to one store.
type services struct {
	store     store.Store
	ledger    *ledger.Service
	templates *recurring.Service
	processor *recurring.Processor
	savings   *savings.Service
	backup    *backup.Service
	loc       *time.Location
	log       zerolog.Logger
}

func (a *app) services(ctx context.Context, cfg *config.Config, inMemory bool) (*services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	st, err := a.openStore(ctx, cfg, inMemory)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return &services{
		store:     st,
		ledger:    ledger.NewService(st),
		templates: recurring.NewService(st),
		processor: recurring.NewProcessor(st, st, loc, log),
		savings:   savings.NewService(st),
		backup:    backup.NewService(st),
		loc:       loc,
		log:       log,
	}, nil
}

func (s *services) deps(cfg *config.Config, now func() time.Time) (api.Deps, error) {
	authSvc, err := auth.NewService(s.store, cfg.Auth.EncryptionKey)
	if err != nil {
		return api.Deps{}, err
	}
	return api.Deps{
		Ledger:         s.ledger,
		Templates:      s.templates,
		Processor:      s.processor,
		Savings:        s.savings,
		Auth:           authSvc,
		Backup:         s.backup,
		Store:          s.store,
		Location:       s.loc,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Log:            s.log,
		Now:            now,
	}, nil
}

// writeOutput runs fn against path, or against the command's stdout when
// path is empty or "-".
func writeOutput(cmd *cobra.Command, path string, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
