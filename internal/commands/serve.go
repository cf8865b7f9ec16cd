package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/api"
)

func newServeCommand(a *app) *cobra.Command {
	var inMemory bool
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := a.services(ctx, cfg, inMemory)
			if err != nil {
				return err
			}
			defer svc.store.Close()

			if cfg.Ledger.ProcessOnStart {
				if _, err := svc.processor.Run(ctx, a.now()); err != nil {
					svc.log.Error().Err(err).Msg("processing recurring templates on start")
				}
			}

			deps, err := svc.deps(cfg, a.now)
			if err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			svc.log.Info().
				Str("addr", cfg.Server.Address).
				Bool("in_memory", inMemory).
				Msg("starting server")

			return api.NewServer(deps).ListenAndServe(ctx, api.ListenOptions{
				Address:         cfg.Server.Address,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			})
		},
	}

	cmd.Flags().BoolVar(&inMemory, "memory", false, "keep data in memory instead of PostgreSQL")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")

	return cmd
}
