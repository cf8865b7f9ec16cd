package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/store"
)

// NewRootCommandWithStore builds the CLI against st with a fixed clock.
func NewRootCommandWithStore(st store.Store, now time.Time) *cobra.Command {
	return newRootCommand(&app{
		openStore: func(context.Context, *config.Config, bool) (store.Store, error) { return st, nil },
		now:       func() time.Time { return now },
	})
}
