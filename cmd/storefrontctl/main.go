// Command storefrontctl runs maintenance tasks against the configured store:
// migrations, seeding, admin accounts and slide ordering.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sportstore/internal/config"
	"sportstore/internal/storage"
	"sportstore/internal/storage/backend"
)

// cli carries what every subcommand needs.
type cli struct {
	cfg    config.Config
	logger *slog.Logger
	open   func(ctx context.Context, cfg config.Config) (storage.DataStore, error)
}

// withStore opens the store for one command and closes it afterwards.
func (c *cli) withStore(cmd *cobra.Command, fn func(ctx context.Context, store storage.DataStore) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := c.open(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			c.logger.Warn("Failed to close store", "error", err)
		}
	}()
	return fn(ctx, store)
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Maintenance tasks for the sport store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.cfg.StoreDriver, "driver", c.cfg.StoreDriver, "Store driver: memory, json, sqlite or postgres")
	root.PersistentFlags().StringVar(&c.cfg.StoreDSN, "dsn", c.cfg.StoreDSN, "Store location: directory, file path or postgres URL")

	root.AddCommand(
		newMigrateCmd(c),
		newSeedCmd(c),
		newAdminCmd(c),
		newSlidesCmd(c),
		newCountsCmd(c),
	)
	return root
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	c := &cli{
		cfg:    cfg,
		logger: cfg.NewLogger(os.Stderr),
		open:   backend.Open,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(c).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
