package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sportstore/internal/auth"
	"sportstore/internal/dashboard"
	"sportstore/internal/seed"
	"sportstore/internal/slides"
	"sportstore/internal/storage"
)

// newMigrateCmd opens the store, which applies pending schema migrations
// for the SQL drivers and creates the directory layout for the JSON store.
func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd, func(ctx context.Context, store storage.DataStore) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Store %q is up to date.\n", c.cfg.StoreDriver)
				return nil
			})
		},
	}
}

func newSeedCmd(c *cli) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the default catalog and carousel",
		Long: `Load the embedded default brands, categories, products and slides.

A store that already has products is left alone unless --force is given,
in which case the default records are written over their stored copies.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd, func(ctx context.Context, store storage.DataStore) error {
				res, err := seed.Load(ctx, store, seed.Defaults(), force, c.logger)
				if err != nil {
					return err
				}
				if res.Skipped {
					fmt.Fprintln(cmd.OutOrStdout(), "Store already has products, nothing seeded (use --force to overwrite).")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded: %d inserted, %d updated.\n", res.Inserted, res.Updated)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite default records even when the catalog is not empty")
	return cmd
}

func newAdminCmd(c *cli) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage back office accounts",
	}

	var email, password string
	create := &cobra.Command{
		Use:   "create-user",
		Short: "Create an admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd, func(ctx context.Context, store storage.DataStore) error {
				svc, err := auth.NewService(store, c.logger, c.cfg.SessionSecret, c.cfg.SessionTTL)
				if err != nil {
					return err
				}
				u, err := svc.CreateUser(ctx, email, password)
				if errors.Is(err, auth.ErrUserExists) {
					return fmt.Errorf("an admin with email %s already exists", email)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s).\n", u.Email, u.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&email, "email", "", "Email address used to sign in (required)")
	create.Flags().StringVar(&password, "password", "", "Password, at least 8 characters (required)")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	admin.AddCommand(create)
	return admin
}

func newSlidesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slides",
		Short: "Inspect and reorder the homepage carousel",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List slides in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd, func(ctx context.Context, store storage.DataStore) error {
				all, err := slides.NewManager(store, c.logger).List(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "#\tORDER\tACTIVE\tID\tTITLE")
				for i, s := range all {
					fmt.Fprintf(tw, "%d\t%d\t%t\t%s\t%s\n", i+1, s.Order, s.Active, s.ID, s.Title)
				}
				return tw.Flush()
			})
		},
	}

	move := &cobra.Command{
		Use:   "move <id> earlier|later",
		Short: "Swap a slide with its neighbour",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := slides.ParseDirection(args[1])
			if err != nil {
				return err
			}
			return c.withStore(cmd, func(ctx context.Context, store storage.DataStore) error {
				if err := slides.NewManager(store, c.logger).Move(ctx, args[0], dir); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %s %s.\n", args[0], dir)
				return nil
			})
		},
	}

	cmd.AddCommand(list, move)
	return cmd
}

func newCountsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Print the dashboard record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd, func(ctx context.Context, store storage.DataStore) error {
				summary := dashboard.NewService(store, c.logger, c.cfg.DashboardTimeout).Summary(ctx)
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, tile := range summary.Tiles {
					note := ""
					if tile.Failed {
						note = "unavailable"
					}
					fmt.Fprintf(tw, "%s\t%d\t%s\n", tile.Collection, tile.Count, note)
				}
				return tw.Flush()
			})
		},
	}
}
