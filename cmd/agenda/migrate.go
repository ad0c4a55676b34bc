package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/conference-agenda/internal/persistence/sqlstore"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	var direction string
	var steps int
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := sqlstore.Direction(direction)
			if dir != sqlstore.MigrateUp && dir != sqlstore.MigrateDown {
				return fmt.Errorf("direction must be up or down, got %q", direction)
			}
			if steps < 0 {
				return fmt.Errorf("steps must not be negative")
			}

			cfg, err := opts.load()
			if err != nil {
				return err
			}
			dialect, err := sqlstore.ParseDialect(cfg.Database.Driver)
			if err != nil {
				return err
			}
			store, err := sqlstore.Open(cmd.Context(), dialect, cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer store.Close()

			if err := store.MigrateSteps(cmd.Context(), dir, steps); err != nil {
				return err
			}
			version, dirty, err := store.MigrationVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
			return nil
		},
	}
	cmd.Flags().StringVar(&direction, "direction", string(sqlstore.MigrateUp), "up or down")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return cmd
}
