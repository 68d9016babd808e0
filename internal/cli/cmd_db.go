package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me-cbr/por-onde-andei/internal/activity"
)

func newDBCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect and maintain the local database",
	}
	cmd.AddCommand(newDBPathCommand(deps))
	cmd.AddCommand(newDBStatsCommand(deps))
	cmd.AddCommand(newDBClearCommand(deps))
	return cmd
}

func newDBPathCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the database file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				_, err := fmt.Fprintln(deps.out, rt.store.Path())
				return err
			})
		},
	}
}

func newDBStatsCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print row counts per table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				tables := []string{"accounts", "places", "sessions", "activity"}
				stats := map[string]int64{}
				for _, table := range tables {
					var count int64
					// Table names come from the fixed list above, never
					// from user input.
					row := rt.store.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table)
					if err := row.Scan(&count); err != nil {
						return fmt.Errorf("count %s: %w", table, err)
					}
					stats[table] = count
				}
				if deps.globals.JSON {
					return printJSON(deps.out, stats)
				}
				for _, table := range tables {
					if _, err := fmt.Fprintf(deps.out, "%s: %d\n", table, stats[table]); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newDBClearCommand(deps commandDeps) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every account, place and session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return usageErrorf("refusing to clear the database without --confirm")
			}
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				if err := rt.store.ClearAll(ctx); err != nil {
					return err
				}
				rt.logger.Warn("database cleared")
				// Recorded after the wipe so the fresh history starts
				// with the clear itself.
				rt.note(ctx, activity.Event{Action: activity.ActionDatabaseClear})
				_, err := fmt.Fprintln(deps.out, "database cleared")
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Acknowledge that all data will be deleted")
	return cmd
}
