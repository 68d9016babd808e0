package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/me-cbr/por-onde-andei/internal/activity"
)

func newActivityCommand(deps commandDeps) *cobra.Command {
	var action string
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the logged-in account's recent activity, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, deps, func(ctx context.Context, rt *runtime) error {
				account, err := rt.requireAccount(ctx)
				if err != nil {
					return err
				}

				events, err := rt.activity.List(ctx, activity.Filter{
					OwnerID: account.ID,
					Action:  action,
					Limit:   limit,
				})
				if err != nil {
					return err
				}

				if deps.globals.JSON {
					return printJSON(deps.out, events)
				}
				if len(events) == 0 {
					_, err := fmt.Fprintln(deps.out, "no activity recorded")
					return err
				}
				for _, event := range events {
					target := event.TargetID
					if target == "" {
						target = "-"
					}
					if _, err := fmt.Fprintf(deps.out, "%s  %-22s %s\n",
						event.Timestamp.Format(time.RFC3339), event.Action, target); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "Only show events with this action")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of events to show")
	return cmd
}
