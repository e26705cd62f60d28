package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"benchmgr/internal/api"
	"benchmgr/internal/config"
	"benchmgr/internal/definition"
	"benchmgr/internal/store"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded run outcomes and triggered alerts",
	}
	cmd.AddCommand(newHistoryRunsCommand(ctx))
	cmd.AddCommand(newHistoryAlertsCommand(ctx))
	return cmd
}

func newHistoryRunsCommand(ctx *commandContext) *cobra.Command {
	var runID string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List definition outcomes, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				outcomes, err := st.ListOutcomes(cmd.Context(), runID, limit)
				if err != nil {
					return err
				}
				if asJSON {
					views := make([]api.Outcome, 0, len(outcomes))
					for _, o := range outcomes {
						views = append(views, api.FromOutcome(o))
					}
					return printJSON(cmd, views)
				}
				rows := make([][]string, 0, len(outcomes))
				for _, o := range outcomes {
					snap := definition.Snapshot{
						Name:          o.Name,
						Kind:          o.Kind,
						State:         o.State,
						StageIndex:    o.StageIndex,
						StageCount:    o.StageCount,
						FailedStage:   o.FailedStage,
						FailureReason: o.FailureReason,
						StartedAt:     o.StartedAt,
						FinishedAt:    o.FinishedAt,
					}
					rows = append(rows, []string{
						shortRunID(o.RunID),
						o.Kind.String(),
						o.Name,
						o.State.String(),
						stageProgress(snap),
						formatDuration(snap.Duration()),
						formatTimestamp(o.FinishedAt),
						failureText(snap),
					})
				}
				printTable(cmd.OutOrStdout(), []column{
					textCol("Run"), textCol("Kind"), textCol("Definition"), textCol("State"),
					numCol("Stage"), numCol("Duration"), textCol("Finished"), textCol("Failure"),
				}, rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Only outcomes of this run id")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum outcomes to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newHistoryAlertsCommand(ctx *commandContext) *cobra.Command {
	var filter store.AlertFilter
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List triggered alerts, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				alerts, err := st.ListAlertHistory(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if asJSON {
					views := make([]api.Alert, 0, len(alerts))
					for _, a := range alerts {
						views = append(views, api.FromAlert(a))
					}
					return printJSON(cmd, views)
				}
				rows := make([][]string, 0, len(alerts))
				for _, a := range alerts {
					rows = append(rows, []string{
						a.TriggerDate.Format("2006-01-02"),
						a.AlertName,
						a.Test,
						a.Label,
						strconv.Itoa(a.ThreadCount),
						a.Transform,
						fmt.Sprintf("%.2f %s %.2f", a.Value, a.Comparator, a.Threshold),
					})
				}
				printTable(cmd.OutOrStdout(), []column{
					textCol("Date"), textCol("Alert"), textCol("Test"), textCol("Label"),
					numCol("Threads"), textCol("Transform"), textCol("Check"),
				}, rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter.AlertName, "name", "", "Only alerts with this definition name")
	cmd.Flags().StringVar(&filter.Test, "test", "", "Only alerts for this test")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "Maximum alerts to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
