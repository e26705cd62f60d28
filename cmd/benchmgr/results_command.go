package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"benchmgr/internal/config"
	"benchmgr/internal/store"
)

func newResultsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Record and inspect benchmark results",
	}
	cmd.AddCommand(newResultsAddCommand(ctx))
	cmd.AddCommand(newResultsListCommand(ctx))
	return cmd
}

func newResultsAddCommand(ctx *commandContext) *cobra.Command {
	var res store.BenchResult
	var date string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record one benchmark sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(res.Test) == "" || strings.TrimSpace(res.Label) == "" {
				return fmt.Errorf("--test and --label are required")
			}
			if res.ThreadCount <= 0 {
				return fmt.Errorf("--threads must be positive")
			}
			res.RunDate = time.Now()
			if strings.TrimSpace(date) != "" {
				parsed, err := time.Parse(time.RFC3339, date)
				if err != nil {
					return fmt.Errorf("parse --date: %w", err)
				}
				res.RunDate = parsed
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				id, err := st.InsertResult(cmd.Context(), res)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded result %d for %s/%s (%d threads)\n", id, res.Test, res.Label, res.ThreadCount)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&res.Test, "test", "", "Benchmark test name")
	flags.StringVar(&res.Label, "label", "", "Result label within the test")
	flags.StringVar(&res.Version, "version", "", "Software version measured")
	flags.StringVar(&res.Platform, "platform", "", "Platform the sample ran on")
	flags.IntVar(&res.ThreadCount, "threads", 1, "Thread count of the sample")
	flags.Float64Var(&res.OpsPerSec, "ops", 0, "Measured operations per second")
	flags.StringVar(&date, "date", "", "Run time in RFC3339 (default now)")
	return cmd
}

func newResultsListCommand(ctx *commandContext) *cobra.Command {
	var filter store.ResultFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded benchmark samples, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				results, err := st.ResultsFor(cmd.Context(), filter)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{
						strconv.FormatInt(r.ID, 10),
						r.Test,
						r.Label,
						r.Version,
						r.Platform,
						strconv.Itoa(r.ThreadCount),
						strconv.FormatFloat(r.OpsPerSec, 'f', 2, 64),
						formatTimestamp(r.RunDate),
					})
				}
				printTable(cmd.OutOrStdout(), []column{
					numCol("ID"), textCol("Test"), textCol("Label"), textCol("Version"),
					textCol("Platform"), numCol("Threads"), numCol("Ops/s"), textCol("Run Date"),
				}, rows)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&filter.Test, "test", "", "Only samples for this test")
	flags.StringVar(&filter.Label, "label", "", "Only samples with this label")
	flags.IntSliceVar(&filter.Threads, "threads", nil, "Only samples with these thread counts")
	flags.IntVar(&filter.Limit, "limit", 50, "Maximum samples to show")
	return cmd
}
