package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"benchmgr/internal/config"
	"benchmgr/internal/definition"
	"benchmgr/internal/logging"
	"benchmgr/internal/run"
	"benchmgr/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var pool string
	var workers int

	cmd := &cobra.Command{
		Use:   "run [alert|report]...",
		Short: "Dispatch alert and report definitions through their pipelines",
		Long: `Ensure definitions from the configured files, dispatch every stored
definition of each requested kind (alerts, then reports) and print one line
per definition. Exits non-zero when any definition failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(args)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("pool") {
				cfg.Dispatch.Pool = strings.TrimSpace(pool)
			}
			if cmd.Flags().Changed("workers") {
				cfg.Dispatch.Workers = workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another benchmgr run holds %s", cfg.LockPath())
			}
			defer func() { _ = lock.Unlock() }()

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				runner, err := run.New(cfg, st, run.DefaultRegistry(st, logger), logger)
				if err != nil {
					return err
				}
				result, runErr := runner.Run(cmd.Context(), kinds...)
				printRunResult(cmd.OutOrStdout(), result)
				if runErr != nil {
					logging.ErrorWithContext(logger, "run aborted", "run_aborted", logging.Error(runErr))
					return runErr
				}
				if failed := result.Failed(); failed > 0 {
					return fmt.Errorf("%d definition(s) failed", failed)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&pool, "pool", "", "Override the pool policy (per_definition, fixed, bounded)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Override the worker count for fixed and bounded pools")
	return cmd
}

func printRunResult(out io.Writer, result run.Result) {
	if result.RunID == "" {
		return
	}
	rows := make([][]string, 0)
	for _, snap := range result.Outcomes() {
		rows = append(rows, []string{
			snap.Kind.String(),
			snap.Name,
			snap.State.String(),
			stageProgress(snap),
			formatDuration(snap.Duration()),
			failureText(snap),
		})
	}
	printTable(out, []column{
		textCol("Kind"), textCol("Definition"), textCol("State"),
		numCol("Stage"), numCol("Duration"), textCol("Failure"),
	}, rows)
	for _, kr := range result.Kinds {
		fmt.Fprintf(out, "%s: %d ensured, %d completed, %d failed, %d worker(s)\n",
			kr.Kind, kr.Ensured, kr.Summary.Completed, kr.Summary.Failed, kr.Summary.Workers)
	}
	fmt.Fprintf(out, "Run %s: %d completed, %d failed in %s\n",
		result.RunID, result.Completed(), result.Failed(), formatDuration(result.Duration))
}

func stageProgress(snap definition.Snapshot) string {
	return strconv.Itoa(snap.StageIndex) + "/" + strconv.Itoa(snap.StageCount)
}

func failureText(snap definition.Snapshot) string {
	if snap.State != definition.StateFailed {
		return ""
	}
	if snap.FailedStage == "" {
		return snap.FailureReason
	}
	return snap.FailedStage + ": " + snap.FailureReason
}
