package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"benchmgr/internal/api"
	"benchmgr/internal/config"
	"benchmgr/internal/definition"
	"benchmgr/internal/ingest"
	"benchmgr/internal/logging"
	"benchmgr/internal/run"
	"benchmgr/internal/store"
)

func newDefinitionsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "definitions",
		Aliases: []string{"defs"},
		Short:   "Manage stored alert and report definitions",
	}
	cmd.AddCommand(newDefinitionsListCommand(ctx))
	cmd.AddCommand(newDefinitionsEnsureCommand(ctx))
	cmd.AddCommand(newDefinitionsValidateCommand(ctx))
	cmd.AddCommand(newDefinitionsRemoveCommand(ctx))
	return cmd
}

func newDefinitionsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list <alert|report>",
		Short: "List stored definitions of a kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				records, err := st.LoadAll(cmd.Context(), kind)
				if err != nil {
					return err
				}
				if asJSON {
					views := make([]api.Definition, 0, len(records))
					for _, rec := range records {
						views = append(views, api.FromRecord(rec))
					}
					return printJSON(cmd, views)
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{rec.Name, formatFields(rec.Fields)})
				}
				printTable(cmd.OutOrStdout(), []column{textCol("Name"), textCol("Fields")}, rows)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newDefinitionsEnsureCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure [alert|report]...",
		Short: "Upsert definitions from the configured files into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				logger := logging.NewNop()
				runner, err := run.New(cfg, st, run.DefaultRegistry(st, logger), logger)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, kind := range kinds {
					n, err := runner.EnsureDefinitions(cmd.Context(), kind)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Ensured %d %s definition(s) from %s\n", n, kind, definitionsPath(cfg, kind))
				}
				return nil
			})
		},
	}
}

func newDefinitionsValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [alert|report]...",
		Short: "Parse and validate the configured definition files without storing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(args)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var problems []error
			for _, kind := range kinds {
				path := definitionsPath(cfg, kind)
				records, err := ingest.LoadFile(path, kind)
				if err != nil {
					problems = append(problems, fmt.Errorf("%s: %w", path, err))
					continue
				}
				valid := 0
				for _, rec := range records {
					if _, err := definition.FromRecord(rec); err != nil {
						problems = append(problems, err)
						continue
					}
					valid++
				}
				fmt.Fprintf(out, "%s: %d of %d %s definition(s) valid\n", path, valid, len(records), kind)
			}
			return errors.Join(problems...)
		},
	}
}

func newDefinitionsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <alert|report> <name>",
		Short: "Delete a stored definition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				removed, err := st.Delete(cmd.Context(), kind, args[1])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("%s definition %q not found", kind, args[1])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s definition %s\n", kind, args[1])
				return nil
			})
		},
	}
}

func definitionsPath(cfg *config.Config, kind definition.Kind) string {
	if kind == definition.KindReport {
		return cfg.Paths.ReportDefinitions
	}
	return cfg.Paths.AlertDefinitions
}
