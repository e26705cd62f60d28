package main

import (
	"github.com/spf13/cobra"
)

const (
	groupRun     = "run"
	groupInspect = "inspect"
	groupAdmin   = "admin"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	root := &cobra.Command{
		Use:           "benchmgr",
		Short:         "Run benchmark alert and report definitions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	root.AddGroup(
		&cobra.Group{ID: groupRun, Title: "Running:"},
		&cobra.Group{ID: groupInspect, Title: "Inspecting:"},
		&cobra.Group{ID: groupAdmin, Title: "Administration:"},
	)
	grouped := []struct {
		group string
		cmds  []*cobra.Command
	}{
		{groupRun, []*cobra.Command{newRunCommand(ctx), newDefinitionsCommand(ctx), newResultsCommand(ctx)}},
		{groupInspect, []*cobra.Command{newHistoryCommand(ctx), newStatusCommand(ctx), newLogsCommand(ctx), newServeCommand(ctx)}},
		{groupAdmin, []*cobra.Command{newConfigCommand(ctx), newTestNotifyCommand(ctx)}},
	}
	for _, g := range grouped {
		for _, cmd := range g.cmds {
			cmd.GroupID = g.group
			root.AddCommand(cmd)
		}
	}
	return root
}
