package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"benchmgr/internal/api"
	"benchmgr/internal/config"
	"benchmgr/internal/run"
	"benchmgr/internal/store"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				address := cfg.API.Bind
				if cmd.Flags().Changed("bind") {
					address = bind
				}
				server := api.New(address, st, run.DefaultRegistry(st, logger), logger)
				if err := server.Start(cmd.Context()); err != nil {
					return err
				}
				defer server.Shutdown()
				fmt.Fprintf(cmd.OutOrStdout(), "Serving API on http://%s\n", server.Addr())
				<-cmd.Context().Done()
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override the configured bind address")
	return cmd
}
