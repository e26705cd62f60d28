package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"benchmgr/internal/config"
	"benchmgr/internal/definition"
	"benchmgr/internal/logging"
	"benchmgr/internal/run"
	"benchmgr/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, store and pipeline readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				report := buildStatusReport(cmd.Context(), ctx, cfg, st)
				out := cmd.OutOrStdout()
				report.render(out, isTerminal(out))
				return nil
			})
		},
	}
}

func buildStatusReport(ctx context.Context, cc *commandContext, cfg *config.Config, st *store.Store) *statusReport {
	report := &statusReport{}

	general := report.section("configuration")
	if cc.source.Exists {
		general.add("config", levelOK, cc.source.Path)
	} else {
		general.add("config", levelInfo, cc.source.Path+" (defaults)")
	}
	general.add("dispatch pool", levelInfo, describePool(cfg.Dispatch))
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		general.add("notifications", levelInfo, topic)
	} else {
		general.add("notifications", levelInfo, "disabled")
	}

	for _, d := range []struct{ label, path string }{
		{"state dir", cfg.Paths.StateDir},
		{"log dir", cfg.Paths.LogDir},
	} {
		level, detail := dirAccess(d.path)
		general.add(d.label, level, detail)
	}

	storage := report.section("store")
	if err := st.Ping(ctx); err != nil {
		storage.add("database", levelFail, err.Error())
	} else {
		storage.add("database", levelOK, st.Path())
	}

	registry := run.DefaultRegistry(st, logging.NewNop())
	for _, kind := range definition.AllKinds() {
		pipeline := report.section(kind.String() + " pipeline")
		path := definitionsPath(cfg, kind)
		if _, err := os.Stat(path); err != nil {
			pipeline.add("definitions file", levelWarn, path+" (missing)")
		} else {
			pipeline.add("definitions file", levelOK, path)
		}
		if records, err := st.LoadAll(ctx, kind); err != nil {
			pipeline.add("stored definitions", levelFail, err.Error())
		} else {
			pipeline.add("stored definitions", levelInfo, strconv.Itoa(len(records)))
		}
		for _, h := range registry.HealthCheck(kind) {
			if h.Ready {
				pipeline.add(h.Name, levelOK, "")
			} else {
				pipeline.add(h.Name, levelFail, h.Detail)
			}
		}
	}
	return report
}

// dirAccess checks that dir exists and is readable, writable and
// searchable by the current user.
func dirAccess(dir string) (checkLevel, string) {
	info, err := os.Stat(dir)
	switch {
	case err != nil:
		return levelFail, fmt.Sprintf("%s (%v)", dir, err)
	case !info.IsDir():
		return levelFail, dir + " (not a directory)"
	}
	if err := unix.Access(dir, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return levelFail, fmt.Sprintf("%s (insufficient permissions: %v)", dir, err)
	}
	return levelOK, dir
}

func describePool(d config.Dispatch) string {
	if d.Pool == config.PoolPerDefinition {
		return d.Pool
	}
	return fmt.Sprintf("%s (%d workers)", d.Pool, d.Workers)
}
