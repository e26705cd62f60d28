package main

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"benchmgr/internal/config"
	"benchmgr/internal/definition"
	"benchmgr/internal/logging"
	"benchmgr/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	source     config.Source
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads the configuration once per process and creates the
// state and log directories it names.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = *c.configFlag
		}
		cfg, src, err := config.Load(path)
		if err == nil {
			err = cfg.EnsureDirectories()
		}
		if err != nil {
			c.configErr = err
			return
		}
		c.config, c.source = cfg, src
	})
	return c.config, c.configErr
}

// withStore opens the store for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(cfg, st)
}

// newLogger builds the configured logger and prunes expired log files.
func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, cfg.LogPath())
	return logger, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func parseKinds(args []string) ([]definition.Kind, error) {
	if len(args) == 0 {
		return definition.AllKinds(), nil
	}
	kinds := make([]definition.Kind, 0, len(args))
	seen := make(map[definition.Kind]struct{}, len(args))
	for _, arg := range args {
		kind, ok := definition.ParseKind(arg)
		if !ok {
			return nil, fmt.Errorf("unknown definition kind %q (expected alert or report)", arg)
		}
		if _, dup := seen[kind]; dup {
			continue
		}
		seen[kind] = struct{}{}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func parseKind(arg string) (definition.Kind, error) {
	kind, ok := definition.ParseKind(arg)
	if !ok {
		return "", fmt.Errorf("unknown definition kind %q (expected alert or report)", arg)
	}
	return kind, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
