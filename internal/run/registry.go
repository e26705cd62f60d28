package run

import (
	"log/slog"

	"benchmgr/internal/alerts"
	"benchmgr/internal/definition"
	"benchmgr/internal/reports"
	"benchmgr/internal/stage"
	"benchmgr/internal/store"
)

// DefaultRegistry registers the built-in handlers for both pipelines.
func DefaultRegistry(st *store.Store, logger *slog.Logger) *stage.Registry {
	reg := stage.NewRegistry()
	alerts.New(st, logger).Register(reg)
	reports.New(st, logger).Register(reg)
	reg.Register(definition.StageShowResults, stage.ShowResults(logger))
	return reg
}
