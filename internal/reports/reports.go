package reports

import (
	"context"
	"log/slog"

	"benchmgr/internal/definition"
	"benchmgr/internal/logging"
	"benchmgr/internal/stage"
	"benchmgr/internal/store"
)

// Result keys written by the report stages.
const (
	ResultSamples  = "report_samples"
	ResultSeries   = "report_series"
	ResultAnalysis = "report_analysis"
)

// Store is the persistence the report stages need.
type Store interface {
	ResultsFor(ctx context.Context, filter store.ResultFilter) ([]store.BenchResult, error)
}

// Stages holds the report stage handlers.
type Stages struct {
	store  Store
	logger *slog.Logger
}

// New constructs the report stages.
func New(st Store, logger *slog.Logger) *Stages {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stages{store: st, logger: logging.NewComponentLogger(logger, "reports")}
}

// Register binds the report-specific stages to the registry.
func (s *Stages) Register(reg *stage.Registry) {
	reg.Register(definition.StageProcessBenchmarks, s.ProcessBenchmarks)
	reg.Register(definition.StagePullResults, s.PullResults)
	reg.Register(definition.StageAnalyzeResults, s.AnalyzeResults)
	reg.Register(definition.StagePrepareReport, s.PrepareReport)
}
