package alerts

import (
	"context"
	"log/slog"
	"time"

	"benchmgr/internal/definition"
	"benchmgr/internal/logging"
	"benchmgr/internal/stage"
	"benchmgr/internal/store"
)

// Result keys written by the alert stages.
const (
	ResultSamples   = "alert_samples"
	ResultValues    = "alert_values"
	ResultTriggered = "alert_triggered"
	ResultPersisted = "alert_persisted"
)

// Store is the persistence the alert stages need.
type Store interface {
	ResultsFor(ctx context.Context, filter store.ResultFilter) ([]store.BenchResult, error)
	UpsertAlertHistory(ctx context.Context, alerts []store.AlertRecord) error
}

// Stages holds the alert stage handlers.
type Stages struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures Stages.
type Option func(*Stages)

// WithClock overrides the time source used for day windows and trigger dates.
func WithClock(now func() time.Time) Option {
	return func(s *Stages) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs the alert stages.
func New(st Store, logger *slog.Logger, opts ...Option) *Stages {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Stages{
		store:  st,
		logger: logging.NewComponentLogger(logger, "alerts"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register binds the alert-specific stages to the registry.
func (s *Stages) Register(reg *stage.Registry) {
	reg.Register(definition.StagePullData, s.PullData)
	reg.Register(definition.StageProcessAlerts, s.ProcessAlerts)
	reg.Register(definition.StagePersistAlerts, s.PersistAlerts)
	reg.Register(definition.StagePrepareAlerts, s.PrepareAlerts)
}
