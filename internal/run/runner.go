package run

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"benchmgr/internal/config"
	"benchmgr/internal/definition"
	"benchmgr/internal/dispatch"
	"benchmgr/internal/ingest"
	"benchmgr/internal/logging"
	"benchmgr/internal/notifications"
	"benchmgr/internal/stage"
	"benchmgr/internal/store"
)

// Store is the persistence the runner needs.
type Store interface {
	Upsert(ctx context.Context, rec definition.Record) error
	LoadAll(ctx context.Context, kind definition.Kind) ([]definition.Record, error)
	RecordOutcome(ctx context.Context, o store.Outcome) error
}

// KindResult is the outcome of dispatching every definition of one kind.
type KindResult struct {
	Kind    definition.Kind
	Ensured int
	Summary dispatch.Summary
}

// Result describes a whole run.
type Result struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Kinds     []KindResult
}

// Completed returns the number of completed definitions across kinds.
func (r Result) Completed() int {
	n := 0
	for _, k := range r.Kinds {
		n += k.Summary.Completed
	}
	return n
}

// Failed returns the number of failed definitions across kinds.
func (r Result) Failed() int {
	n := 0
	for _, k := range r.Kinds {
		n += k.Summary.Failed
	}
	return n
}

// Outcomes returns every terminal snapshot in kind order.
func (r Result) Outcomes() []definition.Snapshot {
	var out []definition.Snapshot
	for _, k := range r.Kinds {
		out = append(out, k.Summary.Outcomes...)
	}
	return out
}

// Runner coordinates ensure, load, dispatch and record for each kind.
type Runner struct {
	cfg        *config.Config
	store      Store
	registry   *stage.Registry
	dispatcher *dispatch.Dispatcher
	notifier   notifications.Notifier
	logger     *slog.Logger
	newRunID   func() string
}

// Option configures optional Runner behavior.
type Option func(*runnerOptions)

type runnerOptions struct {
	notifier     notifications.Notifier
	runID        func() string
	dispatchOpts []dispatch.Option
}

// WithNotifier replaces the notifier built from the config (used in tests).
func WithNotifier(notifier notifications.Notifier) Option {
	return func(o *runnerOptions) {
		o.notifier = notifier
	}
}

// WithRunIDs overrides run id generation.
func WithRunIDs(next func() string) Option {
	return func(o *runnerOptions) {
		o.runID = next
	}
}

// WithDispatchOptions appends dispatcher options after the config-derived ones.
func WithDispatchOptions(opts ...dispatch.Option) Option {
	return func(o *runnerOptions) {
		o.dispatchOpts = append(o.dispatchOpts, opts...)
	}
}

// New constructs a runner. The pool policy and stage timeout come from cfg.
func New(cfg *config.Config, st Store, registry *stage.Registry, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil || st == nil || registry == nil {
		return nil, errors.New("run: config, store and registry are required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	options := &runnerOptions{runID: uuid.NewString}
	for _, opt := range opts {
		opt(options)
	}
	if options.notifier == nil {
		options.notifier = notifications.New(cfg)
	}

	policy, err := dispatch.PolicyFromConfig(cfg.Dispatch)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:      cfg,
		store:    st,
		registry: registry,
		notifier: options.notifier,
		logger:   logging.NewComponentLogger(logger, "runner"),
		newRunID: options.runID,
	}
	dispatchOpts := []dispatch.Option{
		dispatch.WithPolicy(policy),
		dispatch.WithLogger(logging.NewComponentLogger(logger, "dispatch")),
		dispatch.WithStageTimeout(time.Duration(cfg.Dispatch.StageTimeout) * time.Second),
		dispatch.WithTerminalHook(r.onTerminal),
	}
	r.dispatcher = dispatch.New(registry, append(dispatchOpts, options.dispatchOpts...)...)
	return r, nil
}

// Run processes the given kinds in order, or every kind when none are given.
// The returned Result covers every kind that was dispatched, even when an
// error stops the run early.
func (r *Runner) Run(ctx context.Context, kinds ...definition.Kind) (result Result, err error) {
	if len(kinds) == 0 {
		kinds = definition.AllKinds()
	}
	result = Result{RunID: r.newRunID(), StartedAt: time.Now().UTC()}
	ctx = logging.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Any("kinds", kinds),
	)

	defer func() {
		result.Duration = time.Since(result.StartedAt)
	}()

	for _, kind := range kinds {
		kr, err := r.runKind(ctx, kind)
		if err != nil {
			if notifyErr := r.notifier.Send(ctx, notifications.Failure(err, fmt.Sprintf("%s run", kind))); notifyErr != nil {
				logger.Warn("error notification failed", logging.Error(notifyErr))
			}
			return result, err
		}
		result.Kinds = append(result.Kinds, kr)
		if err := ctx.Err(); err != nil {
			return result, err
		}
	}

	logger.Info("run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("completed", result.Completed()),
		logging.Int("failed", result.Failed()),
		logging.Duration("run_duration", time.Since(result.StartedAt)),
	)
	return result, nil
}

func (r *Runner) runKind(ctx context.Context, kind definition.Kind) (KindResult, error) {
	kr := KindResult{Kind: kind}
	logger := logging.WithContext(ctx, r.logger).With(logging.String(logging.FieldKind, kind.String()))

	ensured, err := r.EnsureDefinitions(ctx, kind)
	if err != nil {
		return kr, err
	}
	kr.Ensured = ensured

	batch, err := r.LoadDefinitions(ctx, kind)
	if err != nil {
		return kr, err
	}
	if len(batch) == 0 {
		logger.Info("no definitions to process", logging.String(logging.FieldEventType, "kind_empty"))
		return kr, nil
	}
	if err := r.registry.Ready(kind); err != nil {
		return kr, fmt.Errorf("%s pipeline not ready: %w", kind, err)
	}

	summary, dispatchErr := r.dispatcher.Dispatch(ctx, batch)
	kr.Summary = summary
	if dispatchErr != nil && !errors.Is(dispatchErr, context.Canceled) && !errors.Is(dispatchErr, context.DeadlineExceeded) {
		return kr, fmt.Errorf("dispatch %s definitions: %w", kind, dispatchErr)
	}

	runID, _ := logging.RunIDFromContext(ctx)
	recordCtx := context.WithoutCancel(ctx)
	for _, snap := range summary.Outcomes {
		if err := r.store.RecordOutcome(recordCtx, store.OutcomeFromSnapshot(runID, snap)); err != nil {
			logging.WarnWithContext(logger, "failed to record outcome", "outcome_record_failed",
				logging.String(logging.FieldDefinition, snap.Name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "run history will be missing this definition"),
			)
		}
	}

	if err := r.notifier.Send(recordCtx, notifications.RunCompleted(notifications.RunSummary{
		RunID:     runID,
		Kind:      kind.String(),
		Completed: summary.Completed,
		Failed:    summary.Failed,
		Duration:  summary.Duration,
	})); err != nil {
		logger.Warn("run notification failed", logging.Error(err))
	}
	return kr, nil
}

// EnsureDefinitions upserts every definition in the kind's configured file
// into the store. A missing file is not an error: the store may already
// hold the definitions.
func (r *Runner) EnsureDefinitions(ctx context.Context, kind definition.Kind) (int, error) {
	path := r.definitionsPath(kind)
	logger := logging.WithContext(ctx, r.logger).With(logging.String(logging.FieldKind, kind.String()))
	if strings.TrimSpace(path) == "" {
		return 0, nil
	}
	records, err := ingest.LoadFile(path, kind)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("definition file not found; using stored definitions",
				logging.String("path", path),
				logging.String(logging.FieldEventType, "definitions_file_missing"),
			)
			return 0, nil
		}
		return 0, fmt.Errorf("load %s definitions: %w", kind, err)
	}
	for _, rec := range records {
		if err := r.store.Upsert(ctx, rec); err != nil {
			return 0, fmt.Errorf("ensure %s definition %q: %w", kind, rec.Name, err)
		}
		logger.Debug("definition ensured", logging.String(logging.FieldDefinition, rec.Name))
	}
	logger.Info("definitions ensured",
		logging.String(logging.FieldEventType, "definitions_ensured"),
		logging.Int("count", len(records)),
		logging.String("path", path),
	)
	return len(records), nil
}

// LoadDefinitions builds a not-started batch from every stored definition of
// the kind. Any malformed record fails the whole load.
func (r *Runner) LoadDefinitions(ctx context.Context, kind definition.Kind) ([]*definition.Definition, error) {
	records, err := r.store.LoadAll(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load %s definitions: %w", kind, err)
	}
	batch := make([]*definition.Definition, 0, len(records))
	var malformed []error
	for _, rec := range records {
		def, err := definition.FromRecord(rec)
		if err != nil {
			malformed = append(malformed, err)
			continue
		}
		batch = append(batch, def)
	}
	if len(malformed) > 0 {
		return nil, errors.Join(malformed...)
	}
	logging.WithContext(ctx, r.logger).Info("definitions loaded",
		logging.String(logging.FieldKind, kind.String()),
		logging.Int("count", len(batch)),
	)
	return batch, nil
}

func (r *Runner) definitionsPath(kind definition.Kind) string {
	switch kind {
	case definition.KindAlert:
		return r.cfg.Paths.AlertDefinitions
	case definition.KindReport:
		return r.cfg.Paths.ReportDefinitions
	default:
		return ""
	}
}

func (r *Runner) onTerminal(snap definition.Snapshot) {
	if snap.State != definition.StateFailed {
		return
	}
	msg := notifications.DefinitionFailed(snap.Kind.String(), snap.Name, snap.FailedStage, snap.FailureReason)
	if err := r.notifier.Send(context.Background(), msg); err != nil {
		r.logger.Warn("failure notification failed",
			logging.String(logging.FieldDefinition, snap.Name),
			logging.Error(err),
		)
	}
}
