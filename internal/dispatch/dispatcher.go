package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"benchmgr/internal/definition"
	"benchmgr/internal/logging"
	"benchmgr/internal/stage"
)

var (
	// ErrNotDispatchable is returned when a batch contains a definition that
	// is not in the not-started state. It indicates double submission.
	ErrNotDispatchable = errors.New("definition is not dispatchable")
	// ErrDuplicateDefinition is returned when a batch names the same
	// definition twice.
	ErrDuplicateDefinition = errors.New("duplicate definition in batch")
	// ErrAlreadyInFlight is returned when a definition with the same kind and
	// name is still running in another batch on the same dispatcher.
	ErrAlreadyInFlight = errors.New("definition already in flight")
)

// Summary describes a drained batch.
type Summary struct {
	Outcomes  []definition.Snapshot
	Completed int
	Failed    int
	Workers   int
	Duration  time.Duration
}

// Failures returns the outcomes that ended in the failed state.
func (s Summary) Failures() []definition.Snapshot {
	var out []definition.Snapshot
	for _, o := range s.Outcomes {
		if o.State == definition.StateFailed {
			out = append(out, o)
		}
	}
	return out
}

// Dispatcher runs batches of definitions through a worker pool.
type Dispatcher struct {
	executor     stage.Executor
	policy       PoolPolicy
	newQueue     QueueFactory
	logger       *slog.Logger
	stageTimeout time.Duration
	onTerminal   func(definition.Snapshot)

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Option configures optional Dispatcher behavior.
type Option func(*Dispatcher)

// WithPolicy sets the pool sizing policy. The default is OnePerDefinition.
func WithPolicy(policy PoolPolicy) Option {
	return func(d *Dispatcher) {
		if policy != nil {
			d.policy = policy
		}
	}
}

// WithQueueFactory replaces the queue implementation (used in tests).
func WithQueueFactory(factory QueueFactory) Option {
	return func(d *Dispatcher) {
		if factory != nil {
			d.newQueue = factory
		}
	}
}

// WithLogger sets the logger used by the dispatcher and its workers.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithStageTimeout bounds every stage execution. Zero disables the bound.
func WithStageTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.stageTimeout = timeout
	}
}

// WithTerminalHook registers a callback invoked by the worker as soon as a
// definition reaches a terminal state. The hook runs on worker goroutines.
func WithTerminalHook(hook func(definition.Snapshot)) Option {
	return func(d *Dispatcher) {
		d.onTerminal = hook
	}
}

// New constructs a dispatcher that runs stages through executor.
func New(executor stage.Executor, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		executor: executor,
		policy:   OnePerDefinition{},
		newQueue: NewQueue,
		logger:   logging.NewNop(),
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch enqueues every definition in batch exactly once and returns after
// each has reached a terminal state. Stage failures are recorded on the
// definitions, never returned. A cancelled ctx fails whatever has not
// finished and is reported alongside the summary.
func (d *Dispatcher) Dispatch(ctx context.Context, batch []*definition.Definition) (Summary, error) {
	if d.executor == nil {
		return Summary{}, errors.New("dispatch: stage executor is required")
	}
	if len(batch) == 0 {
		return Summary{}, nil
	}
	if err := d.claim(batch); err != nil {
		return Summary{}, err
	}
	defer d.release(batch)

	logger := logging.WithContext(ctx, d.logger)
	start := time.Now()
	workers := max(d.policy.Size(len(batch)), 1)
	q := d.newQueue(len(batch))

	logger.Info("dispatch started",
		logging.String(logging.FieldEventType, "dispatch_start"),
		logging.Int("batch_size", len(batch)),
		logging.Int("workers", workers),
		logging.String("pool_policy", d.policy.String()),
	)

	var pool sync.WaitGroup
	pool.Add(workers)
	for i := 0; i < workers; i++ {
		w := &Worker{
			id:           i + 1,
			executor:     d.executor,
			logger:       d.logger,
			stageTimeout: d.stageTimeout,
			onTerminal:   d.onTerminal,
		}
		go func() {
			defer pool.Done()
			w.Run(ctx, q)
		}()
	}

	var enqueueErr error
	for i, def := range batch {
		if err := q.Push(def); err != nil {
			enqueueErr = fmt.Errorf("enqueue %s: %w", def, err)
			break
		}
		logger.Debug("definition enqueued",
			logging.String(logging.FieldKind, def.Kind().String()),
			logging.String(logging.FieldDefinition, def.Name()),
			logging.Int("remaining", len(batch)-i-1),
		)
	}

	q.Join()
	q.Close()
	pool.Wait()

	summary := summarize(batch, workers, time.Since(start))
	logger.Info("dispatch drained",
		logging.String(logging.FieldEventType, "dispatch_drained"),
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.Failed),
		logging.Duration("dispatch_duration", summary.Duration),
	)

	if enqueueErr != nil {
		return summary, enqueueErr
	}
	return summary, ctx.Err()
}

func (d *Dispatcher) claim(batch []*definition.Definition) error {
	seen := make(map[string]struct{}, len(batch))
	for i, def := range batch {
		if def == nil {
			return fmt.Errorf("%w: batch[%d] is nil", ErrNotDispatchable, i)
		}
		if state := def.State(); state != definition.StateNotStarted {
			return fmt.Errorf("%w: %s is %s", ErrNotDispatchable, def, state)
		}
		if _, dup := seen[def.Key()]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateDefinition, def)
		}
		seen[def.Key()] = struct{}{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range seen {
		if _, busy := d.inFlight[key]; busy {
			return fmt.Errorf("%w: %s", ErrAlreadyInFlight, key)
		}
	}
	for key := range seen {
		d.inFlight[key] = struct{}{}
	}
	return nil
}

func (d *Dispatcher) release(batch []*definition.Definition) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, def := range batch {
		delete(d.inFlight, def.Key())
	}
}

func summarize(batch []*definition.Definition, workers int, elapsed time.Duration) Summary {
	summary := Summary{
		Outcomes: make([]definition.Snapshot, 0, len(batch)),
		Workers:  workers,
		Duration: elapsed,
	}
	for _, def := range batch {
		snap := def.Snapshot()
		switch snap.State {
		case definition.StateCompleted:
			summary.Completed++
		case definition.StateFailed:
			summary.Failed++
		}
		summary.Outcomes = append(summary.Outcomes, snap)
	}
	return summary
}
