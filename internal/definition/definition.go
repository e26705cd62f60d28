package definition

import (
	"fmt"
	"maps"
	"sync"
	"time"
)

// AlertParams holds the settings every alert definition must declare.
type AlertParams struct {
	Transform  string `field:"transform" validate:"required,oneof=none mean percent_change"`
	Comparator string `field:"comparator" validate:"required,oneof=gt ge lt le"`
	EpochType  string `field:"epoch_type" validate:"required,oneof=day run"`
	Threads    []int  `field:"threads" validate:"required,min=1,dive,gt=0"`
	EpochCount int    `field:"epoch_count" validate:"gt=0"`
}

// ReportParams holds the settings every report definition must declare.
type ReportParams struct {
	Homogeneity bool `field:"homogeneity"`
}

// Definition is one named alert or report and its run state.
type Definition struct {
	name     string
	kind     Kind
	pipeline []string

	// Exactly one of Alert and Report is set, matching Kind.
	Alert  *AlertParams
	Report *ReportParams
	// Shared carries every field not consumed by the typed payload.
	Shared map[string][]string

	mu            sync.Mutex
	state         State
	stageIndex    int
	failedStage   string
	failureReason string
	startedAt     time.Time
	finishedAt    time.Time
	results       map[string]any
}

// Snapshot is a point-in-time copy of a definition's run state.
type Snapshot struct {
	Name          string
	Kind          Kind
	State         State
	StageIndex    int
	StageCount    int
	FailedStage   string
	FailureReason string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Duration returns how long the definition ran, or zero if it never finished.
func (s Snapshot) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// NewAlert builds a validated alert definition.
func NewAlert(name string, params AlertParams, shared map[string][]string) (*Definition, error) {
	if err := validatePayload(KindAlert, name, &params); err != nil {
		return nil, err
	}
	threads := make([]int, len(params.Threads))
	copy(threads, params.Threads)
	params.Threads = threads
	return newDefinition(KindAlert, name, &params, nil, shared), nil
}

// NewReport builds a validated report definition.
func NewReport(name string, params ReportParams, shared map[string][]string) (*Definition, error) {
	if err := validatePayload(KindReport, name, &params); err != nil {
		return nil, err
	}
	return newDefinition(KindReport, name, nil, &params, shared), nil
}

func newDefinition(kind Kind, name string, alert *AlertParams, report *ReportParams, shared map[string][]string) *Definition {
	sharedCopy := make(map[string][]string, len(shared))
	for key, values := range shared {
		sharedCopy[key] = append([]string(nil), values...)
	}
	return &Definition{
		name:     name,
		kind:     kind,
		pipeline: kind.Pipeline(),
		Alert:    alert,
		Report:   report,
		Shared:   sharedCopy,
		state:    StateNotStarted,
		results:  make(map[string]any),
	}
}

// Name returns the definition name, unique within its kind.
func (d *Definition) Name() string { return d.name }

// Kind returns the definition kind.
func (d *Definition) Kind() Kind { return d.kind }

// Pipeline returns a copy of the ordered stage names.
func (d *Definition) Pipeline() []string {
	cp := make([]string, len(d.pipeline))
	copy(cp, d.pipeline)
	return cp
}

// Key identifies a definition across a batch.
func (d *Definition) Key() string {
	return string(d.kind) + "/" + d.name
}

func (d *Definition) String() string { return d.Key() }

// SharedValue returns the first value for a shared field.
func (d *Definition) SharedValue(key string) (string, bool) {
	values := d.Shared[key]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// State returns the current state.
func (d *Definition) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// StageIndex returns the index of the next stage to run.
func (d *Definition) StageIndex() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stageIndex
}

// CurrentStage returns the next stage to run while the definition is running.
func (d *Definition) CurrentStage() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateRunning || d.stageIndex >= len(d.pipeline) {
		return "", false
	}
	return d.pipeline[d.stageIndex], true
}

// Snapshot copies the run state.
func (d *Definition) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		Name:          d.name,
		Kind:          d.kind,
		State:         d.state,
		StageIndex:    d.stageIndex,
		StageCount:    len(d.pipeline),
		FailedStage:   d.failedStage,
		FailureReason: d.failureReason,
		StartedAt:     d.startedAt,
		FinishedAt:    d.finishedAt,
	}
}

// Start moves a not-started definition into the running state at stage 0.
func (d *Definition) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateNotStarted {
		return d.transitionError(StateRunning)
	}
	d.state = StateRunning
	d.stageIndex = 0
	d.startedAt = time.Now().UTC()
	return nil
}

// Advance records that the current stage succeeded.
func (d *Definition) Advance() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateRunning || d.stageIndex >= len(d.pipeline) {
		return fmt.Errorf("%w: cannot advance %s at stage %d of %d (%s)", ErrInvalidTransition, d.Key(), d.stageIndex, len(d.pipeline), d.state)
	}
	d.stageIndex++
	return nil
}

// Complete marks a running definition whose stages all succeeded.
func (d *Definition) Complete() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateRunning || d.stageIndex != len(d.pipeline) {
		return d.transitionError(StateCompleted)
	}
	d.state = StateCompleted
	d.finishedAt = time.Now().UTC()
	return nil
}

// Fail marks a running definition as failed at the given stage.
func (d *Definition) Fail(stage, reason string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateRunning {
		return d.transitionError(StateFailed)
	}
	d.state = StateFailed
	d.failedStage = stage
	d.failureReason = reason
	d.finishedAt = time.Now().UTC()
	return nil
}

func (d *Definition) transitionError(to State) error {
	return fmt.Errorf("%w: %s cannot move from %s to %s", ErrInvalidTransition, d.Key(), d.state, to)
}

// SetResult stores a value produced by a stage for later stages.
func (d *Definition) SetResult(key string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results[key] = value
}

// Result returns a value stored by an earlier stage.
func (d *Definition) Result(key string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.results[key]
	return v, ok
}

// Results returns a copy of every stored stage result.
func (d *Definition) Results() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return maps.Clone(d.results)
}

// ResultAs returns a stored stage result converted to T.
func ResultAs[T any](d *Definition, key string) (T, bool) {
	var zero T
	raw, ok := d.Result(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	return v, ok
}
