package definition

import "errors"

// State represents the lifecycle of a definition within one run.
type State string

const (
	StateNotStarted State = "not started"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// ErrInvalidTransition is returned when a state change would move a
// definition backwards or skip the running state.
var ErrInvalidTransition = errors.New("invalid state transition")

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

func (s State) String() string { return string(s) }
