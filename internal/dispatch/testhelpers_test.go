package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"benchmgr/internal/definition"
	"benchmgr/internal/dispatch"
)

// countingQueue wraps the real queue and counts pushes per definition key.
type countingQueue struct {
	dispatch.Queue

	mu     sync.Mutex
	pushes map[string]int
}

func newCountingQueue() (*countingQueue, dispatch.QueueFactory) {
	cq := &countingQueue{pushes: make(map[string]int)}
	return cq, func(capacity int) dispatch.Queue {
		cq.Queue = dispatch.NewQueue(capacity)
		return cq
	}
}

func (c *countingQueue) Push(def *definition.Definition) error {
	c.mu.Lock()
	c.pushes[def.Key()]++
	c.mu.Unlock()
	return c.Queue.Push(def)
}

func (c *countingQueue) counts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.pushes))
	for k, v := range c.pushes {
		out[k] = v
	}
	return out
}

// recordingExecutor records every stage call per definition and fails the
// stages listed in failAt.
type recordingExecutor struct {
	mu     sync.Mutex
	calls  map[string][]string
	failAt map[string]string
	hook   func(ctx context.Context, def *definition.Definition, stageName string) error
}

func newRecordingExecutor() *recordingExecutor {
	return &recordingExecutor{
		calls:  make(map[string][]string),
		failAt: make(map[string]string),
	}
}

var errScripted = errors.New("scripted stage failure")

func (r *recordingExecutor) Execute(ctx context.Context, def *definition.Definition, stageName string) error {
	r.mu.Lock()
	r.calls[def.Key()] = append(r.calls[def.Key()], stageName)
	fail := r.failAt[def.Key()] == stageName
	hook := r.hook
	r.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, def, stageName); err != nil {
			return err
		}
	}
	if fail {
		return fmt.Errorf("%s: %w", stageName, errScripted)
	}
	return nil
}

func (r *recordingExecutor) callsFor(def *definition.Definition) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls[def.Key()]...)
}

func (r *recordingExecutor) totalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += len(c)
	}
	return n
}

func newAlert(t testing.TB, name string) *definition.Definition {
	t.Helper()
	def, err := definition.NewAlert(name, definition.AlertParams{
		Transform:  "none",
		Comparator: "gt",
		EpochType:  "run",
		Threads:    []int{1, 2},
		EpochCount: 3,
	}, nil)
	require.NoError(t, err)
	return def
}

func newReport(t testing.TB, name string) *definition.Definition {
	t.Helper()
	def, err := definition.NewReport(name, definition.ReportParams{Homogeneity: true}, nil)
	require.NoError(t, err)
	return def
}
