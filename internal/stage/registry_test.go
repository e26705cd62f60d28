package stage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchmgr/internal/definition"
	"benchmgr/internal/logging"
	"benchmgr/internal/stage"
)

func newReport(t *testing.T) *definition.Definition {
	t.Helper()
	def, err := definition.NewReport("nightly", definition.ReportParams{}, nil)
	require.NoError(t, err)
	return def
}

func TestRegistryExecutesRegisteredHandler(t *testing.T) {
	reg := stage.NewRegistry()
	var called string
	reg.Register("pull results", func(ctx context.Context, def *definition.Definition) error {
		called = def.Name()
		return nil
	})

	require.NoError(t, reg.Execute(context.Background(), newReport(t), "pull results"))
	assert.Equal(t, "nightly", called)
	assert.Equal(t, []string{"pull results"}, reg.Names())
}

func TestRegistryRejectsUnknownStage(t *testing.T) {
	reg := stage.NewRegistry()
	err := reg.Execute(context.Background(), newReport(t), "analyze results")
	require.ErrorIs(t, err, stage.ErrUnknownStage)
	assert.Contains(t, err.Error(), "analyze results")
}

func TestRegistryReadyNamesMissingStages(t *testing.T) {
	reg := stage.NewRegistry()
	for _, name := range definition.KindReport.Pipeline()[:3] {
		reg.Register(name, func(context.Context, *definition.Definition) error { return nil })
	}

	err := reg.Ready(definition.KindReport)
	require.ErrorIs(t, err, stage.ErrUnknownStage)
	assert.Contains(t, err.Error(), "prepare report, show results")

	health := reg.HealthCheck(definition.KindReport)
	require.Len(t, health, 5)
	assert.True(t, health[0].Ready)
	assert.False(t, health[4].Ready)
	assert.Equal(t, "no handler registered", health[4].Detail)
}

func TestFuncAdaptsPlainFunction(t *testing.T) {
	var seen []string
	exec := stage.Func(func(ctx context.Context, def *definition.Definition, name string) error {
		seen = append(seen, name)
		return nil
	})
	require.NoError(t, exec.Execute(context.Background(), newReport(t), "a"))
	assert.Equal(t, []string{"a"}, seen)
}

func TestWrapKeepsMarkerAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := stage.Wrap(stage.ErrInvalidInput, "persist alerts", "upsert", "could not save", cause)
	assert.ErrorIs(t, err, stage.ErrInvalidInput)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "invalid stage input: persist alerts: upsert: could not save: disk full", err.Error())
}

func TestShowResultsRequiresSummary(t *testing.T) {
	handler := stage.ShowResults(logging.NewNop())
	def := newReport(t)
	require.ErrorIs(t, handler(context.Background(), def), stage.ErrMissingInput)

	def.SetResult(stage.ResultSummary, []string{"line one"})
	require.NoError(t, handler(context.Background(), def))
}
