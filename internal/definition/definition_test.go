package definition_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchmgr/internal/definition"
)

func alertRecord(name string) definition.Record {
	return definition.Record{
		Kind: definition.KindAlert,
		Name: name,
		Fields: map[string][]string{
			"transform":   {"percent_change"},
			"comparator":  {"lt"},
			"epoch_type":  {"run"},
			"threads":     {"1", "2, 4"},
			"epoch_count": {"3"},
			"test":        {"Insert.Empty"},
			"threshold":   {"-10"},
		},
	}
}

func TestFromRecordBuildsAlert(t *testing.T) {
	def, err := definition.FromRecord(alertRecord("insert-regression"))
	require.NoError(t, err)

	assert.Equal(t, "insert-regression", def.Name())
	assert.Equal(t, definition.KindAlert, def.Kind())
	assert.Equal(t, definition.StateNotStarted, def.State())
	assert.Equal(t, 0, def.StageIndex())
	require.NotNil(t, def.Alert)
	assert.Nil(t, def.Report)
	assert.Equal(t, []int{1, 2, 4}, def.Alert.Threads)
	assert.Equal(t, 3, def.Alert.EpochCount)
	assert.Equal(t, "percent_change", def.Alert.Transform)
	assert.Equal(t, []string{
		"pull data", "process alerts", "persist alerts", "prepare alerts", "show results",
	}, def.Pipeline())

	_, typed := def.Shared["threads"]
	assert.False(t, typed, "typed fields must not leak into shared")
	threshold, ok := def.SharedValue("threshold")
	assert.True(t, ok)
	assert.Equal(t, "-10", threshold)
}

func TestFromRecordBuildsReport(t *testing.T) {
	def, err := definition.FromRecord(definition.Record{
		Kind:   definition.KindReport,
		Name:   "nightly",
		Fields: map[string][]string{"homogeneity": {"true"}, "label": {"3.0", "3.2"}},
	})
	require.NoError(t, err)

	require.NotNil(t, def.Report)
	assert.True(t, def.Report.Homogeneity)
	assert.Equal(t, []string{"3.0", "3.2"}, def.Shared["label"])
	assert.Equal(t, "analyze results", def.Pipeline()[2])
}

func TestFromRecordRejectsMissingAlertFields(t *testing.T) {
	_, err := definition.FromRecord(definition.Record{
		Kind:   definition.KindAlert,
		Name:   "broken",
		Fields: map[string][]string{"transform": {"mean"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, definition.ErrMalformed))

	var malformed *definition.MalformedError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "broken", malformed.Name)
	msg := err.Error()
	for _, field := range []string{"comparator", "epoch_type", "threads", "epoch_count"} {
		assert.Contains(t, msg, field)
	}
}

func TestFromRecordRejectsBadValues(t *testing.T) {
	rec := alertRecord("bad")
	rec.Fields["threads"] = []string{"one"}
	rec.Fields["comparator"] = []string{"approx"}
	_, err := definition.FromRecord(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `threads: "one" is not an integer`)
	assert.Contains(t, err.Error(), "comparator must be one of")

	_, err = definition.FromRecord(definition.Record{
		Kind:   definition.KindReport,
		Name:   "r",
		Fields: map[string][]string{"homogeneity": {"maybe"}},
	})
	require.ErrorIs(t, err, definition.ErrMalformed)

	_, err = definition.FromRecord(definition.Record{Kind: "graph", Name: "x"})
	require.ErrorIs(t, err, definition.ErrMalformed)
}

func TestToRecordRoundTripsTypedFields(t *testing.T) {
	def, err := definition.FromRecord(alertRecord("insert-regression"))
	require.NoError(t, err)

	again, err := definition.FromRecord(definition.ToRecord(def))
	require.NoError(t, err)
	assert.Equal(t, def.Alert, again.Alert)
	assert.Equal(t, def.Shared, again.Shared)
}

func TestStateMachineHappyPath(t *testing.T) {
	def, err := definition.NewReport("r", definition.ReportParams{}, nil)
	require.NoError(t, err)

	require.NoError(t, def.Start())
	for i := range def.Pipeline() {
		stage, ok := def.CurrentStage()
		require.True(t, ok)
		assert.Equal(t, def.Pipeline()[i], stage)
		require.NoError(t, def.Advance())
	}
	_, ok := def.CurrentStage()
	assert.False(t, ok)
	require.NoError(t, def.Complete())

	snap := def.Snapshot()
	assert.Equal(t, definition.StateCompleted, snap.State)
	assert.Equal(t, 5, snap.StageIndex)
	assert.Equal(t, 5, snap.StageCount)
	assert.False(t, snap.FinishedAt.IsZero())
}

func TestStateMachineRejectsBackwardsTransitions(t *testing.T) {
	def, err := definition.NewReport("r", definition.ReportParams{}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, def.Advance(), definition.ErrInvalidTransition)
	assert.ErrorIs(t, def.Complete(), definition.ErrInvalidTransition)
	assert.ErrorIs(t, def.Fail("x", "y"), definition.ErrInvalidTransition)

	require.NoError(t, def.Start())
	assert.ErrorIs(t, def.Start(), definition.ErrInvalidTransition)
	assert.ErrorIs(t, def.Complete(), definition.ErrInvalidTransition, "cannot complete with stages left")

	require.NoError(t, def.Advance())
	require.NoError(t, def.Fail("pull results", "boom"))
	assert.ErrorIs(t, def.Start(), definition.ErrInvalidTransition)
	assert.ErrorIs(t, def.Advance(), definition.ErrInvalidTransition)
	assert.ErrorIs(t, def.Fail("again", "again"), definition.ErrInvalidTransition)

	snap := def.Snapshot()
	assert.Equal(t, definition.StateFailed, snap.State)
	assert.Equal(t, 1, snap.StageIndex)
	assert.Equal(t, "pull results", snap.FailedStage)
	assert.Equal(t, "boom", snap.FailureReason)
}

func TestNewAlertValidatesPayload(t *testing.T) {
	_, err := definition.NewAlert("", definition.AlertParams{}, nil)
	require.ErrorIs(t, err, definition.ErrMalformed)
	assert.Contains(t, err.Error(), "name is required")

	def, err := definition.NewAlert("ok", definition.AlertParams{
		Transform: "none", Comparator: "gt", EpochType: "day", Threads: []int{8}, EpochCount: 7,
	}, map[string][]string{"test": {"Query.Find"}})
	require.NoError(t, err)
	assert.Equal(t, "alert/ok", def.Key())
}

func TestResultsAreSafeForConcurrentUse(t *testing.T) {
	def, err := definition.NewReport("r", definition.ReportParams{}, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			def.SetResult("n", i)
			_ = def.Snapshot()
		}(i)
	}
	wg.Wait()

	n, ok := definition.ResultAs[int](def, "n")
	assert.True(t, ok)
	assert.GreaterOrEqual(t, n, 0)
	_, ok = definition.ResultAs[string](def, "n")
	assert.False(t, ok)
}
