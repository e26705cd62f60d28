package run_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchmgr/internal/config"
	"benchmgr/internal/definition"
	"benchmgr/internal/logging"
	"benchmgr/internal/notifications"
	"benchmgr/internal/run"
	"benchmgr/internal/stage"
	"benchmgr/internal/store"
	"benchmgr/internal/testsupport"
)

const alertDefinitions = `
[insert-drop]
transform = "percent_change"
comparator = "lt"
epoch_type = "run"
threads = [1, 8]
epoch_count = 3
test = "insert"
label = "baseline"
threshold = -20

[insert-flat]
transform = "none"
comparator = "gt"
epoch_type = "run"
threads = [1]
epoch_count = 1
test = "insert"
label = "baseline"
threshold = 1000000
`

const reportDefinitions = `
nightly:
  homogeneity: true
  test: insert
mixed:
  homogeneity: true
  test: query
`

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notifications.Message
}

func (n *recordingNotifier) Send(_ context.Context, msg notifications.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

// bodies returns the bodies of recorded messages of one event type.
func (n *recordingNotifier) bodies(event notifications.Event) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.messages {
		if m.Event == event {
			out = append(out, m.Body)
		}
	}
	return out
}

type fixture struct {
	cfg      *config.Config
	store    *store.Store
	notifier *recordingNotifier
	runner   *run.Runner
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	notifier := &recordingNotifier{}
	ids := 0
	runner, err := run.New(cfg, st, run.DefaultRegistry(st, logging.NewNop()), logging.NewNop(),
		run.WithNotifier(notifier),
		run.WithRunIDs(func() string {
			ids++
			return "run-" + string(rune('0'+ids))
		}),
	)
	require.NoError(t, err)
	return &fixture{cfg: cfg, store: st, notifier: notifier, runner: runner}
}

func seed(t *testing.T, st *store.Store) {
	t.Helper()
	last := time.Now().UTC()
	testsupport.SeedResults(t, st, "insert", "baseline", []int{1, 8}, 4, last, func(day, threads int) float64 {
		if threads == 8 {
			return 1000 + float64(day)*300
		}
		return 500
	})
	for _, platform := range []string{"linux", "darwin"} {
		_, err := st.InsertResult(context.Background(), store.BenchResult{
			Test: "query", Label: "baseline", Version: "7.0.0", Platform: platform,
			ThreadCount: 1, OpsPerSec: 10, RunDate: last,
		})
		require.NoError(t, err)
	}
}

func TestRunProcessesAlertsThenReports(t *testing.T) {
	f := newFixture(t,
		testsupport.WithAlertDefinitions("alerts.toml", alertDefinitions),
		testsupport.WithReportDefinitions("reports.yaml", reportDefinitions),
	)
	seed(t, f.store)

	result, err := f.runner.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Kinds, 2)
	assert.Equal(t, definition.KindAlert, result.Kinds[0].Kind)
	assert.Equal(t, definition.KindReport, result.Kinds[1].Kind)
	assert.Equal(t, 2, result.Kinds[0].Ensured)
	assert.Equal(t, 3, result.Completed())
	assert.Equal(t, 1, result.Failed())
	assert.Equal(t, "run-1", result.RunID)

	outcomes, err := f.store.ListOutcomes(context.Background(), "run-1", 0)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)
	byName := map[string]store.Outcome{}
	for _, o := range outcomes {
		byName[o.Name] = o
	}
	assert.Equal(t, definition.StateFailed, byName["mixed"].State)
	assert.Equal(t, 2, byName["mixed"].StageIndex)
	assert.Equal(t, definition.StageAnalyzeResults, byName["mixed"].FailedStage)
	assert.Equal(t, 5, byName["insert-drop"].StageIndex)

	history, err := f.store.ListAlertHistory(context.Background(), store.AlertFilter{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "insert-drop", history[0].AlertName)

	failures := f.notifier.bodies(notifications.EventDefinitionFailed)
	require.Len(t, failures, 1)
	assert.True(t, strings.HasPrefix(failures[0], "report mixed failed at analyze results"), failures[0])
	runs := f.notifier.bodies(notifications.EventRunCompleted)
	require.Len(t, runs, 2)
	assert.Contains(t, runs[1], "1 failed")
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	f := newFixture(t, testsupport.WithAlertDefinitions("alerts.toml", alertDefinitions))
	seed(t, f.store)

	for i := 0; i < 2; i++ {
		result, err := f.runner.Run(context.Background(), definition.KindAlert)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Completed())
		for _, snap := range result.Outcomes() {
			assert.Equal(t, 5, snap.StageIndex)
		}
	}
	records, err := f.store.LoadAll(context.Background(), definition.KindAlert)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	history, err := f.store.ListAlertHistory(context.Background(), store.AlertFilter{})
	require.NoError(t, err)
	assert.Len(t, history, 1, "alert history is keyed by trigger date")
}

func TestRunUsesStoredDefinitionsWhenFileMissing(t *testing.T) {
	f := newFixture(t)
	testsupport.MustUpsert(t, f.store, definition.KindReport, "stored", map[string][]string{"homogeneity": {"false"}})

	result, err := f.runner.Run(context.Background(), definition.KindReport)
	require.NoError(t, err)
	require.Len(t, result.Kinds, 1)
	assert.Equal(t, 0, result.Kinds[0].Ensured)
	assert.Equal(t, 1, result.Completed())
}

func TestRunAbortsOnMalformedDefinition(t *testing.T) {
	f := newFixture(t)
	testsupport.MustUpsert(t, f.store, definition.KindAlert, "broken", map[string][]string{"transform": {"mean"}})
	testsupport.MustUpsert(t, f.store, definition.KindAlert, "fine", map[string][]string{
		"transform": {"none"}, "comparator": {"gt"}, "epoch_type": {"run"}, "threads": {"1"}, "epoch_count": {"1"},
	})

	result, err := f.runner.Run(context.Background())
	require.ErrorIs(t, err, definition.ErrMalformed)
	assert.Contains(t, err.Error(), "comparator is required")
	assert.Empty(t, result.Kinds, "nothing is dispatched when a definition is malformed")

	outcomes, err := f.store.ListOutcomes(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	require.Len(t, f.notifier.bodies(notifications.EventError), 1)
}

func TestRunRejectsIncompleteRegistry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.MustUpsert(t, st, definition.KindReport, "r", map[string][]string{"homogeneity": {"true"}})

	reg := stage.NewRegistry()
	reg.Register(definition.StageProcessBenchmarks, func(context.Context, *definition.Definition) error { return nil })
	runner, err := run.New(cfg, st, reg, nil, run.WithNotifier(&recordingNotifier{}))
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), definition.KindReport)
	require.ErrorIs(t, err, stage.ErrUnknownStage)
}

func TestRunCancelledContextFailsDefinitions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.MustUpsert(t, st, definition.KindReport, "a", map[string][]string{"homogeneity": {"false"}})
	testsupport.MustUpsert(t, st, definition.KindReport, "b", map[string][]string{"homogeneity": {"false"}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reg := stage.NewRegistry()
	for _, name := range definition.KindReport.Pipeline() {
		reg.Register(name, func(ctx context.Context, def *definition.Definition) error {
			cancel()
			<-ctx.Done()
			return ctx.Err()
		})
	}
	runner, err := run.New(cfg, st, reg, nil, run.WithNotifier(&recordingNotifier{}))
	require.NoError(t, err)

	result, err := runner.Run(ctx, definition.KindReport, definition.KindAlert)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, result.Kinds, 1, "kinds after the cancellation are not started")
	assert.Equal(t, 2, result.Failed())

	outcomes, err := st.ListOutcomes(context.Background(), result.RunID, 0)
	require.NoError(t, err)
	require.Len(t, outcomes, 2, "outcomes are recorded even after cancellation")
	for _, o := range outcomes {
		assert.Equal(t, definition.StateFailed, o.State)
	}
}

func TestNewRejectsInvalidPool(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPool("elastic", 0))
	st := testsupport.MustOpenStore(t, cfg)
	_, err := run.New(cfg, st, stage.NewRegistry(), nil)
	require.Error(t, err)
}
