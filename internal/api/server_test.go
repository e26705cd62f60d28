package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchmgr/internal/api"
	"benchmgr/internal/definition"
	"benchmgr/internal/logging"
	"benchmgr/internal/run"
	"benchmgr/internal/stage"
	"benchmgr/internal/store"
	"benchmgr/internal/testsupport"
)

func newTestServer(t *testing.T, registry func(*store.Store) *stage.Registry) (*api.Server, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	var reg *stage.Registry
	if registry != nil {
		reg = registry(st)
	}
	return api.New(cfg.API.Bind, st, reg, logging.NewNop()), st
}

func get(t *testing.T, srv *api.Server, target string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
	}
	return rec.Code
}

func TestHealthReportsStagesForEveryKind(t *testing.T) {
	srv, _ := newTestServer(t, func(st *store.Store) *stage.Registry {
		return run.DefaultRegistry(st, logging.NewNop())
	})

	var resp api.HealthResponse
	code := get(t, srv, "/api/health", &resp)

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.OK)
	assert.Empty(t, resp.StoreError)
	assert.NotEmpty(t, resp.Database)
	assert.Len(t, resp.StageHealth, len(definition.KindAlert.Pipeline())+len(definition.KindReport.Pipeline()))
	for _, h := range resp.StageHealth {
		assert.True(t, h.Ready, "%s/%s", h.Kind, h.Name)
	}
}

func TestHealthUnavailableWhenStageMissing(t *testing.T) {
	srv, _ := newTestServer(t, func(*store.Store) *stage.Registry {
		reg := stage.NewRegistry()
		reg.Register(definition.StagePullData, func(context.Context, *definition.Definition) error { return nil })
		return reg
	})

	var resp api.HealthResponse
	code := get(t, srv, "/api/health", &resp)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, resp.OK)
	var missing int
	for _, h := range resp.StageHealth {
		if !h.Ready {
			missing++
			assert.Equal(t, "no handler registered", h.Detail)
		}
	}
	assert.Equal(t, 9, missing)
}

func TestDefinitionsByKind(t *testing.T) {
	srv, st := newTestServer(t, nil)
	testsupport.MustUpsert(t, st, definition.KindAlert, "gt", map[string][]string{
		"transform": {"none"}, "comparator": {"gt"}, "epoch_type": {"run"},
		"threads": {"1", "2"}, "epoch_count": {"3"},
	})
	testsupport.MustUpsert(t, st, definition.KindReport, "weekly", map[string][]string{
		"homogeneity": {"true"},
	})

	var resp api.DefinitionListResponse
	code := get(t, srv, "/api/definitions/alert", &resp)

	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp.Definitions, 1)
	got := resp.Definitions[0]
	assert.Equal(t, "alert", got.Kind)
	assert.Equal(t, "gt", got.Name)
	assert.Equal(t, definition.KindAlert.Pipeline(), got.Pipeline)
	assert.Equal(t, []string{"1", "2"}, got.Fields["threads"])

	var errResp api.ErrorResponse
	code = get(t, srv, "/api/definitions/bogus", &errResp)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "unknown definition kind", errResp.Error)
}

func TestRunsFilterAndLimit(t *testing.T) {
	srv, st := newTestServer(t, nil)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, o := range []store.Outcome{
		{RunID: "r1", Kind: definition.KindAlert, Name: "a", State: definition.StateCompleted, StageIndex: 5, StageCount: 5, StartedAt: started, FinishedAt: started.Add(1500 * time.Millisecond)},
		{RunID: "r1", Kind: definition.KindAlert, Name: "b", State: definition.StateFailed, StageIndex: 1, StageCount: 5, FailedStage: definition.StageProcessAlerts, FailureReason: "boom", StartedAt: started, FinishedAt: started.Add(time.Second)},
		{RunID: "r2", Kind: definition.KindReport, Name: "c", State: definition.StateCompleted, StageIndex: 5, StageCount: 5, StartedAt: started, FinishedAt: started},
	} {
		require.NoError(t, st.RecordOutcome(ctx, o))
	}

	var resp api.OutcomeListResponse
	require.Equal(t, http.StatusOK, get(t, srv, "/api/runs?run=r1", &resp))
	require.Len(t, resp.Outcomes, 2)
	byName := map[string]api.Outcome{}
	for _, o := range resp.Outcomes {
		byName[o.Name] = o
	}
	assert.Equal(t, int64(1500), byName["a"].DurationMS)
	assert.Equal(t, "2026-03-01T12:00:00.000Z", byName["a"].StartedAt)
	assert.Equal(t, "failed", byName["b"].State)
	assert.Equal(t, definition.StageProcessAlerts, byName["b"].FailedStage)
	assert.Equal(t, "boom", byName["b"].FailureReason)

	resp = api.OutcomeListResponse{}
	require.Equal(t, http.StatusOK, get(t, srv, "/api/runs?limit=1", &resp))
	assert.Len(t, resp.Outcomes, 1)

	var errResp api.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/runs?limit=zero", &errResp))
	assert.Equal(t, "invalid limit", errResp.Error)
}

func TestAlertsFilteredByName(t *testing.T) {
	srv, st := newTestServer(t, nil)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.UpsertAlertHistory(context.Background(), []store.AlertRecord{
		{Test: "fio", Label: "ops", Transform: "none", AlertName: "gt", TriggerDate: day, ThreadCount: 1, Comparator: "gt", Threshold: 10, Value: 12},
		{Test: "fio", Label: "ops", Transform: "mean", AlertName: "lt", TriggerDate: day, ThreadCount: 2, Comparator: "lt", Threshold: 5, Value: 3},
	}))

	var resp api.AlertListResponse
	require.Equal(t, http.StatusOK, get(t, srv, "/api/alerts?name=gt", &resp))
	require.Len(t, resp.Alerts, 1)
	assert.Equal(t, "gt", resp.Alerts[0].AlertName)
	assert.Equal(t, "2026-03-02", resp.Alerts[0].TriggerDate)
	assert.InDelta(t, 12.0, resp.Alerts[0].Value, 1e-9)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var errResp api.ErrorResponse
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/api/nope", &errResp))
	assert.Equal(t, "not found", errResp.Error)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStartServesUntilContextCancelled(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, srv.Start(ctx))
	addr := srv.Addr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/api/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.Eventually(t, func() bool { return srv.Addr() == "" }, 2*time.Second, 10*time.Millisecond)
}

func TestStartRejectsEmptyBind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := api.New("  ", testsupport.MustOpenStore(t, cfg), nil, nil)
	require.Error(t, srv.Start(context.Background()))
}
