package testsupport

import (
	"context"
	"testing"
	"time"

	"benchmgr/internal/config"
	"benchmgr/internal/definition"
	"benchmgr/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// MustUpsert stores a definition record.
func MustUpsert(t testing.TB, st *store.Store, kind definition.Kind, name string, fields map[string][]string) {
	t.Helper()

	if err := st.Upsert(context.Background(), definition.Record{Kind: kind, Name: name, Fields: fields}); err != nil {
		t.Fatalf("store.Upsert %s/%s: %v", kind, name, err)
	}
}

// SeedResults inserts one sample per thread count for each of the given
// days, ending at last. ops returns the throughput for a day offset
// (0 is the most recent) and thread count.
func SeedResults(t testing.TB, st *store.Store, test, label string, threads []int, days int, last time.Time, ops func(day, threads int) float64) {
	t.Helper()

	for day := 0; day < days; day++ {
		runDate := last.AddDate(0, 0, -day)
		for _, n := range threads {
			if _, err := st.InsertResult(context.Background(), store.BenchResult{
				Test:        test,
				Label:       label,
				Version:     "7.0.0",
				Platform:    "linux",
				ThreadCount: n,
				OpsPerSec:   ops(day, n),
				RunDate:     runDate,
			}); err != nil {
				t.Fatalf("store.InsertResult: %v", err)
			}
		}
	}
}
