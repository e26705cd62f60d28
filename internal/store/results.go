package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// BenchResult is one measured throughput sample.
type BenchResult struct {
	ID          int64
	Test        string
	Label       string
	Version     string
	Platform    string
	ThreadCount int
	OpsPerSec   float64
	RunDate     time.Time
	RecordedAt  time.Time
}

// ResultFilter selects benchmark results. Empty fields match everything.
type ResultFilter struct {
	Test     string
	Label    string
	Platform string
	Version  string
	Threads  []int
	Since    time.Time
	Limit    int
}

const resultColumns = "id, test, label, version, platform, thread_count, ops_per_sec, run_date, recorded_at"

// InsertResult records a benchmark sample and returns its id.
func (s *Store) InsertResult(ctx context.Context, r BenchResult) (int64, error) {
	if strings.TrimSpace(r.Test) == "" || strings.TrimSpace(r.Label) == "" {
		return 0, fmt.Errorf("insert result: test and label are required")
	}
	if r.ThreadCount <= 0 {
		return 0, fmt.Errorf("insert result %s/%s: thread count must be positive", r.Test, r.Label)
	}
	runDate := r.RunDate
	if runDate.IsZero() {
		runDate = time.Now()
	}
	res, err := s.exec(ctx,
		`INSERT INTO bench_results (test, label, version, platform, thread_count, ops_per_sec, run_date, recorded_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Test, r.Label, r.Version, r.Platform, r.ThreadCount, r.OpsPerSec,
		formatTime(runDate), formatTime(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("insert result %s/%s: %w", r.Test, r.Label, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert result id: %w", err)
	}
	return id, nil
}

// ResultsFor returns results matching the filter, newest run first.
func (s *Store) ResultsFor(ctx context.Context, filter ResultFilter) ([]BenchResult, error) {
	ctx = ensureContext(ctx)
	var (
		clauses []string
		args    []any
	)
	add := func(column, value string) {
		if value = strings.TrimSpace(value); value != "" {
			clauses = append(clauses, column+" = ?")
			args = append(args, value)
		}
	}
	add("test", filter.Test)
	add("label", filter.Label)
	add("platform", filter.Platform)
	add("version", filter.Version)
	if len(filter.Threads) > 0 {
		clauses = append(clauses, "thread_count IN ("+placeholders(len(filter.Threads))+")")
		for _, n := range filter.Threads {
			args = append(args, n)
		}
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "run_date >= ?")
		args = append(args, formatTime(filter.Since))
	}

	query := "SELECT " + resultColumns + " FROM bench_results"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY run_date DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []BenchResult
	for rows.Next() {
		var (
			r           BenchResult
			runDate     string
			recordedRaw string
		)
		if err := rows.Scan(&r.ID, &r.Test, &r.Label, &r.Version, &r.Platform,
			&r.ThreadCount, &r.OpsPerSec, &runDate, &recordedRaw); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.RunDate = parseStoredTime(runDate)
		r.RecordedAt = parseStoredTime(recordedRaw)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}
