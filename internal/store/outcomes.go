package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"benchmgr/internal/definition"
)

// Outcome is the persisted terminal state of one definition in one run.
type Outcome struct {
	RunID         string
	Kind          definition.Kind
	Name          string
	State         definition.State
	StageIndex    int
	StageCount    int
	FailedStage   string
	FailureReason string
	StartedAt     time.Time
	FinishedAt    time.Time
	RecordedAt    time.Time
}

// OutcomeFromSnapshot builds an Outcome for the run.
func OutcomeFromSnapshot(runID string, snap definition.Snapshot) Outcome {
	return Outcome{
		RunID:         runID,
		Kind:          snap.Kind,
		Name:          snap.Name,
		State:         snap.State,
		StageIndex:    snap.StageIndex,
		StageCount:    snap.StageCount,
		FailedStage:   snap.FailedStage,
		FailureReason: snap.FailureReason,
		StartedAt:     snap.StartedAt,
		FinishedAt:    snap.FinishedAt,
	}
}

// RecordOutcome stores the outcome. Recording the same run, kind and name
// again replaces the earlier row.
func (s *Store) RecordOutcome(ctx context.Context, o Outcome) error {
	if strings.TrimSpace(o.RunID) == "" {
		return fmt.Errorf("record outcome for %s/%s: run id is required", o.Kind, o.Name)
	}
	_, err := s.exec(ctx,
		`INSERT INTO run_outcomes
             (run_id, kind, name, state, stage_index, stage_count, failed_stage, failure_reason, started_at, finished_at, recorded_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(run_id, kind, name) DO UPDATE SET
             state = excluded.state,
             stage_index = excluded.stage_index,
             stage_count = excluded.stage_count,
             failed_stage = excluded.failed_stage,
             failure_reason = excluded.failure_reason,
             started_at = excluded.started_at,
             finished_at = excluded.finished_at,
             recorded_at = excluded.recorded_at`,
		o.RunID, string(o.Kind), o.Name, string(o.State), o.StageIndex, o.StageCount,
		nullText(o.FailedStage), nullText(o.FailureReason),
		nullTime(o.StartedAt), nullTime(o.FinishedAt), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("record outcome %s/%s: %w", o.Kind, o.Name, err)
	}
	return nil
}

// ListOutcomes returns the most recently recorded outcomes. A non-empty runID
// restricts the result to that run.
func (s *Store) ListOutcomes(ctx context.Context, runID string, limit int) ([]Outcome, error) {
	ctx = ensureContext(ctx)
	query := `SELECT run_id, kind, name, state, stage_index, stage_count, failed_stage, failure_reason,
                     started_at, finished_at, recorded_at
              FROM run_outcomes`
	var args []any
	if runID = strings.TrimSpace(runID); runID != "" {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var (
			o                       Outcome
			kind, state             string
			failedStage, reason     sql.NullString
			startedRaw, finishedRaw sql.NullString
			recordedRaw             string
		)
		if err := rows.Scan(&o.RunID, &kind, &o.Name, &state, &o.StageIndex, &o.StageCount,
			&failedStage, &reason, &startedRaw, &finishedRaw, &recordedRaw); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Kind = definition.Kind(kind)
		o.State = definition.State(state)
		o.FailedStage = failedStage.String
		o.FailureReason = reason.String
		o.StartedAt = parseStoredTime(startedRaw.String)
		o.FinishedAt = parseStoredTime(finishedRaw.String)
		o.RecordedAt = parseStoredTime(recordedRaw)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return out, nil
}
