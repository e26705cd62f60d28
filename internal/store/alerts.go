package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// AlertRecord is one triggered alert. The combination of test, label,
// version, platform, transform, alert name, trigger date and thread count is
// unique.
type AlertRecord struct {
	Test        string
	Label       string
	Version     string
	Platform    string
	Transform   string
	AlertName   string
	TriggerDate time.Time
	ThreadCount int
	Comparator  string
	Threshold   float64
	Value       float64
	UpdatedAt   time.Time
}

// AlertFilter narrows ListAlertHistory. Empty fields match everything.
type AlertFilter struct {
	AlertName string
	Test      string
	Limit     int
}

// UpsertAlertHistory stores triggered alerts. An alert that already exists for
// the same identity and trigger date is overwritten with the latest value.
func (s *Store) UpsertAlertHistory(ctx context.Context, alerts []AlertRecord) error {
	ctx = ensureContext(ctx)
	if len(alerts) == 0 {
		return nil
	}
	return s.retry.do(ctx, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			return upsertAlerts(ctx, tx, alerts)
		})
	})
}

func upsertAlerts(ctx context.Context, tx *sql.Tx, alerts []AlertRecord) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO alert_history
            (test, label, version, platform, transform, alert_name, trigger_date, thread_count, comparator, threshold, value, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(test, label, version, platform, transform, alert_name, trigger_date, thread_count) DO UPDATE SET
            comparator = excluded.comparator,
            threshold = excluded.threshold,
            value = excluded.value,
            updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare alert upsert: %w", err)
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	for _, a := range alerts {
		if strings.TrimSpace(a.AlertName) == "" {
			return fmt.Errorf("alert for %s/%s: alert name is required", a.Test, a.Label)
		}
		if _, err := stmt.ExecContext(ctx,
			a.Test, a.Label, a.Version, a.Platform, a.Transform, a.AlertName,
			a.TriggerDate.UTC().Format(dateLayout), a.ThreadCount,
			a.Comparator, a.Threshold, a.Value, now,
		); err != nil {
			return fmt.Errorf("upsert alert %s: %w", a.AlertName, err)
		}
	}
	return nil
}

// ListAlertHistory returns stored alerts, most recent trigger date first.
func (s *Store) ListAlertHistory(ctx context.Context, filter AlertFilter) ([]AlertRecord, error) {
	ctx = ensureContext(ctx)
	var (
		clauses []string
		args    []any
	)
	if name := strings.TrimSpace(filter.AlertName); name != "" {
		clauses = append(clauses, "alert_name = ?")
		args = append(args, name)
	}
	if test := strings.TrimSpace(filter.Test); test != "" {
		clauses = append(clauses, "test = ?")
		args = append(args, test)
	}
	query := `SELECT test, label, version, platform, transform, alert_name, trigger_date,
                     thread_count, comparator, threshold, value, updated_at
              FROM alert_history`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY trigger_date DESC, alert_name, test, label, thread_count"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alert history: %w", err)
	}
	defer rows.Close()

	var out []AlertRecord
	for rows.Next() {
		var (
			a          AlertRecord
			triggerRaw string
			updatedRaw string
		)
		if err := rows.Scan(&a.Test, &a.Label, &a.Version, &a.Platform, &a.Transform, &a.AlertName,
			&triggerRaw, &a.ThreadCount, &a.Comparator, &a.Threshold, &a.Value, &updatedRaw); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		if t, err := time.Parse(dateLayout, triggerRaw); err == nil {
			a.TriggerDate = t
		}
		a.UpdatedAt = parseStoredTime(updatedRaw)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}
