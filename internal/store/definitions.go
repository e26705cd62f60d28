package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"benchmgr/internal/definition"
)

// Upsert inserts or replaces the definition record keyed by (kind, name).
// Re-running with the same record leaves exactly one row.
func (s *Store) Upsert(ctx context.Context, rec definition.Record) error {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return fmt.Errorf("upsert %s definition: name is required", rec.Kind)
	}
	if _, ok := definition.ParseKind(string(rec.Kind)); !ok {
		return fmt.Errorf("upsert definition %q: unknown kind %q", name, rec.Kind)
	}
	fields := rec.Fields
	if fields == nil {
		fields = map[string][]string{}
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode fields for %s/%s: %w", rec.Kind, name, err)
	}
	now := formatTime(time.Now())
	_, err = s.exec(ctx,
		`INSERT INTO definitions (kind, name, fields_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(kind, name) DO UPDATE SET
             fields_json = excluded.fields_json,
             updated_at = excluded.updated_at`,
		string(rec.Kind), name, string(payload), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", rec.Kind, name, err)
	}
	return nil
}

// LoadAll returns every stored record of the kind ordered by name.
func (s *Store) LoadAll(ctx context.Context, kind definition.Kind) ([]definition.Record, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, fields_json FROM definitions WHERE kind = ? ORDER BY name`,
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("load %s definitions: %w", kind, err)
	}
	defer rows.Close()

	var records []definition.Record
	for rows.Next() {
		var (
			name    string
			payload string
		)
		if err := rows.Scan(&name, &payload); err != nil {
			return nil, fmt.Errorf("scan %s definition: %w", kind, err)
		}
		fields := map[string][]string{}
		if err := json.Unmarshal([]byte(payload), &fields); err != nil {
			return nil, fmt.Errorf("decode fields for %s/%s: %w", kind, name, err)
		}
		records = append(records, definition.Record{Kind: kind, Name: name, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s definitions: %w", kind, err)
	}
	return records, nil
}

// Delete removes a stored definition. It reports whether a row existed.
func (s *Store) Delete(ctx context.Context, kind definition.Kind, name string) (bool, error) {
	res, err := s.exec(ctx,
		`DELETE FROM definitions WHERE kind = ? AND name = ?`,
		string(kind), strings.TrimSpace(name),
	)
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", kind, name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s/%s rows affected: %w", kind, name, err)
	}
	return affected > 0, nil
}
