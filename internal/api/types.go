package api

import (
	"time"

	"benchmgr/internal/definition"
	"benchmgr/internal/stage"
	"benchmgr/internal/store"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Outcome is the transport form of a recorded definition outcome.
type Outcome struct {
	RunID         string `json:"runId"`
	Kind          string `json:"kind"`
	Name          string `json:"name"`
	State         string `json:"state"`
	StageIndex    int    `json:"stageIndex"`
	StageCount    int    `json:"stageCount"`
	FailedStage   string `json:"failedStage,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
	StartedAt     string `json:"startedAt,omitempty"`
	FinishedAt    string `json:"finishedAt,omitempty"`
	DurationMS    int64  `json:"durationMs"`
}

// Definition is the transport form of a stored definition.
type Definition struct {
	Kind     string              `json:"kind"`
	Name     string              `json:"name"`
	Pipeline []string            `json:"pipeline"`
	Fields   map[string][]string `json:"fields"`
}

// Alert is the transport form of an alert history entry.
type Alert struct {
	AlertName   string  `json:"alertName"`
	Test        string  `json:"test"`
	Label       string  `json:"label"`
	Version     string  `json:"version,omitempty"`
	Platform    string  `json:"platform,omitempty"`
	Transform   string  `json:"transform"`
	TriggerDate string  `json:"triggerDate"`
	ThreadCount int     `json:"threadCount"`
	Comparator  string  `json:"comparator"`
	Threshold   float64 `json:"threshold"`
	Value       float64 `json:"value"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse is returned by /api/health.
type HealthResponse struct {
	OK          bool          `json:"ok"`
	Database    string        `json:"database"`
	StoreError  string        `json:"storeError,omitempty"`
	StageHealth []StageHealth `json:"stageHealth"`
}

// OutcomeListResponse is returned by /api/runs.
type OutcomeListResponse struct {
	Outcomes []Outcome `json:"outcomes"`
}

// DefinitionListResponse is returned by /api/definitions/{kind}.
type DefinitionListResponse struct {
	Definitions []Definition `json:"definitions"`
}

// AlertListResponse is returned by /api/alerts.
type AlertListResponse struct {
	Alerts []Alert `json:"alerts"`
}

// ErrorResponse wraps API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromOutcome converts a stored outcome.
func FromOutcome(o store.Outcome) Outcome {
	out := Outcome{
		RunID:         o.RunID,
		Kind:          o.Kind.String(),
		Name:          o.Name,
		State:         o.State.String(),
		StageIndex:    o.StageIndex,
		StageCount:    o.StageCount,
		FailedStage:   o.FailedStage,
		FailureReason: o.FailureReason,
		StartedAt:     formatTime(o.StartedAt),
		FinishedAt:    formatTime(o.FinishedAt),
	}
	if !o.StartedAt.IsZero() && !o.FinishedAt.IsZero() {
		out.DurationMS = o.FinishedAt.Sub(o.StartedAt).Milliseconds()
	}
	return out
}

// FromRecord converts a stored definition record.
func FromRecord(rec definition.Record) Definition {
	fields := rec.Fields
	if fields == nil {
		fields = map[string][]string{}
	}
	return Definition{
		Kind:     rec.Kind.String(),
		Name:     rec.Name,
		Pipeline: rec.Kind.Pipeline(),
		Fields:   fields,
	}
}

// FromAlert converts an alert history entry.
func FromAlert(a store.AlertRecord) Alert {
	return Alert{
		AlertName:   a.AlertName,
		Test:        a.Test,
		Label:       a.Label,
		Version:     a.Version,
		Platform:    a.Platform,
		Transform:   a.Transform,
		TriggerDate: a.TriggerDate.Format("2006-01-02"),
		ThreadCount: a.ThreadCount,
		Comparator:  a.Comparator,
		Threshold:   a.Threshold,
		Value:       a.Value,
	}
}

// StageHealthFor flattens registry health for the given kinds.
func StageHealthFor(kind definition.Kind, health []stage.Health) []StageHealth {
	out := make([]StageHealth, 0, len(health))
	for _, h := range health {
		out = append(out, StageHealth{Kind: kind.String(), Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
