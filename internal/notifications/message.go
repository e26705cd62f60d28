package notifications

import (
	"fmt"
	"strings"
	"time"
)

// Event classifies a message so delivery can honour per-event toggles.
type Event int

const (
	EventRunCompleted Event = iota
	EventDefinitionFailed
	EventError
	EventTest
)

// Message is one push notification. Priority is an ntfy priority name;
// empty means the server default.
type Message struct {
	Event    Event
	Title    string
	Body     string
	Tags     []string
	Priority string
}

// RunSummary describes one finished dispatch of a kind.
type RunSummary struct {
	RunID     string
	Kind      string
	Completed int
	Failed    int
	Duration  time.Duration
}

// RunCompleted summarizes a finished dispatch.
func RunCompleted(s RunSummary) Message {
	kind := strings.TrimSpace(s.Kind)
	if kind == "" {
		kind = "definition"
	}
	took := max(s.Duration.Round(time.Second), 0)

	msg := Message{
		Event: EventRunCompleted,
		Title: fmt.Sprintf("benchmgr - %s run complete", kind),
		Body:  fmt.Sprintf("%d %s definition(s) completed in %s", s.Completed, kind, took),
		Tags:  []string{"benchmgr", kind, "completed"},
	}
	if s.Failed > 0 {
		msg.Title += " (with failures)"
		msg.Body = fmt.Sprintf("%d completed, %d failed in %s", s.Completed, s.Failed, took)
	}
	if s.RunID != "" {
		msg.Body += "\nRun: " + s.RunID
	}
	return msg
}

// DefinitionFailed reports one definition that ended in the failed state.
func DefinitionFailed(kind, name, stage, reason string) Message {
	kind = strings.TrimSpace(kind)
	body := []string{kind + " " + strings.TrimSpace(name) + " failed"}
	if stage = strings.TrimSpace(stage); stage != "" {
		body = append(body, " at "+stage)
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		body = append(body, ": "+reason)
	}
	return Message{
		Event:    EventDefinitionFailed,
		Title:    "benchmgr - Definition Failed",
		Body:     strings.Join(body, ""),
		Tags:     []string{"benchmgr", "failed", kind},
		Priority: "high",
	}
}

// Failure reports an error that aborted work. during names what was being
// attempted and may be empty.
func Failure(err error, during string) Message {
	cause := "unknown"
	if err != nil {
		cause = strings.TrimSpace(err.Error())
	}
	body := "Error: " + cause
	if during = strings.TrimSpace(during); during != "" {
		body = "Error during " + during + ": " + cause
	}
	return Message{
		Event:    EventError,
		Title:    "benchmgr - Error",
		Body:     body,
		Tags:     []string{"benchmgr", "error"},
		Priority: "high",
	}
}

// Test is the message sent by `benchmgr test-notify`.
func Test() Message {
	return Message{
		Event:    EventTest,
		Title:    "benchmgr - Test",
		Body:     "Notification system test",
		Tags:     []string{"benchmgr", "test"},
		Priority: "low",
	}
}
