package logging_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"benchmgr/internal/config"
	"benchmgr/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Warn("hello from test")

	content, err := os.ReadFile(cfg.LogPath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleOrdersContextFieldsFirst(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "dispatch")

	ctx := logging.WithRunID(context.Background(), "run-1")
	ctx = logging.WithDefinition(ctx, "alert", "gt")
	ctx = logging.WithStage(ctx, "pull data")
	logger.InfoContext(ctx, "stage completed", logging.Int("rows", 3), logging.Error(nil))

	line := buf.String()
	want := `[dispatch] stage completed run_id=run-1 kind=alert definition=gt stage="pull data" rows=3`
	if !strings.Contains(line, want) {
		t.Fatalf("expected %q in %q", want, line)
	}
	if strings.Contains(line, "error=") {
		t.Fatalf("nil error should be dropped: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should render in brackets only: %q", line)
	}
}

func TestConsoleIncludesCallerOnlyForDebug(t *testing.T) {
	for _, tc := range []struct {
		level      string
		wantCaller bool
	}{
		{"info", false},
		{"debug", true},
	} {
		t.Run(tc.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := logging.New(logging.Options{Level: tc.level, Console: &buf})
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			logger.Info("message")
			if got := strings.Contains(buf.String(), ".go:"); got != tc.wantCaller {
				t.Fatalf("caller present=%v, want %v: %q", got, tc.wantCaller, buf.String())
			}
		})
	}
}

func TestJSONCarriesContextFieldsOnce(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", File: logPath})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithRunID(context.Background(), "run-1")
	ctx = logging.WithDefinition(ctx, "alert", "insert-regression")
	ctx = logging.WithStage(ctx, "pull data")
	logging.WithContext(ctx, logger).InfoContext(ctx, "stage started")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	for _, want := range []string{`"run_id":"run-1"`, `"kind":"alert"`, `"definition":"insert-regression"`, `"stage":"pull data"`, `"msg":"stage started"`, `"level":"info"`} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %s in %q", want, text)
		}
	}
	if n := strings.Count(text, `"run_id"`); n != 1 {
		t.Fatalf("expected run_id once, found %d in %q", n, text)
	}
}

func TestNewRejectsUnknownFormatAndLevel(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Console: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if _, err := logging.New(logging.Options{Level: "loud", Console: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unsupported level")
	}
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "slow store", "store_slow", logging.String(logging.FieldImpact, "run delayed"))

	line := buf.String()
	for _, want := range []string{"event_type=store_slow", `impact="run delayed"`, `error_hint="check logs for details"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %q", want, line)
		}
	}
}

func TestCleanupOldLogsPrunesExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.log")
	keptPath := filepath.Join(dir, "benchmgr.log")
	freshPath := filepath.Join(dir, "fresh.log")
	otherPath := filepath.Join(dir, "notes.txt")
	for _, p := range []string{oldPath, keptPath, freshPath, otherPath} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, p := range []string{oldPath, keptPath, otherPath} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if removed := logging.CleanupOldLogs(logging.NewNop(), dir, 5, keptPath); removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	for _, p := range []string{keptPath, freshPath, otherPath} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
	if removed := logging.CleanupOldLogs(nil, dir, 0); removed != 0 {
		t.Fatalf("retention 0 must be a no-op, removed %d", removed)
	}
}
