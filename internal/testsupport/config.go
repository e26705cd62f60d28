package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"benchmgr/internal/config"
)

// ConfigOption adjusts a test configuration. base is the per-test temp
// directory holding the state, log and definitions directories.
type ConfigOption func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns a config rooted in a fresh temp directory with
// notifications disabled and the API bound to an ephemeral port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		StateDir:          filepath.Join(base, "state"),
		LogDir:            filepath.Join(base, "logs"),
		AlertDefinitions:  filepath.Join(base, "definitions", "alerts.toml"),
		ReportDefinitions: filepath.Join(base, "definitions", "reports.toml"),
	}
	cfg.Notifications.NtfyTopic = ""
	cfg.API.Bind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithPool sets the dispatch pool policy and worker count.
func WithPool(pool string, workers int) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Dispatch.Pool = pool
		cfg.Dispatch.Workers = workers
	}
}

// WithAlertDefinitions writes an alert definitions file and points the
// config at it.
func WithAlertDefinitions(name, contents string) ConfigOption {
	return func(t testing.TB, base string, cfg *config.Config) {
		cfg.Paths.AlertDefinitions = writeDefinitions(t, base, name, contents)
	}
}

// WithReportDefinitions writes a report definitions file and points the
// config at it.
func WithReportDefinitions(name, contents string) ConfigOption {
	return func(t testing.TB, base string, cfg *config.Config) {
		cfg.Paths.ReportDefinitions = writeDefinitions(t, base, name, contents)
	}
}

func writeDefinitions(t testing.TB, base, name, contents string) string {
	t.Helper()
	path := filepath.Join(base, "definitions", name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
