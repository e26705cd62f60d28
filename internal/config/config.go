package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrSampleExists is returned by WriteSample when the target already exists.
var ErrSampleExists = errors.New("config file already exists")

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and definition file locations.
type Paths struct {
	StateDir          string `toml:"state_dir"`
	LogDir            string `toml:"log_dir"`
	AlertDefinitions  string `toml:"alert_definitions"`
	ReportDefinitions string `toml:"report_definitions"`
}

// Dispatch controls how the worker pool is sized for each batch.
type Dispatch struct {
	// Pool is one of "per_definition", "fixed" or "bounded".
	Pool string `toml:"pool"`
	// Workers is the pool size for "fixed" and the cap for "bounded".
	Workers int `toml:"workers"`
	// StageTimeout bounds a single stage execution in seconds. Zero disables it.
	StageTimeout int `toml:"stage_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunSummary     bool   `toml:"run_summary"`
	Failures       bool   `toml:"failures"`
}

// API contains configuration for the read-only HTTP API.
type API struct {
	Bind string `toml:"bind"`
}

// Config encapsulates all configuration values for benchmgr.
//
// Configuration sections by subsystem:
//   - Paths: state directory, log directory and definition files
//   - Dispatch: worker pool sizing policy and stage timeout
//   - Logging: log format, level, and retention
//   - Notifications: ntfy push notification settings
//   - API: bind address for `benchmgr serve`
type Config struct {
	Paths         Paths         `toml:"paths"`
	Dispatch      Dispatch      `toml:"dispatch"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
	API           API           `toml:"api"`
}

// Source records which file a configuration was read from. Exists is false
// when no file was found and defaults were used; Path then names the
// location benchmgr would read.
type Source struct {
	Path   string
	Exists bool
}

// DefaultPath returns the per-user configuration file location.
func DefaultPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load reads the TOML file at path, or the first of the per-user and
// ./benchmgr.toml files that exists when path is empty. Missing files yield
// defaults. Unknown keys are rejected and the result is normalized and
// validated.
func Load(path string) (*Config, Source, error) {
	src, err := locate(path)
	if err != nil {
		return nil, Source{}, err
	}

	cfg := Default()
	if src.Exists {
		if err := decodeFile(src.Path, &cfg); err != nil {
			return nil, Source{}, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, Source{}, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, Source{}, err
	}
	return &cfg, src, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: %s", path, strings.TrimSpace(strict.String()))
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func locate(path string) (Source, error) {
	var candidates []string
	if path = strings.TrimSpace(path); path != "" {
		candidates = []string{path}
	} else {
		candidates = []string{defaultConfigPath, "benchmgr.toml"}
	}

	var first string
	for _, candidate := range candidates {
		abs, err := ExpandPath(candidate)
		if err != nil {
			return Source{}, err
		}
		if first == "" {
			first = abs
		}
		info, err := os.Stat(abs)
		switch {
		case err == nil && !info.IsDir():
			return Source{Path: abs, Exists: true}, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return Source{}, fmt.Errorf("stat config: %w", err)
		}
	}
	return Source{Path: first}, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath is the SQLite store inside the state directory.
func (c *Config) DatabasePath() string { return filepath.Join(c.Paths.StateDir, "benchmgr.db") }

// LockPath is the file locked for the duration of a run.
func (c *Config) LockPath() string { return filepath.Join(c.Paths.StateDir, "benchmgr.lock") }

// LogPath is the log file every command appends to.
func (c *Config) LogPath() string { return filepath.Join(c.Paths.LogDir, "benchmgr.log") }

// ExpandPath resolves a leading ~ against the home directory and returns an
// absolute, cleaned path. The empty string is returned unchanged.
func ExpandPath(p string) (string, error) {
	switch {
	case p == "":
		return "", nil
	case p == "~", strings.HasPrefix(p, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// WriteSample writes the annotated sample configuration to path. Without
// overwrite an existing file is left alone and ErrSampleExists returned.
func WriteSample(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w at %s", ErrSampleExists, path)
		}
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		f.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return f.Close()
}
