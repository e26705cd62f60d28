package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanupOldLogs deletes *.log files directly under dir whose modification
// time is older than retentionDays. Paths in keep survive regardless of age.
// It returns the number of files removed; retentionDays <= 0 disables it.
func CleanupOldLogs(logger *slog.Logger, dir string, retentionDays int, keep ...string) int {
	dir = strings.TrimSpace(dir)
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	kept := make(map[string]struct{}, len(keep))
	for _, path := range keep {
		if abs, err := filepath.Abs(path); err == nil {
			kept[abs] = struct{}{}
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return 0
	}
	removed := 0
	for _, path := range matches {
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		if _, ok := kept[abs]; ok {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(abs); err != nil {
			WarnWithContext(logger, "could not remove expired log", "log_retention_failed",
				String("path", abs),
				Error(err),
				String(FieldErrorHint, "check ownership of paths.log_dir"),
				String(FieldImpact, "expired log stays on disk"),
			)
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Debug("expired logs removed",
			String(FieldEventType, "log_retention"),
			Int("removed", removed),
			Int("retention_days", retentionDays),
		)
	}
	return removed
}
