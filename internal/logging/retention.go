package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RetentionTarget names a directory and filename glob whose files expire.
// Paths in Exclude, typically the log of the current run, are never removed.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldLogs removes files matching the targets whose modification time
// is more than retentionDays in the past. Zero disables pruning. Failures are
// logged and skipped.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) {
	if retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	for _, target := range targets {
		if target.Dir == "" {
			continue
		}
		keep := make(map[string]struct{}, len(target.Exclude))
		for _, path := range target.Exclude {
			keep[absPath(path)] = struct{}{}
		}

		pattern := target.Pattern
		if pattern == "" {
			pattern = "*"
		}
		matches, err := filepath.Glob(filepath.Join(target.Dir, pattern))
		if err != nil {
			continue
		}
		for _, path := range matches {
			path = absPath(path)
			if _, skip := keep[path]; skip {
				continue
			}
			info, err := os.Stat(path)
			if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil {
				WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
					String(FieldFile, path),
					Error(err),
					String(FieldErrorHint, "check file permissions on paths.log_dir"),
				)
				continue
			}
			if logger != nil {
				logger.Debug("log pruned", String(FieldFile, path), String(FieldEventType, "log_pruned"))
			}
		}
	}
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
