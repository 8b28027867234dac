package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunLogPath returns the per-run log file path for the given start time.
// Each daemon run writes its own file; EnsureCurrentPointer keeps a stable
// name pointing at the active one.
func RunLogPath(logDir string, start time.Time) string {
	return filepath.Join(logDir, fmt.Sprintf("ledgersync-%s.log", start.UTC().Format("20060102T150405Z")))
}

// EnsureCurrentPointer links logDir/ledgersync.log at target so tail -F style
// tooling survives the daily self-restart.
func EnsureCurrentPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "ledgersync.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

// CleanupOldLogs removes ledgersync-*.log files older than retentionDays.
// A retentionDays value of 0 disables pruning. The active log file is never
// removed.
func CleanupOldLogs(logger *slog.Logger, logDir string, retentionDays int, activePath string) {
	if retentionDays <= 0 || strings.TrimSpace(logDir) == "" {
		return
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}
	activeAbs, _ := filepath.Abs(activePath)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matched, err := filepath.Match("ledgersync-*.log", entry.Name())
		if err != nil || !matched {
			continue
		}
		fullPath := filepath.Join(logDir, entry.Name())
		if abs, err := filepath.Abs(fullPath); err == nil && abs == activeAbs {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(fullPath); err != nil {
			logger.Warn("log retention remove failed; file remains",
				String(FieldEventType, "log_retention_failed"),
				String("path", fullPath),
				Error(err),
			)
		}
	}
}
