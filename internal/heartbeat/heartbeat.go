// Package heartbeat writes and inspects the liveness artifact shared between
// the scheduler and the watchdog process. The two processes share nothing
// but this file; the watchdog judges staleness by its last-write time.
package heartbeat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Write rewrites the heartbeat file wholesale: an ISO-8601 timestamp, the
// writing process id, and a textual statistics dump.
func Write(path string, stats string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure heartbeat directory: %w", err)
	}
	content := fmt.Sprintf("%s\nPID: %d\nStats: %s\n",
		time.Now().Format(time.RFC3339),
		os.Getpid(),
		stats,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write heartbeat: %w", err)
	}
	return nil
}

// Status is one observation of the heartbeat artifact.
type Status struct {
	LastWrite time.Time
	Content   string
}

// Read returns the artifact's last-write time and content. A missing or
// unreadable file is an error; the watchdog counts consecutive errors.
func Read(path string) (Status, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Status{}, fmt.Errorf("stat heartbeat: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Status{}, fmt.Errorf("read heartbeat: %w", err)
	}
	return Status{LastWrite: info.ModTime(), Content: string(data)}, nil
}

// Age returns how long ago the heartbeat was written, relative to now.
func (s Status) Age(now time.Time) time.Duration {
	return now.Sub(s.LastWrite)
}
