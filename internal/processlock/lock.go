// Package processlock guarantees single-instance execution through a lock
// artifact holding the owning process id. Acquisition is guarded by an OS
// file lock so the stale-check and the rewrite cannot race a second starter.
package processlock

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"ledgersync/internal/logging"
)

// ErrHeldByLivePID is returned when the artifact names a process that is
// still alive. Callers treat this as fatal at startup.
var ErrHeldByLivePID = errors.New("another instance is already running")

// Lock is an acquired process lock. Release is safe to call multiple times;
// the artifact is removed exactly once.
type Lock struct {
	path    string
	guard   *flock.Flock
	logger  *slog.Logger
	release sync.Once
}

// Acquire takes the process lock at path. An artifact naming a live process
// refuses acquisition; one naming a dead process or holding garbage is
// removed and replaced.
func Acquire(path string, logger *slog.Logger) (*Lock, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "processlock")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}

	guard := flock.New(path + ".guard")
	ok, err := guard.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock guard: %w", err)
	}
	if !ok {
		return nil, ErrHeldByLivePID
	}

	data, readErr := os.ReadFile(path)
	if readErr == nil {
		owner, parseErr := strconv.Atoi(strings.TrimSpace(string(data)))
		switch {
		case parseErr != nil:
			logger.Warn("lock artifact unreadable, removing",
				logging.String("path", path),
				logging.Error(parseErr),
			)
		case pidAlive(owner):
			_ = guard.Unlock()
			logger.Error("lock held by live process", logging.Int("pid", owner))
			return nil, fmt.Errorf("%w (pid %d)", ErrHeldByLivePID, owner)
		default:
			logger.Warn("stale lock from dead process, removing", logging.Int("pid", owner))
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			_ = guard.Unlock()
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	} else if !os.IsNotExist(readErr) {
		_ = guard.Unlock()
		return nil, fmt.Errorf("read lock artifact: %w", readErr)
	}

	pid := os.Getpid()
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		_ = guard.Unlock()
		return nil, fmt.Errorf("write lock artifact: %w", err)
	}

	logger.Info("process lock acquired", logging.Int("pid", pid), logging.String("path", path))
	return &Lock{path: path, guard: guard, logger: logger}, nil
}

// Release removes the lock artifact and drops the guard. Subsequent calls
// are no-ops.
func (l *Lock) Release() {
	l.release.Do(func() {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			l.logger.Warn("lock artifact not removed", logging.Error(err))
		}
		if err := l.guard.Unlock(); err != nil {
			l.logger.Warn("lock guard not released", logging.Error(err))
		}
		_ = os.Remove(l.guard.Path())
		l.logger.Info("process lock released")
	})
}

// OwnerPID reads the process id recorded in the lock artifact at path.
func OwnerPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse lock artifact: %w", err)
	}
	return pid, nil
}
