package watchdog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"ledgersync/internal/logging"
	"ledgersync/internal/processlock"
)

// ProcessRestarter kills the daemon recorded in the lock artifact and
// launches a replacement command.
type ProcessRestarter struct {
	lockPath string
	command  []string
	logger   *slog.Logger

	// settle separates the kill from the relaunch so the old process can
	// drop its lock artifact.
	settle time.Duration
}

// NewProcessRestarter builds a restarter relaunching command (argv form).
func NewProcessRestarter(lockPath string, command []string, logger *slog.Logger) *ProcessRestarter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ProcessRestarter{
		lockPath: lockPath,
		command:  command,
		logger:   logging.NewComponentLogger(logger, "watchdog"),
		settle:   5 * time.Second,
	}
}

// Restart force-kills the lock owner (when one is recorded) and starts a
// fresh daemon. A missing lock artifact is not an error; the daemon may have
// died outright.
func (r *ProcessRestarter) Restart(ctx context.Context) error {
	if pid, err := processlock.OwnerPID(r.lockPath); err == nil {
		if proc, findErr := os.FindProcess(pid); findErr == nil {
			if killErr := proc.Kill(); killErr != nil {
				r.logger.Warn("kill failed, process may already be gone",
					logging.Int("pid", pid),
					logging.Error(killErr),
				)
			} else {
				r.logger.Info("stalled daemon killed", logging.Int("pid", pid))
			}
		}
		// The killed process cannot clean up its artifact.
		if rmErr := os.Remove(r.lockPath); rmErr != nil && !os.IsNotExist(rmErr) {
			r.logger.Warn("stale lock artifact not removed", logging.Error(rmErr))
		}
	} else if !os.IsNotExist(err) {
		r.logger.Warn("lock artifact unreadable", logging.Error(err))
	}

	select {
	case <-time.After(r.settle):
	case <-ctx.Done():
		return ctx.Err()
	}

	if len(r.command) == 0 {
		return fmt.Errorf("no relaunch command configured")
	}
	cmd := exec.Command(r.command[0], r.command[1:]...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	r.logger.Info("daemon launched", logging.Int("pid", cmd.Process.Pid))
	// The daemon outlives the watchdog's interest in it.
	return cmd.Process.Release()
}
