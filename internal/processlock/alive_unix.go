//go:build !windows

package processlock

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

// pidAlive probes a process with signal 0. EPERM means the process exists
// but belongs to another user, which still counts as alive.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, unix.EPERM)
}
