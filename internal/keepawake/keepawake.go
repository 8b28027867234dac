// Package keepawake prevents the host from entering sleep while the daemon
// is processing. Platforms without a suspend-inhibit API get a no-op
// implementation; the scheduler calls Set unconditionally either way.
package keepawake

import "sync"

var mu sync.Mutex
var active bool

// Set enables or disables the system sleep inhibitor. Repeated calls with
// the same value are no-ops.
func Set(enable bool) error {
	mu.Lock()
	defer mu.Unlock()
	if active == enable {
		return nil
	}
	if err := platformSet(enable); err != nil {
		return err
	}
	active = enable
	return nil
}
