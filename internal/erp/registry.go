package erp

import (
	"errors"
	"sync"
)

var (
	factoryMu sync.RWMutex
	factory   SessionFactory
)

// ErrNoDriver is returned when no automation driver has been registered.
var ErrNoDriver = errors.New("no automation driver registered")

// RegisterFactory installs the session factory used by the daemon. The
// concrete browser driver lives outside this module and registers itself at
// link time, the way database/sql drivers do.
func RegisterFactory(f SessionFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factory = f
}

// Factory returns the registered session factory.
func Factory() (SessionFactory, error) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	if factory == nil {
		return nil, ErrNoDriver
	}
	return factory, nil
}
