//go:build windows

package keepawake

import "golang.org/x/sys/windows"

const (
	esContinuous     = 0x80000000
	esSystemRequired = 0x00000001
)

var (
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	setThreadExecutionState = kernel32.NewProc("SetThreadExecutionState")
)

func platformSet(enable bool) error {
	state := uintptr(esContinuous)
	if enable {
		state |= esSystemRequired
	}
	ret, _, err := setThreadExecutionState.Call(state)
	if ret == 0 {
		return err
	}
	return nil
}
