//go:build !windows

package keepawake

func platformSet(bool) error { return nil }
