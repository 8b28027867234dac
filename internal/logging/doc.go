// Package logging constructs the process logger and provides the attribute
// helpers used across ledgersync. The logger is built once at startup and
// passed explicitly to every component; there is no package-level singleton.
package logging
