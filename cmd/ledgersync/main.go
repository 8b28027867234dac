package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"ledgersync/internal/processlock"
	"ledgersync/internal/scheduler"
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	switch {
	case err == nil, errors.Is(err, scheduler.ErrDailyRestart):
		// The daily self-restart is a clean exit; the process manager
		// relaunches with a fresh log context.
		os.Exit(0)
	case errors.Is(err, processlock.ErrHeldByLivePID):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	case errors.Is(err, context.Canceled):
		os.Exit(0)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
