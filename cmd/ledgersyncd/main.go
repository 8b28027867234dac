// ledgersyncd is the daemon entry point for process managers. It is
// equivalent to "ledgersync daemon" and uses the same exit-code contract:
// 0 for the daily self-restart or clean shutdown, 1 when the process lock
// is held by a live instance.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"ledgersync/internal/config"
	"ledgersync/internal/daemonrun"
	"ledgersync/internal/processlock"
	"ledgersync/internal/scheduler"
)

func main() {
	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	err = daemonrun.Run(context.Background(), cfg, daemonrun.Options{})
	switch {
	case err == nil, errors.Is(err, scheduler.ErrDailyRestart), errors.Is(err, context.Canceled):
		os.Exit(0)
	case errors.Is(err, processlock.ErrHeldByLivePID):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
