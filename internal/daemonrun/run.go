// Package daemonrun bootstraps the daemon process: logging, the process
// lock, the stores, the notifier, and the scheduler loop.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ledgersync/internal/config"
	"ledgersync/internal/erp"
	"ledgersync/internal/history"
	"ledgersync/internal/logging"
	"ledgersync/internal/notifications"
	"ledgersync/internal/orchestrator"
	"ledgersync/internal/processlock"
	"ledgersync/internal/reader"
	"ledgersync/internal/recordstore"
	"ledgersync/internal/scheduler"
	"ledgersync/internal/transform"
	"ledgersync/internal/uploader"
)

// Options configures daemon runtime behavior.
type Options struct {
	LogLevel string
	// SingleCycle runs one cycle and returns instead of entering the loop.
	SingleCycle bool
}

// Run starts the daemon. It returns scheduler.ErrDailyRestart for the
// planned daily self-exit and processlock.ErrHeldByLivePID when another
// instance owns the lock; callers map those onto process exit codes.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	logPath := logging.RunLogPath(cfg.Paths.LogDir, start)
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Paths:  []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := logging.EnsureCurrentPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update ledgersync.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)

	logger.Info("ledgersync starting",
		logging.String("mode", cfg.Mode),
		logging.String("log", logPath),
	)

	lock, err := processlock.Acquire(cfg.LockPath(), logger)
	if err != nil {
		return err
	}
	defer lock.Release()

	sessions, err := erp.Factory()
	if err != nil {
		return fmt.Errorf("automation driver: %w", err)
	}

	records, err := recordstore.Open(cfg.RecordStorePath(), logger)
	if err != nil {
		return err
	}

	hist, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		return err
	}
	defer hist.Close()

	notifier := notifications.NewService(cfg, logger)
	orch := buildOrchestrator(cfg, sessions, records, hist, notifier, logger)

	if opts.SingleCycle {
		result := orch.RunCycle(signalCtx)
		if !result.Succeeded {
			return fmt.Errorf("cycle failed: %w", result.Err)
		}
		return nil
	}

	rotate := func() {
		logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)
	}
	sched := scheduler.New(cfg, orch, hist, notifier, logger, rotate)
	err = sched.Run(signalCtx)
	logger.Info("ledgersync shutting down")
	return err
}

func buildOrchestrator(
	cfg *config.Config,
	sessions erp.SessionFactory,
	records *recordstore.Store,
	hist *history.Store,
	notifier notifications.Service,
	logger *slog.Logger,
) *orchestrator.Orchestrator {
	screenshotDir := filepath.Join(cfg.Paths.LogDir, "screenshots")
	return orchestrator.New(
		sessions,
		reader.New(cfg.URLs.PaymentQuery, logger),
		uploader.New(cfg.URLs.DepositReport, cfg.TestMode(), screenshotDir, logger),
		transform.NewEngine(cfg.Ledger.AccountCode, logger),
		records,
		hist,
		notifier,
		logger,
		cfg.TestMode(),
	)
}
