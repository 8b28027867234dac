// Package watchdog implements the independent monitor process that restarts
// a stalled daemon. It shares no memory with the daemon, only the heartbeat
// and lock artifacts on disk.
package watchdog

import (
	"context"
	"log/slog"
	"time"

	"ledgersync/internal/heartbeat"
	"ledgersync/internal/logging"
)

// maxReadFailures is how many consecutive heartbeat read failures are
// tolerated before escalating to a restart.
const maxReadFailures = 3

type action int

const (
	actionNone action = iota
	actionRestart
)

// Monitor polls the heartbeat artifact and escalates to a forced restart
// when the daemon looks stalled.
type Monitor struct {
	heartbeatPath string
	checkInterval time.Duration
	staleAfter    time.Duration
	cooldown      time.Duration
	restarter     Restarter
	logger        *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool

	readFailures int
}

// Restarter force-terminates the daemon and launches a fresh instance.
type Restarter interface {
	Restart(ctx context.Context) error
}

// New builds a monitor with the given thresholds.
func New(heartbeatPath string, checkInterval, staleAfter, cooldown time.Duration, restarter Restarter, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Monitor{
		heartbeatPath: heartbeatPath,
		checkInterval: checkInterval,
		staleAfter:    staleAfter,
		cooldown:      cooldown,
		restarter:     restarter,
		logger:        logging.NewComponentLogger(logger, "watchdog"),
		now:           time.Now,
		sleep:         sleepCtx,
	}
}

// Run polls until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("watchdog started",
		logging.Duration("check_interval", m.checkInterval),
		logging.Duration("stale_after", m.staleAfter),
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if m.check(ctx) == actionRestart {
			m.restart(ctx)
			// Cool down after any restart action so the relaunched daemon
			// has time to produce its first heartbeat.
			if !m.sleep(ctx, m.cooldown) {
				return ctx.Err()
			}
		}

		if !m.sleep(ctx, m.checkInterval) {
			return ctx.Err()
		}
	}
}

// check performs one poll and decides whether to escalate.
func (m *Monitor) check(_ context.Context) action {
	status, err := heartbeat.Read(m.heartbeatPath)
	if err != nil {
		m.readFailures++
		m.logger.Warn("heartbeat unreadable",
			logging.Int("consecutive", m.readFailures),
			logging.Error(err),
		)
		if m.readFailures >= maxReadFailures {
			m.readFailures = 0
			return actionRestart
		}
		return actionNone
	}

	m.readFailures = 0
	age := status.Age(m.now())
	if age > m.staleAfter {
		m.logger.Error("heartbeat stale, daemon presumed stalled",
			logging.Duration("age", age),
			logging.String("last_content", status.Content),
		)
		return actionRestart
	}

	m.logger.Info("daemon healthy", logging.Duration("heartbeat_age", age))
	return actionNone
}

func (m *Monitor) restart(ctx context.Context) {
	m.logger.Warn("forcing daemon restart")
	if err := m.restarter.Restart(ctx); err != nil {
		m.logger.Error("daemon restart failed", logging.Error(err))
		return
	}
	m.logger.Info("daemon restarted")
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
