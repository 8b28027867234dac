// Package scheduler wraps the orchestrator in the unattended daily loop:
// work-hours gating, fixed-interval cycles, heartbeat ticks, the once-per-day
// summary, and the deliberate self-restart at date rollover.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ledgersync/internal/config"
	"ledgersync/internal/heartbeat"
	"ledgersync/internal/history"
	"ledgersync/internal/keepawake"
	"ledgersync/internal/logging"
	"ledgersync/internal/notifications"
	"ledgersync/internal/orchestrator"
)

// ErrDailyRestart signals the planned self-exit at date rollover. The
// process manager restarts the daemon with a fresh log and session context;
// callers map this to exit code 0.
var ErrDailyRestart = errors.New("daily restart requested")

// Scheduler owns the daemon loop around the orchestrator.
type Scheduler struct {
	cfg           *config.Config
	orch          *orchestrator.Orchestrator
	hist          *history.Store
	notifier      notifications.Service
	logger        *slog.Logger
	heartbeatPath string

	// rotate runs at cycle boundaries; the daemon wires log retention here.
	rotate func()
	// now and sleep are swapped in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool

	// summarySentDay is the yyyymmdd day whose summary already went out.
	// History totals survive the evening stat reset, so the send is guarded
	// by date rather than by the resettable counters.
	summarySentDay int
}

// New builds a scheduler. rotate may be nil.
func New(cfg *config.Config, orch *orchestrator.Orchestrator, hist *history.Store, notifier notifications.Service, logger *slog.Logger, rotate func()) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if rotate == nil {
		rotate = func() {}
	}
	return &Scheduler{
		cfg:           cfg,
		orch:          orch,
		hist:          hist,
		notifier:      notifier,
		logger:        logging.NewComponentLogger(logger, "scheduler"),
		heartbeatPath: cfg.HeartbeatPath(),
		rotate:        rotate,
		now:           time.Now,
		sleep:         sleepCtx,
	}
}

// Run drives the loop until the context is cancelled or the daily restart
// point is reached. Cycle failures never end the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := keepawake.Set(true); err != nil {
		s.logger.Warn("keep-awake not enabled", logging.Error(err))
	}
	defer func() {
		if err := keepawake.Set(false); err != nil {
			s.logger.Warn("keep-awake not restored", logging.Error(err))
		}
	}()

	startDay := dayOf(s.now())
	s.logger.Info("scheduler started",
		logging.Int("interval_minutes", s.cfg.Schedule.IntervalMinutes),
		logging.Bool("work_hours_gated", s.cfg.Schedule.Enabled),
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.writeHeartbeat()

		now := s.now()
		if dayOf(now) > startDay && clockOf(now) >= s.cfg.Schedule.WorkHours.Start {
			// Planned restart so each day runs with a fresh log/session.
			s.logger.Info("date rollover reached, restarting for the new day")
			return ErrDailyRestart
		}

		if clockOf(now) >= s.cfg.Schedule.SummaryTime && dayOf(now) != s.summarySentDay {
			s.sendDailySummary(ctx, now)
		}

		if IsWorkTime(s.cfg.Schedule, now) {
			s.orch.RunCycle(ctx)
			s.rotate()
			s.writeHeartbeat()
			interval := time.Duration(s.cfg.Schedule.IntervalMinutes) * time.Minute
			s.logger.Info("sleeping until next cycle", logging.Duration("interval", interval))
			if !s.sleep(ctx, interval) {
				return ctx.Err()
			}
			continue
		}

		s.resetForNextDay()
		offHours := time.Duration(s.cfg.Schedule.OffHoursSleepMinutes) * time.Minute
		s.logger.Info("outside work hours", logging.Duration("next_check", offHours))
		if !s.sleep(ctx, offHours) {
			return ctx.Err()
		}
	}
}

// sendDailySummary dispatches the summary exactly once per day. Totals come
// from the history store when available so cycles run before a mid-day
// restart are still counted; the in-memory stats are the fallback.
func (s *Scheduler) sendDailySummary(ctx context.Context, now time.Time) {
	running := s.orch.Running()
	summary := notifications.Summary{
		Date:          now.Format("2006-01-02"),
		Cycles:        running.Total,
		Success:       running.Success,
		Failure:       running.Failure,
		Uploaded:      running.Count,
		Cancellations: running.Cancellations,
	}
	if s.hist != nil {
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if totals, err := s.hist.TotalsSince(ctx, midnight); err == nil {
			summary.Cycles = totals.Cycles
			summary.Success = totals.Success
			summary.Failure = totals.Failure
			summary.Uploaded = totals.Uploaded
			summary.Cancellations = totals.Cancellations
		} else {
			s.logger.Warn("history totals unavailable, using in-memory stats", logging.Error(err))
		}
	}
	if summary.Cycles == 0 {
		return
	}

	s.logger.Info("sending daily summary", logging.Int("cycles", summary.Cycles))
	if err := s.notifier.NotifySummary(ctx, summary); err != nil {
		s.logger.Warn("daily summary not delivered", logging.Error(err))
		return
	}
	s.summarySentDay = dayOf(now)
}

// resetForNextDay clears the day's statistics once the loop is outside work
// hours. The summary guard is date-based and must not be re-armed here: the
// loop keeps passing the summary cutoff every off-hours tick until midnight.
func (s *Scheduler) resetForNextDay() {
	running := s.orch.Running()
	if running.Total == 0 {
		return
	}
	s.logger.Info("work day finished, resetting statistics",
		logging.Int("cycles", running.Total),
		logging.Int("uploaded", running.Count),
	)
	s.orch.ResetRunning()
}

func (s *Scheduler) writeHeartbeat() {
	running := s.orch.Running()
	stats := fmt.Sprintf("total=%d success=%d failure=%d uploaded=%d cancellations=%d",
		running.Total, running.Success, running.Failure, running.Count, running.Cancellations)
	if err := heartbeat.Write(s.heartbeatPath, stats); err != nil {
		s.logger.Warn("heartbeat not written", logging.Error(err))
	}
}

// IsWorkTime reports whether cycles should run at t. Gating disabled means
// always; Sundays are excluded; otherwise the HH:MM window is inclusive.
func IsWorkTime(schedule config.Schedule, t time.Time) bool {
	if !schedule.Enabled {
		return true
	}
	if t.Weekday() == time.Sunday {
		return false
	}
	clock := clockOf(t)
	return clock >= schedule.WorkHours.Start && clock <= schedule.WorkHours.End
}

func clockOf(t time.Time) string {
	return t.Format("15:04")
}

func dayOf(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
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
