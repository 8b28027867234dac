package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"ledgersync/internal/config"
	"ledgersync/internal/erp"
	"ledgersync/internal/history"
	"ledgersync/internal/notifications"
	"ledgersync/internal/orchestrator"
	"ledgersync/internal/reader"
	"ledgersync/internal/recordstore"
	"ledgersync/internal/testsupport"
	"ledgersync/internal/transform"
	"ledgersync/internal/uploader"
)

type summaryRecorder struct {
	mu        sync.Mutex
	summaries []notifications.Summary
	errors    int
}

func (r *summaryRecorder) NotifyError(context.Context, string, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors++
	return nil
}

func (r *summaryRecorder) NotifySummary(_ context.Context, summary notifications.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, summary)
	return nil
}

func (r *summaryRecorder) TestNotification(context.Context) error { return nil }

func (r *summaryRecorder) summaryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.summaries)
}

func emptyDriver() *testsupport.FakeDriver {
	return &testsupport.FakeDriver{
		Columns: map[string][]string{
			erp.ColumnRequestTimestamp: {"Request Time"},
		},
	}
}

func newTestScheduler(t *testing.T, drv *testsupport.FakeDriver) (*Scheduler, *config.Config, *summaryRecorder) {
	t.Helper()
	return newTestSchedulerWithHistory(t, drv, nil)
}

func newTestSchedulerWithHistory(t *testing.T, drv *testsupport.FakeDriver, hist *history.Store) (*Scheduler, *config.Config, *summaryRecorder) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	records, err := recordstore.Open(cfg.RecordStorePath(), nil)
	if err != nil {
		t.Fatalf("open record store: %v", err)
	}
	notifier := &summaryRecorder{}
	orch := orchestrator.New(
		&testsupport.FakeSessionFactory{Driver: drv},
		reader.New(cfg.URLs.PaymentQuery, nil),
		uploader.New(cfg.URLs.DepositReport, cfg.TestMode(), "", nil),
		transform.NewEngine(cfg.Ledger.AccountCode, nil),
		records,
		hist,
		notifier,
		nil,
		cfg.TestMode(),
	)
	return New(cfg, orch, hist, notifier, nil, nil), cfg, notifier
}

func at(clock string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2026-01-05 "+clock)
	if err != nil {
		panic(err)
	}
	return t
}

func TestIsWorkTime(t *testing.T) {
	schedule := config.Schedule{
		Enabled:   true,
		WorkHours: config.WorkHours{Start: "06:00", End: "18:00"},
	}

	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"before window", at("05:59"), false},
		{"window start", at("06:00"), true},
		{"mid morning", at("10:30"), true},
		{"window end", at("18:00"), true},
		{"after window", at("18:01"), false},
		// 2026-01-04 is a Sunday.
		{"sunday midday", time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsWorkTime(schedule, tc.t); got != tc.want {
				t.Fatalf("IsWorkTime(%s) = %v, want %v", tc.t, got, tc.want)
			}
		})
	}

	schedule.Enabled = false
	if !IsWorkTime(schedule, time.Date(2026, 1, 4, 3, 0, 0, 0, time.UTC)) {
		t.Fatalf("gating disabled must allow any time")
	}
}

func TestRunReturnsOnContextCancel(t *testing.T) {
	sched, _, _ := newTestScheduler(t, emptyDriver())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sched.Run(ctx); err != context.Canceled {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
}

func TestRunRequestsDailyRestartAfterRollover(t *testing.T) {
	sched, _, _ := newTestScheduler(t, emptyDriver())

	clock := at("10:00")
	sched.now = func() time.Time { return clock }
	sched.sleep = func(_ context.Context, _ time.Duration) bool {
		// The next wakeup lands on the following work day.
		clock = clock.Add(24 * time.Hour)
		return true
	}

	if err := sched.Run(context.Background()); err != ErrDailyRestart {
		t.Fatalf("Run = %v, want ErrDailyRestart", err)
	}
}

func TestRunNoRestartBeforeWorkStart(t *testing.T) {
	sched, _, _ := newTestScheduler(t, emptyDriver())

	clock := at("23:50")
	sleeps := 0
	ctx, cancel := context.WithCancel(context.Background())
	sched.now = func() time.Time { return clock }
	sched.sleep = func(_ context.Context, _ time.Duration) bool {
		// Crosses midnight but stays before the work window start, so the
		// loop keeps waiting instead of restarting.
		clock = clock.Add(10 * time.Minute)
		sleeps++
		if sleeps >= 3 {
			cancel()
			return false
		}
		return true
	}

	if err := sched.Run(ctx); err != context.Canceled {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if sleeps != 3 {
		t.Fatalf("sleeps = %d, want 3", sleeps)
	}
}

func TestRunExecutesCyclesAndWritesHeartbeat(t *testing.T) {
	drv := emptyDriver()
	sched, cfg, _ := newTestScheduler(t, drv)

	clock := at("10:00")
	ctx, cancel := context.WithCancel(context.Background())
	sched.now = func() time.Time { return clock }
	sched.sleep = func(_ context.Context, _ time.Duration) bool {
		cancel()
		return false
	}

	if err := sched.Run(ctx); err != context.Canceled {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if len(drv.Navigations) == 0 {
		t.Fatalf("no cycle executed during work hours")
	}
	if _, err := os.Stat(cfg.HeartbeatPath()); err != nil {
		t.Fatalf("heartbeat file not written: %v", err)
	}
}

func TestRunSkipsCyclesOutsideWorkHours(t *testing.T) {
	drv := emptyDriver()
	sched, _, _ := newTestScheduler(t, drv)

	clock := at("19:30")
	ctx, cancel := context.WithCancel(context.Background())
	sched.now = func() time.Time { return clock }
	sched.sleep = func(_ context.Context, d time.Duration) bool {
		if d != 10*time.Minute {
			t.Errorf("off-hours sleep = %v, want 10m", d)
		}
		cancel()
		return false
	}

	if err := sched.Run(ctx); err != context.Canceled {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if len(drv.Navigations) != 0 {
		t.Fatalf("cycle executed outside work hours")
	}
}

func TestDailySummarySentOnceAndSkippedWhenIdle(t *testing.T) {
	sched, _, notifier := newTestScheduler(t, emptyDriver())

	// Nothing ran today, so no summary goes out.
	sched.sendDailySummary(context.Background(), at("17:45"))
	if notifier.summaryCount() != 0 {
		t.Fatalf("summary sent with zero cycles")
	}
	if sched.summarySentDay != 0 {
		t.Fatalf("summary day marked without a delivery")
	}

	sched.orch.RunCycle(context.Background())
	sched.sendDailySummary(context.Background(), at("17:45"))
	if notifier.summaryCount() != 1 {
		t.Fatalf("summary count = %d, want 1", notifier.summaryCount())
	}
	if sched.summarySentDay != 20260105 {
		t.Fatalf("summarySentDay = %d after delivery", sched.summarySentDay)
	}

	got := notifier.summaries[0]
	if got.Date != "2026-01-05" || got.Cycles != 1 {
		t.Fatalf("summary = %+v", got)
	}
}

func TestDailySummarySentOnceAcrossEveningTicks(t *testing.T) {
	hist, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer hist.Close()

	// A success cycle from this work day, recorded durably: the evening stat
	// reset cannot zero history totals, so only the date guard prevents a
	// re-send on every off-hours wakeup.
	if err := hist.Record(context.Background(), history.Entry{
		CycleID:    "aaaa0001",
		StartedAt:  at("10:00"),
		FinishedAt: at("10:01"),
		Outcome:    "success",
		Uploaded:   2,
	}); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	sched, _, notifier := newTestSchedulerWithHistory(t, emptyDriver(), hist)
	sched.orch.RunCycle(context.Background())

	clock := at("18:05")
	ticks := 0
	ctx, cancel := context.WithCancel(context.Background())
	sched.now = func() time.Time { return clock }
	sched.sleep = func(_ context.Context, _ time.Duration) bool {
		clock = clock.Add(10 * time.Minute)
		ticks++
		if ticks >= 6 {
			cancel()
			return false
		}
		return true
	}

	if err := sched.Run(ctx); err != context.Canceled {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if notifier.summaryCount() != 1 {
		t.Fatalf("summary sent %d times across the evening, want 1", notifier.summaryCount())
	}
}

func TestResetForNextDayClearsStatsOnly(t *testing.T) {
	sched, _, _ := newTestScheduler(t, emptyDriver())

	sched.orch.RunCycle(context.Background())
	sched.summarySentDay = 20260105

	sched.resetForNextDay()
	if sched.summarySentDay != 20260105 {
		t.Fatalf("summary guard re-armed by the evening reset")
	}
	if running := sched.orch.Running(); running.Total != 0 {
		t.Fatalf("running stats not reset: %+v", running)
	}
}

func TestHeartbeatContentCarriesStats(t *testing.T) {
	sched, cfg, _ := newTestScheduler(t, emptyDriver())

	sched.writeHeartbeat()
	content, err := os.ReadFile(cfg.HeartbeatPath())
	if err != nil {
		t.Fatalf("read heartbeat: %v", err)
	}
	for _, want := range []string{"PID:", "Stats:", "total=0"} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("heartbeat content %q missing %q", content, want)
		}
	}
}
