package watchdog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ledgersync/internal/heartbeat"
)

type fakeRestarter struct {
	restarts int
	err      error
}

func (f *fakeRestarter) Restart(context.Context) error {
	f.restarts++
	return f.err
}

func newTestMonitor(t *testing.T, heartbeatPath string) (*Monitor, *fakeRestarter) {
	t.Helper()
	restarter := &fakeRestarter{}
	m := New(heartbeatPath, 5*time.Minute, 60*time.Minute, time.Minute, restarter, nil)
	return m, restarter
}

func TestCheckHealthyHeartbeat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heartbeat.txt")
	if err := heartbeat.Write(path, "total=1"); err != nil {
		t.Fatalf("seed heartbeat: %v", err)
	}

	m, _ := newTestMonitor(t, path)
	if got := m.check(context.Background()); got != actionNone {
		t.Fatalf("check on fresh heartbeat = %v, want none", got)
	}
}

func TestCheckEscalatesAfterThreeReadFailures(t *testing.T) {
	m, _ := newTestMonitor(t, filepath.Join(t.TempDir(), "absent.txt"))

	for i := 0; i < maxReadFailures-1; i++ {
		if got := m.check(context.Background()); got != actionNone {
			t.Fatalf("failure %d escalated early", i+1)
		}
	}
	if got := m.check(context.Background()); got != actionRestart {
		t.Fatalf("third consecutive failure must escalate")
	}
	// The counter resets after escalation; the tolerance window restarts.
	if got := m.check(context.Background()); got != actionNone {
		t.Fatalf("counter not reset after escalation")
	}
}

func TestCheckSuccessResetsFailureCounter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "heartbeat.txt")

	m, _ := newTestMonitor(t, path)

	m.check(context.Background())
	m.check(context.Background())

	if err := heartbeat.Write(path, "total=1"); err != nil {
		t.Fatalf("seed heartbeat: %v", err)
	}
	if got := m.check(context.Background()); got != actionNone {
		t.Fatalf("readable heartbeat escalated")
	}
	if m.readFailures != 0 {
		t.Fatalf("readFailures = %d after success, want 0", m.readFailures)
	}
}

func TestCheckEscalatesOnStaleHeartbeat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heartbeat.txt")
	if err := heartbeat.Write(path, "total=1"); err != nil {
		t.Fatalf("seed heartbeat: %v", err)
	}

	m, _ := newTestMonitor(t, path)
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if got := m.check(context.Background()); got != actionRestart {
		t.Fatalf("stale heartbeat must escalate")
	}
}

func TestRunRestartsAndCoolsDown(t *testing.T) {
	m, restarter := newTestMonitor(t, filepath.Join(t.TempDir(), "absent.txt"))

	var sleeps []time.Duration
	ctx, cancel := context.WithCancel(context.Background())
	m.sleep = func(_ context.Context, d time.Duration) bool {
		sleeps = append(sleeps, d)
		// Three failed checks and one cooldown are enough for the assertion.
		if len(sleeps) >= 4 {
			cancel()
			return false
		}
		return true
	}

	if err := m.Run(ctx); err != context.Canceled {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if restarter.restarts != 1 {
		t.Fatalf("restarts = %d, want 1", restarter.restarts)
	}
	// Two tolerated checks, then escalation: cooldown precedes the next poll.
	want := []time.Duration{5 * time.Minute, 5 * time.Minute, time.Minute, 5 * time.Minute}
	if len(sleeps) != len(want) {
		t.Fatalf("sleeps = %v", sleeps)
	}
	for i := range want {
		if sleeps[i] != want[i] {
			t.Fatalf("sleeps[%d] = %v, want %v", i, sleeps[i], want[i])
		}
	}
}

func TestRunSurvivesRestartFailure(t *testing.T) {
	m, restarter := newTestMonitor(t, filepath.Join(t.TempDir(), "absent.txt"))
	restarter.err = errors.New("kill refused")

	checks := 0
	ctx, cancel := context.WithCancel(context.Background())
	m.sleep = func(_ context.Context, _ time.Duration) bool {
		checks++
		if checks >= 8 {
			cancel()
			return false
		}
		return true
	}

	if err := m.Run(ctx); err != context.Canceled {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if restarter.restarts < 2 {
		t.Fatalf("monitor stopped retrying after a failed restart: %d", restarter.restarts)
	}
}
