// Package orchestrator sequences one synchronization cycle end to end:
// session open, reflected-set reconciliation, raw read, transform, upload,
// key persistence, and statistics. Every exit path of a cycle closes the
// driver session; failures are reported to the notifier and recorded, never
// propagated as process faults.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledgersync/internal/erp"
	"ledgersync/internal/history"
	"ledgersync/internal/logging"
	"ledgersync/internal/notifications"
	"ledgersync/internal/reader"
	"ledgersync/internal/recordstore"
	"ledgersync/internal/transform"
	"ledgersync/internal/uploader"
)

// Outcome labels recorded in the history store.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// CycleResult summarizes one finished cycle.
type CycleResult struct {
	CycleID       string
	Succeeded     bool
	Uploaded      int
	Cancellations int
	Stats         transform.Stats
	Err           error
}

// Orchestrator runs synchronization cycles. Exactly one cycle runs at a
// time; concurrent process instances are excluded by the process lock, not
// by in-process coordination.
type Orchestrator struct {
	sessions erp.SessionFactory
	reader   *reader.Reader
	uploader *uploader.Uploader
	engine   *transform.Engine
	records  *recordstore.Store
	history  *history.Store
	notifier notifications.Service
	logger   *slog.Logger
	testMode bool

	mu      sync.Mutex
	running RunningStats
}

// New wires an orchestrator from its collaborators. history may be nil when
// no cycle persistence is wanted (single foreground cycles).
func New(
	sessions erp.SessionFactory,
	rd *reader.Reader,
	up *uploader.Uploader,
	engine *transform.Engine,
	records *recordstore.Store,
	hist *history.Store,
	notifier notifications.Service,
	logger *slog.Logger,
	testMode bool,
) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		sessions: sessions,
		reader:   rd,
		uploader: up,
		engine:   engine,
		records:  records,
		history:  hist,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "orchestrator"),
		testMode: testMode,
	}
}

// Running returns a copy of the day's accumulated statistics.
func (o *Orchestrator) Running() RunningStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// ResetRunning clears the day's accumulated statistics.
func (o *Orchestrator) ResetRunning() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = RunningStats{}
}

// RunCycle executes one cycle. The returned result is always populated;
// result.Err carries the failure cause when Succeeded is false. Cycle
// failures are absorbed here (logged, notified, recorded) so the scheduler
// simply proceeds to the next interval.
func (o *Orchestrator) RunCycle(ctx context.Context) CycleResult {
	started := time.Now()
	result := CycleResult{CycleID: uuid.NewString()[:8]}
	logger := o.logger.With(logging.String(logging.FieldCycleID, result.CycleID))
	logger.Info("cycle started")

	err := o.runPipeline(ctx, logger, &result)
	result.Succeeded = err == nil
	result.Err = err

	o.mu.Lock()
	o.running.Total++
	if result.Succeeded {
		o.running.Success++
		o.running.Count += result.Uploaded
		o.running.Cancellations += result.Cancellations
	} else {
		o.running.Failure++
	}
	o.mu.Unlock()

	if err != nil {
		logger.Error("cycle failed", logging.Error(err))
		if notifyErr := o.notifier.NotifyError(ctx, err.Error(), pipelineDetail(result)); notifyErr != nil {
			logger.Warn("error notification not delivered", logging.Error(notifyErr))
		}
	} else {
		logger.Info("cycle finished",
			logging.Int("uploaded", result.Uploaded),
			logging.Int("raw", result.Stats.TotalRaw),
			logging.Duration("elapsed", time.Since(started)),
		)
	}

	o.recordHistory(ctx, logger, started, result)
	return result
}

// runPipeline is the single-path cycle body. Any returned error routes the
// cycle to the failure exit; the session closes on every path.
func (o *Orchestrator) runPipeline(ctx context.Context, logger *slog.Logger, result *CycleResult) error {
	drv, err := o.sessions.Open(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if closeErr := drv.Close(); closeErr != nil {
			logger.Warn("session close failed", logging.Error(closeErr))
		}
	}()

	if err := o.reader.NavigateToPaymentQuery(ctx, drv); err != nil {
		return err
	}
	reflected, err := o.reader.FetchReflectedSet(ctx, drv)
	if err != nil {
		return err
	}
	raw, err := o.reader.ReadRawRecords(ctx, drv)
	if err != nil {
		return err
	}

	rows, newKeys, stats := o.engine.Transform(raw, reflected, o.records.Keys())
	result.Stats = stats
	if len(rows) == 0 {
		logger.Info("no new records to upload",
			logging.Int("raw", stats.TotalRaw),
			logging.Int("duplicate_local", stats.ExcludedDuplicateLocal),
			logging.Int("duplicate_erp", stats.ExcludedDuplicateERP),
		)
		return nil
	}

	if err := o.uploader.NavigateToDepositReport(ctx, drv); err != nil {
		return err
	}
	uploadResult, err := o.uploader.Upload(ctx, drv, rows)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if uploadResult.Outcome != uploader.OutcomeSuccess {
		return fmt.Errorf("upload not confirmed: %s", uploadResult.Outcome)
	}

	result.Uploaded = len(rows)
	result.Cancellations = stats.Cancellations

	if o.testMode {
		logger.Info("test mode: uploaded keys not persisted", logging.Int("keys", len(newKeys)))
		return nil
	}
	if err := o.records.Append(newKeys); err != nil {
		// The upload went through; losing the keys means these records
		// would be re-sent next cycle, so this is a cycle failure.
		return fmt.Errorf("persist uploaded keys: %w", err)
	}
	return nil
}

func (o *Orchestrator) recordHistory(ctx context.Context, logger *slog.Logger, started time.Time, result CycleResult) {
	if o.history == nil {
		return
	}
	entry := history.Entry{
		CycleID:       result.CycleID,
		StartedAt:     started,
		FinishedAt:    time.Now(),
		Outcome:       outcomeSuccess,
		Uploaded:      result.Uploaded,
		Cancellations: result.Cancellations,
	}
	if !result.Succeeded {
		entry.Outcome = outcomeFailure
		if result.Err != nil {
			entry.Error = result.Err.Error()
		}
	}
	if err := o.history.Record(ctx, entry); err != nil {
		logger.Warn("cycle history not recorded", logging.Error(err))
	}
}

func pipelineDetail(result CycleResult) string {
	return fmt.Sprintf(
		"cycle %s\nraw records: %d\nexcluded invalid: %d\nexcluded duplicate (local): %d\nexcluded duplicate (erp): %d",
		result.CycleID,
		result.Stats.TotalRaw,
		result.Stats.ExcludedInvalid,
		result.Stats.ExcludedDuplicateLocal,
		result.Stats.ExcludedDuplicateERP,
	)
}
