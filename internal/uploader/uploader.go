package uploader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/cenkalti/backoff/v4"

	"ledgersync/internal/erp"
	"ledgersync/internal/logging"
)

const (
	dialogPollInterval = 2 * time.Second
	dialogPollTimeout  = 30 * time.Second
)

var errDialogNotPresent = errors.New("result dialog not present")

// Uploader performs one paste-and-save attempt per cycle.
type Uploader struct {
	reportTarget  string
	testMode      bool
	screenshotDir string
	logger        *slog.Logger

	// systemClipboard is the fallback when the driver's clipboard injection
	// fails; swapped out in tests.
	systemClipboard func(text string) error

	pollInterval time.Duration
	pollTimeout  time.Duration
}

// New returns an uploader for the deposit-report view. In test mode the save
// step is skipped and the attempt reports success after the paste.
func New(reportTarget string, testMode bool, screenshotDir string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Uploader{
		reportTarget:    reportTarget,
		testMode:        testMode,
		screenshotDir:   screenshotDir,
		logger:          logging.NewComponentLogger(logger, "uploader"),
		systemClipboard: clipboard.WriteAll,
		pollInterval:    dialogPollInterval,
		pollTimeout:     dialogPollTimeout,
	}
}

// NavigateToDepositReport opens the deposit-report view.
func (u *Uploader) NavigateToDepositReport(ctx context.Context, drv erp.Driver) error {
	u.logger.Info("opening deposit report view")
	if err := drv.Navigate(ctx, u.reportTarget); err != nil {
		return fmt.Errorf("navigate to deposit report: %w", err)
	}
	return nil
}

// Upload pastes rows into the bulk-upload grid, saves, and classifies the
// result dialog. The returned Result is valid whenever err is nil; callers
// must not persist dedup keys unless Result.Outcome is OutcomeSuccess.
func (u *Uploader) Upload(ctx context.Context, drv erp.Driver, rows []erp.DepositRow) (Result, error) {
	if len(rows) == 0 {
		return Result{}, errors.New("no rows to upload")
	}

	payload := serializeRows(rows)
	if err := drv.WriteClipboard(ctx, payload); err != nil {
		u.logger.Warn("driver clipboard injection failed, using system clipboard",
			logging.Error(err),
		)
		if err := u.systemClipboard(payload); err != nil {
			return Result{}, fmt.Errorf("write clipboard: %w", err)
		}
	}
	u.logger.Info("rows copied to clipboard", logging.Int("rows", len(rows)))

	if err := drv.Click(ctx, erp.SelectorBulkUpload); err != nil {
		return Result{}, fmt.Errorf("open bulk upload surface: %w", err)
	}
	if err := drv.Click(ctx, erp.SelectorBulkUploadCell); err != nil {
		return Result{}, fmt.Errorf("focus first grid cell: %w", err)
	}
	if err := drv.PressKey(ctx, erp.KeyPaste); err != nil {
		return Result{}, fmt.Errorf("paste rows: %w", err)
	}

	if err := u.verifyPaste(ctx, drv, rows[0], payload); err != nil {
		return Result{}, err
	}

	if u.testMode {
		u.logger.Warn("test mode: skipping save", logging.Int("rows", len(rows)))
		return Result{Outcome: OutcomeSuccess, ReportedCount: len(rows)}, nil
	}

	u.logger.Info("issuing save command")
	if err := drv.PressKey(ctx, erp.KeySave); err != nil {
		return Result{}, fmt.Errorf("issue save command: %w", err)
	}

	result := u.awaitResultDialog(ctx, drv)
	u.logResult(result, len(rows))

	switch result.Outcome {
	case OutcomeSuccess:
		// Clear the result dialog and the upload surface so the next cycle
		// starts from a clean grid.
		if err := drv.DismissDialog(ctx); err != nil {
			u.logger.Warn("dismiss result dialog failed", logging.Error(err))
		}
		if err := drv.DismissDialog(ctx); err != nil {
			u.logger.Warn("dismiss upload surface failed", logging.Error(err))
		}
	default:
		u.captureEvidence(ctx, drv)
	}
	return result, nil
}

// verifyPaste checks that the grid actually received the payload; some
// environments block synthetic paste events. When the first row's date token
// is absent from the grid, the payload is typed in directly instead.
func (u *Uploader) verifyPaste(ctx context.Context, drv erp.Driver, first erp.DepositRow, payload string) error {
	gridText, err := drv.ReadGridText(ctx)
	if err != nil {
		return fmt.Errorf("read grid after paste: %w", err)
	}
	if strings.Contains(gridText, first.Date) {
		return nil
	}

	u.logger.Warn("paste not visible in grid, falling back to direct typing")
	if err := drv.TypeText(ctx, payload); err != nil {
		return fmt.Errorf("type rows into grid: %w", err)
	}
	return nil
}

// awaitResultDialog polls for the save result dialog with bounded retries.
// A dialog that never appears is classified as failure.
func (u *Uploader) awaitResultDialog(ctx context.Context, drv erp.Driver) Result {
	var text string

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(u.pollInterval),
			uint64(u.pollTimeout/u.pollInterval),
		),
		ctx,
	)
	err := backoff.Retry(func() error {
		dialogText, ok, readErr := drv.ReadResultDialogText(ctx)
		if readErr != nil {
			return backoff.Permanent(readErr)
		}
		if !ok {
			return errDialogNotPresent
		}
		text = dialogText
		return nil
	}, policy)
	if err != nil {
		u.logger.Error("no result dialog after save", logging.Error(err))
		return Result{Outcome: OutcomeFailure}
	}

	return classifyDialog(text)
}

func (u *Uploader) logResult(result Result, attempted int) {
	switch result.Outcome {
	case OutcomeSuccess:
		u.logger.Info("save confirmed",
			logging.Int("reported", result.ReportedCount),
			logging.Int("attempted", attempted),
		)
		if result.ReportedCount != attempted {
			// The ERP message is authoritative; the mismatch is surfaced
			// for the operator but does not fail the cycle.
			u.logger.Warn("reported count differs from attempted rows",
				logging.String(logging.FieldEventType, "upload_count_mismatch"),
				logging.Int("reported", result.ReportedCount),
				logging.Int("attempted", attempted),
			)
		}
	default:
		u.logger.Error("save not confirmed",
			logging.String("outcome", result.Outcome.String()),
			logging.String("dialog", result.DialogText),
			logging.String(logging.FieldErrorHint, "inspect the failure screenshot and the deposit report grid for validation markers"),
			logging.String(logging.FieldImpact, "rows not posted; unchanged records retry next cycle"),
		)
	}
}

func (u *Uploader) captureEvidence(ctx context.Context, drv erp.Driver) {
	if u.screenshotDir == "" {
		return
	}
	path := filepath.Join(u.screenshotDir, fmt.Sprintf("upload-failure-%s.png", time.Now().Format("20060102-150405")))
	if err := drv.Screenshot(ctx, path); err != nil {
		u.logger.Warn("failure screenshot not captured", logging.Error(err))
		return
	}
	u.logger.Info("failure screenshot captured", logging.String("path", path))
}

// serializeRows renders rows as tab-separated lines joined with CRLF, the
// clipboard format the bulk-paste grid expects.
func serializeRows(rows []erp.DepositRow) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, row.TabLine())
	}
	return strings.Join(lines, "\r\n")
}
