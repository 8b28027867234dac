// Package reader pulls data out of the ERP payment-query view: the raw
// payment records for the cycle and the set of approval numbers already
// reflected into the accounting ledger.
package reader

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ledgersync/internal/erp"
	"ledgersync/internal/logging"
)

// Reader drives the payment-query view through the automation driver.
type Reader struct {
	queryTarget string
	logger      *slog.Logger
}

// New returns a reader navigating to queryTarget for the payment view.
func New(queryTarget string, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reader{
		queryTarget: queryTarget,
		logger:      logging.NewComponentLogger(logger, "reader"),
	}
}

// NavigateToPaymentQuery opens the payment-query view.
func (r *Reader) NavigateToPaymentQuery(ctx context.Context, drv erp.Driver) error {
	r.logger.Info("opening payment query view")
	if err := drv.Navigate(ctx, r.queryTarget); err != nil {
		return fmt.Errorf("navigate to payment query: %w", err)
	}
	return nil
}

// FetchReflectedSet switches the view to the reflected tab, collects the
// approval numbers already posted in the ledger, and restores the
// unreflected tab before returning. The set is read fresh each cycle and is
// never persisted: it is the real-time duplicate check against postings made
// manually in the ERP between cycles.
func (r *Reader) FetchReflectedSet(ctx context.Context, drv erp.Driver) (map[string]struct{}, error) {
	if err := drv.Click(ctx, erp.SelectorReflectedTab); err != nil {
		return nil, fmt.Errorf("open reflected tab: %w", err)
	}

	cells, readErr := drv.ReadColumn(ctx, erp.ColumnApprovalNumber)

	// Restore the unreflected view even when the read failed; the rest of
	// the cycle depends on it.
	if err := drv.Click(ctx, erp.SelectorUnreflectedTab); err != nil {
		return nil, fmt.Errorf("restore unreflected tab: %w", err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("read reflected approval numbers: %w", readErr)
	}

	reflected := make(map[string]struct{})
	for _, cell := range dataCells(cells) {
		if cell != "" {
			reflected[cell] = struct{}{}
		}
	}
	r.logger.Info("reflected set fetched", logging.Int("approval_numbers", len(reflected)))
	return reflected, nil
}

// ReadRawRecords reads the unreflected payment grid column by column and
// stitches the cells into records. Row order follows the grid.
func (r *Reader) ReadRawRecords(ctx context.Context, drv erp.Driver) ([]erp.RawPaymentRecord, error) {
	columns := make(map[string][]string, 6)
	for _, columnID := range []string{
		erp.ColumnRequestTimestamp,
		erp.ColumnCustomerName,
		erp.ColumnAmount,
		erp.ColumnAcquirerName,
		erp.ColumnStatus,
		erp.ColumnApprovalNumber,
	} {
		cells, err := drv.ReadColumn(ctx, columnID)
		if err != nil {
			return nil, fmt.Errorf("read column %s: %w", columnID, err)
		}
		columns[columnID] = dataCells(cells)
	}

	timestamps := columns[erp.ColumnRequestTimestamp]
	records := make([]erp.RawPaymentRecord, 0, len(timestamps))
	for i, ts := range timestamps {
		if ts == "" {
			continue
		}
		records = append(records, erp.RawPaymentRecord{
			RequestTimestamp: ts,
			CustomerName:     cellAt(columns[erp.ColumnCustomerName], i),
			Amount:           cellAt(columns[erp.ColumnAmount], i),
			AcquirerName:     cellAt(columns[erp.ColumnAcquirerName], i),
			Status:           erp.ParseStatus(cellAt(columns[erp.ColumnStatus], i)),
			ApprovalNumber:   cellAt(columns[erp.ColumnApprovalNumber], i),
		})
	}

	r.logger.Info("payment grid read", logging.Int("records", len(records)))
	return records, nil
}

// dataCells trims every cell and drops the leading header element.
func dataCells(cells []string) []string {
	if len(cells) == 0 {
		return nil
	}
	out := make([]string, 0, len(cells)-1)
	for _, cell := range cells[1:] {
		out = append(out, strings.TrimSpace(cell))
	}
	return out
}

func cellAt(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}
