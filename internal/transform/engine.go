package transform

import (
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"ledgersync/internal/erp"
	"ledgersync/internal/logging"
)

// CardIssuerLabel is the canonical acquirer label all card-processor variants
// collapse into, so every card payment posts to a single ledger account.
const CardIssuerLabel = "card-issuer"

// memoPrefix is prepended to the customer name in the deposit row memo.
const memoPrefix = "card payment "

// Stats counts the outcome of one transform pass. All counters are populated
// even when no rows survive.
type Stats struct {
	TotalRaw               int
	ExcludedInvalid        int
	ExcludedDuplicateLocal int
	ExcludedDuplicateERP   int
	MissingApprovalNumbers int
	Cancellations          int
	NormalTransactions     int
}

// Engine applies the dedup and business rules. Construct once per process;
// Transform is safe for concurrent use.
type Engine struct {
	accountCode string
	logger      *slog.Logger
}

// NewEngine returns an engine posting rows against the given ledger account.
func NewEngine(accountCode string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		accountCode: accountCode,
		logger:      logging.NewComponentLogger(logger, "transform"),
	}
}

// Transform filters and converts records in input order. Rows and newKeys are
// index-aligned: newKeys[i] is the dedup key of the record that produced
// rows[i]. Keys are returned, not persisted; callers persist them only after
// the upload is verified.
func (e *Engine) Transform(records []erp.RawPaymentRecord, reflected map[string]struct{}, uploaded map[string]struct{}) ([]erp.DepositRow, []string, Stats) {
	stats := Stats{TotalRaw: len(records)}
	rows := make([]erp.DepositRow, 0, len(records))
	newKeys := make([]string, 0, len(records))

	for _, record := range records {
		if strings.TrimSpace(record.CustomerName) == "" || strings.TrimSpace(record.Amount) == "" {
			stats.ExcludedInvalid++
			continue
		}

		key := record.Key()
		if _, ok := uploaded[key]; ok {
			stats.ExcludedDuplicateLocal++
			continue
		}

		approval := strings.TrimSpace(record.ApprovalNumber)
		if approval != "" {
			if _, ok := reflected[approval]; ok {
				stats.ExcludedDuplicateERP++
				e.logger.Info("skipping record already posted in ledger",
					logging.String("key", key),
					logging.String("approval_no", approval),
				)
				continue
			}
		} else {
			// The grid sometimes renders no approval number. The record is
			// still processed; the reflected set is the authoritative
			// duplicate check and it cannot match an empty number.
			stats.MissingApprovalNumbers++
			e.logger.Warn("record has no approval number",
				logging.String(logging.FieldEventType, "missing_approval_number"),
				logging.String("key", key),
				logging.String("customer", record.CustomerName),
			)
		}

		amount, cancelled := normalizeAmount(record.Amount, record.Status)
		if cancelled {
			stats.Cancellations++
		} else {
			stats.NormalTransactions++
		}

		rows = append(rows, erp.DepositRow{
			Date:              rowDate(record.RequestTimestamp),
			DepositAccount:    normalizeAcquirer(record.AcquirerName),
			LedgerAccountCode: e.accountCode,
			PartnerName:       record.CustomerName,
			Amount:            amount,
			Memo:              memoPrefix + record.CustomerName,
		})
		newKeys = append(newKeys, key)
	}

	return rows, newKeys, stats
}

// normalizeAmount strips thousands separators and, for cancelled records,
// ensures the amount carries exactly one minus sign. Re-running the
// normalization on an already-negative amount does not flip it again.
func normalizeAmount(raw string, status erp.Status) (amount string, cancelled bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	cancelled = status == erp.StatusCancelled
	if !cancelled {
		return cleaned, false
	}

	if value, err := decimal.NewFromString(cleaned); err == nil {
		if value.IsPositive() {
			cleaned = value.Neg().String()
		}
		return cleaned, true
	}
	// Unparseable amount: fall back to a textual sign check so the flip
	// stays idempotent either way.
	if !strings.HasPrefix(cleaned, "-") {
		cleaned = "-" + cleaned
	}
	return cleaned, true
}

// normalizeAcquirer collapses every card-processor variant (and the empty
// acquirer the grid shows for some card rows) into the canonical label.
func normalizeAcquirer(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return CardIssuerLabel
	}
	folded := strings.ToLower(strings.Join(strings.Fields(trimmed), ""))
	if strings.Contains(folded, "card") {
		return CardIssuerLabel
	}
	return trimmed
}

// rowDate extracts the date part of a request timestamp ("2026/01/06 10:00")
// in the dashed form the deposit grid expects.
func rowDate(timestamp string) string {
	datePart, _, _ := strings.Cut(strings.TrimSpace(timestamp), " ")
	return strings.ReplaceAll(datePart, "/", "-")
}
