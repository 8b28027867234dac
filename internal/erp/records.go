package erp

import "strings"

// Status is the settlement state reported by the payment-query view. The
// view is filtered server-side to approved and cancelled rows; the other
// values exist so parsed data stays faithful when that filter changes.
type Status string

const (
	StatusApproved           Status = "approved"
	StatusCancelled          Status = "cancelled"
	StatusApprovalFailed     Status = "approval-failed"
	StatusCancellationFailed Status = "cancellation-failed"
	StatusOther              Status = "other"
)

// ParseStatus maps a grid status label onto a Status value.
func ParseStatus(label string) Status {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "approved", "approval":
		return StatusApproved
	case "cancelled", "canceled", "cancel":
		return StatusCancelled
	case "approval failed", "approval-failed":
		return StatusApprovalFailed
	case "cancellation failed", "cancellation-failed", "cancel failed":
		return StatusCancellationFailed
	default:
		return StatusOther
	}
}

// RawPaymentRecord is one payment-query grid row, untouched apart from
// whitespace trimming. Scoped to a single cycle.
type RawPaymentRecord struct {
	RequestTimestamp string
	CustomerName     string
	Amount           string
	AcquirerName     string
	Status           Status
	ApprovalNumber   string
}

// Key returns the dedup key identifying this record across cycles.
func (r RawPaymentRecord) Key() string {
	return r.RequestTimestamp
}
