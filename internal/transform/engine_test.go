package transform

import (
	"testing"

	"ledgersync/internal/erp"
)

func newTestEngine() *Engine {
	return NewEngine("1089", nil)
}

func record(ts, customer, amount, acquirer string, status erp.Status, approval string) erp.RawPaymentRecord {
	return erp.RawPaymentRecord{
		RequestTimestamp: ts,
		CustomerName:     customer,
		Amount:           amount,
		AcquirerName:     acquirer,
		Status:           status,
		ApprovalNumber:   approval,
	}
}

func emptySet() map[string]struct{} { return map[string]struct{}{} }

func setOf(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func TestTransformExcludesOnlyEmptyCustomerOrAmount(t *testing.T) {
	records := []erp.RawPaymentRecord{
		record("2026/01/06 10:00", "ACME", "10,000", "VISA", erp.StatusApproved, "A1"),
		record("2026/01/06 10:01", "", "5,000", "VISA", erp.StatusApproved, "A2"),
		record("2026/01/06 10:02", "Globex", "", "VISA", erp.StatusApproved, "A3"),
		record("2026/01/06 10:03", "Initech", "7,500", "", erp.StatusApproved, "A4"),
	}

	rows, newKeys, stats := newTestEngine().Transform(records, emptySet(), emptySet())

	if stats.ExcludedInvalid != 2 {
		t.Fatalf("ExcludedInvalid = %d, want 2", stats.ExcludedInvalid)
	}
	if len(rows) != 2 || len(newKeys) != 2 {
		t.Fatalf("got %d rows / %d keys, want 2 / 2", len(rows), len(newKeys))
	}
	if rows[0].PartnerName != "ACME" || rows[1].PartnerName != "Initech" {
		t.Fatalf("unexpected survivors: %q, %q", rows[0].PartnerName, rows[1].PartnerName)
	}
}

func TestTransformLocalDuplicateIdempotence(t *testing.T) {
	records := []erp.RawPaymentRecord{
		record("2026/01/06 10:00", "ACME", "10,000", "", erp.StatusApproved, "A1"),
	}
	engine := newTestEngine()

	rows, newKeys, _ := engine.Transform(records, emptySet(), emptySet())
	if len(rows) != 1 {
		t.Fatalf("first run produced %d rows, want 1", len(rows))
	}

	uploaded := setOf(newKeys...)
	rows2, newKeys2, stats2 := engine.Transform(records, emptySet(), uploaded)
	if len(rows2) != 0 || len(newKeys2) != 0 {
		t.Fatalf("second run produced %d rows / %d keys, want none", len(rows2), len(newKeys2))
	}
	if stats2.ExcludedDuplicateLocal != 1 {
		t.Fatalf("ExcludedDuplicateLocal = %d, want 1", stats2.ExcludedDuplicateLocal)
	}
}

func TestTransformCancellationSign(t *testing.T) {
	records := []erp.RawPaymentRecord{
		record("2026/01/06 10:00", "ACME", "10,000", "", erp.StatusCancelled, "A1"),
	}

	rows, _, stats := newTestEngine().Transform(records, emptySet(), emptySet())
	if rows[0].Amount != "-10000" {
		t.Fatalf("Amount = %q, want -10000", rows[0].Amount)
	}
	if stats.Cancellations != 1 || stats.NormalTransactions != 0 {
		t.Fatalf("stats = %+v, want one cancellation", stats)
	}
}

func TestTransformCancellationSignNotDoubled(t *testing.T) {
	records := []erp.RawPaymentRecord{
		record("2026/01/06 10:00", "ACME", "-10,000", "", erp.StatusCancelled, "A1"),
	}

	rows, _, _ := newTestEngine().Transform(records, emptySet(), emptySet())
	if rows[0].Amount != "-10000" {
		t.Fatalf("Amount = %q, want -10000 (single sign)", rows[0].Amount)
	}
}

func TestTransformAcquirerNormalization(t *testing.T) {
	cases := []struct {
		acquirer string
		want     string
	}{
		{"", CardIssuerLabel},
		{"card", CardIssuerLabel},
		{"CARD", CardIssuerLabel},
		{"Some Card Co", CardIssuerLabel},
		{"  CaRd  processing ", CardIssuerLabel},
		{"BankWire", "BankWire"},
		{"ACH Network", "ACH Network"},
	}

	for _, tc := range cases {
		records := []erp.RawPaymentRecord{
			record("2026/01/06 10:00", "ACME", "10,000", tc.acquirer, erp.StatusApproved, "A1"),
		}
		rows, _, _ := newTestEngine().Transform(records, emptySet(), emptySet())
		if rows[0].DepositAccount != tc.want {
			t.Errorf("acquirer %q -> %q, want %q", tc.acquirer, rows[0].DepositAccount, tc.want)
		}
	}
}

func TestTransformReflectedDuplicateExcludedRegardlessOfStatus(t *testing.T) {
	for _, status := range []erp.Status{erp.StatusApproved, erp.StatusCancelled} {
		records := []erp.RawPaymentRecord{
			record("2026/01/06 10:00", "ACME", "10,000", "", status, "A1"),
		}
		rows, newKeys, stats := newTestEngine().Transform(records, setOf("A1"), emptySet())
		if len(rows) != 0 || len(newKeys) != 0 {
			t.Fatalf("status %s: reflected record not excluded", status)
		}
		if stats.ExcludedDuplicateERP != 1 {
			t.Fatalf("status %s: ExcludedDuplicateERP = %d, want 1", status, stats.ExcludedDuplicateERP)
		}
	}
}

func TestTransformMissingApprovalStillProcessed(t *testing.T) {
	records := []erp.RawPaymentRecord{
		record("2026/01/06 10:00", "ACME", "10,000", "", erp.StatusApproved, ""),
	}

	rows, _, stats := newTestEngine().Transform(records, setOf("A1"), emptySet())
	if len(rows) != 1 {
		t.Fatalf("record without approval number was excluded")
	}
	if stats.MissingApprovalNumbers != 1 {
		t.Fatalf("MissingApprovalNumbers = %d, want 1", stats.MissingApprovalNumbers)
	}
}

func TestTransformEndToEnd(t *testing.T) {
	records := []erp.RawPaymentRecord{
		record("2026/01/06 10:00", "ACME", "10,000", "", erp.StatusApproved, "A1"),
	}

	rows, newKeys, stats := newTestEngine().Transform(records, emptySet(), emptySet())
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.Date != "2026-01-06" {
		t.Errorf("Date = %q, want 2026-01-06", row.Date)
	}
	if row.DepositAccount != CardIssuerLabel {
		t.Errorf("DepositAccount = %q, want %q", row.DepositAccount, CardIssuerLabel)
	}
	if row.LedgerAccountCode != "1089" {
		t.Errorf("LedgerAccountCode = %q, want 1089", row.LedgerAccountCode)
	}
	if row.Amount != "10000" {
		t.Errorf("Amount = %q, want 10000", row.Amount)
	}
	if row.Memo != "card payment ACME" {
		t.Errorf("Memo = %q", row.Memo)
	}
	if len(newKeys) != 1 || newKeys[0] != "2026/01/06 10:00" {
		t.Errorf("newKeys = %v", newKeys)
	}
	if stats.NormalTransactions != 1 {
		t.Errorf("NormalTransactions = %d, want 1", stats.NormalTransactions)
	}
}

func TestTransformPreservesInputOrder(t *testing.T) {
	records := []erp.RawPaymentRecord{
		record("2026/01/06 10:02", "Charlie", "3,000", "BankWire", erp.StatusApproved, "C1"),
		record("2026/01/06 10:00", "Alpha", "1,000", "BankWire", erp.StatusApproved, "A1"),
		record("2026/01/06 10:01", "Bravo", "2,000", "BankWire", erp.StatusApproved, "B1"),
	}

	rows, newKeys, _ := newTestEngine().Transform(records, emptySet(), emptySet())
	wantOrder := []string{"Charlie", "Alpha", "Bravo"}
	for i, want := range wantOrder {
		if rows[i].PartnerName != want {
			t.Fatalf("rows[%d] = %q, want %q", i, rows[i].PartnerName, want)
		}
	}
	if newKeys[0] != "2026/01/06 10:02" {
		t.Fatalf("newKeys not aligned with rows: %v", newKeys)
	}
}

func TestTransformStatsOnEmptyResult(t *testing.T) {
	records := []erp.RawPaymentRecord{
		record("2026/01/06 10:00", "", "", "", erp.StatusApproved, ""),
	}

	rows, newKeys, stats := newTestEngine().Transform(records, emptySet(), emptySet())
	if rows == nil || newKeys == nil {
		t.Fatalf("rows/newKeys must be non-nil even when empty")
	}
	if stats.TotalRaw != 1 || stats.ExcludedInvalid != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}
