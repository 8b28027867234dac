package erp

import "strings"

// DepositRow is the fixed 12-field record accepted by the deposit-report
// bulk-paste grid. Field order matches the grid's column order and must not
// change.
type DepositRow struct {
	Date              string
	Seq               string
	VoucherNo         string
	DepositAccount    string
	LedgerAccountCode string
	PartnerCode       string
	PartnerName       string
	Amount            string
	Fee               string
	Memo              string
	Project           string
	Department        string
}

// Fields returns the row cells in grid order.
func (r DepositRow) Fields() [12]string {
	return [12]string{
		r.Date,
		r.Seq,
		r.VoucherNo,
		r.DepositAccount,
		r.LedgerAccountCode,
		r.PartnerCode,
		r.PartnerName,
		r.Amount,
		r.Fee,
		r.Memo,
		r.Project,
		r.Department,
	}
}

// TabLine renders the row as one tab-separated paste line.
func (r DepositRow) TabLine() string {
	fields := r.Fields()
	return strings.Join(fields[:], "\t")
}
