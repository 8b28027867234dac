// Package uploader drives one bulk-upload attempt against the deposit-report
// grid and classifies its outcome from the ERP's result dialog. The protocol
// never assumes success: only an explicit success marker in the dialog text
// yields a Success outcome.
package uploader
