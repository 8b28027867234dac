// Package erp defines the capability interface ledgersync expects from the
// browser automation driver, plus the record and row shapes exchanged with
// the ERP's payment-query and deposit-report views. The concrete driver is
// supplied by the embedding environment; this package only fixes the contract
// and the stable identifiers the views are addressed by.
package erp
