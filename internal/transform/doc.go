// Package transform turns raw payment-query records into deposit-report rows.
// The engine is deterministic and side-effect free: duplicates are decided
// purely against the two exclusion sets handed in (the persisted uploaded-key
// set and the cycle's reflected approval numbers), business rules are applied
// per record, and counters for every exclusion reason are always returned.
package transform
