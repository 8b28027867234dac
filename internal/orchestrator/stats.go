package orchestrator

// RunningStats accumulates cycle outcomes across one business day. The
// scheduler resets it at day rollover; a copy is handed to the notifier so
// the orchestrator keeps sole ownership of the live value.
type RunningStats struct {
	Total         int
	Success       int
	Failure       int
	Count         int
	Cancellations int
}
