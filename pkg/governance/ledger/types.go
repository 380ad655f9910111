package ledger

import "time"

// CheckResult is the outcome of a sliding-window admission check.
type CheckResult struct {
	// Admitted indicates if the key is under its limit.
	Admitted bool

	// Count is the number of admissions currently inside the window,
	// after pruning.
	Count int

	// Limit is the limit the check was evaluated against.
	Limit int

	// ResetAt is when the next slot opens: the oldest retained admission
	// plus the window duration. Only meaningful when Admitted is false.
	ResetAt time.Time
}

// Remaining returns how many admissions are left in the window.
func (r CheckResult) Remaining() int {
	remaining := r.Limit - r.Count
	if remaining < 0 {
		return 0
	}
	return remaining
}
