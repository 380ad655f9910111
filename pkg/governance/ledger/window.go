package ledger

import "time"

// usageWindow holds the ordered admission timestamps for one key.
// Invariant: after prune, every retained timestamp lies within
// (now-window, now].
type usageWindow struct {
	stamps []time.Time
}

// prune drops all timestamps at or before the cutoff.
// Timestamps are appended in order, so the retained suffix stays sorted.
func (w *usageWindow) prune(cutoff time.Time) int {
	keep := 0
	for keep < len(w.stamps) && !w.stamps[keep].After(cutoff) {
		keep++
	}
	if keep == 0 {
		return 0
	}
	dropped := keep
	w.stamps = append(w.stamps[:0], w.stamps[keep:]...)
	return dropped
}

// append records one admission at the given instant.
func (w *usageWindow) append(now time.Time) {
	w.stamps = append(w.stamps, now)
}

// removeLast drops the newest timestamp equal to stamp.
// Used to roll back a tentative admission when a later check denies.
func (w *usageWindow) removeLast(stamp time.Time) bool {
	for i := len(w.stamps) - 1; i >= 0; i-- {
		if w.stamps[i].Equal(stamp) {
			w.stamps = append(w.stamps[:i], w.stamps[i+1:]...)
			return true
		}
	}
	return false
}

// oldest returns the earliest retained timestamp.
// The zero time is returned for an empty window.
func (w *usageWindow) oldest() time.Time {
	if len(w.stamps) == 0 {
		return time.Time{}
	}
	return w.stamps[0]
}

func (w *usageWindow) len() int {
	return len(w.stamps)
}
