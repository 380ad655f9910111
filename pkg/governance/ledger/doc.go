// Package ledger provides sliding-window admission counters.
//
// # Overview
//
// The Ledger tracks admission timestamps per key over a true sliding window:
// every check evaluates exactly the last window duration from "now", not a
// fixed clock-aligned bucket. The governance engine keeps two independent
// ledgers, one keyed per (principal, operation type) and one keyed per
// operation type, so both individual and aggregate load stay bounded.
//
// # Algorithm
//
//  1. CheckAndAdmit prunes timestamps outside [now-window, now] for the key
//  2. If the remaining count has reached the limit, the check is denied with
//     the instant the oldest retained admission leaves the window
//  3. Record appends "now" only after every other admission check has passed
//
// Pruning on every check keeps each key's list near the limit; fully drained
// keys are only evicted during the periodic Cleanup sweep.
//
// # Thread Safety
//
// Keys are sharded across independent locks so unrelated principals proceed
// in parallel. Each call is a bounded synchronous computation over the key's
// timestamp list, typically tens of entries.
package ledger
