// Package governance provides admission control for categorized operations
// against a shared backend.
//
// # Overview
//
// The Engine is the facade over the admission-control subsystems:
//
//   - policy: per-operation limits, windows, priorities, role multipliers
//   - ledger: sliding-window usage counters, per principal and global
//   - quota: coarse shared budgets (run execution time, daily call budgets)
//   - abuse: violation tracking and escalating temporary blocks
//   - sched: optional deferred-admission priority queue
//   - audit: operator-facing events for blocks and critical quotas
//
// A caller asks CheckAdmission whether an operation may run; the engine
// resolves the policy, consults block state, the principal and global sliding
// windows, and the shared quotas, and returns a Verdict value. Denials are
// values, never errors: callers branch on Allowed and decide whether to
// reject, retry later, or defer through the queue.
//
// # Fail Open
//
// This engine is defense in depth, not the sole control, so availability of
// the protected service outranks strict enforcement. Unknown operation types
// and internal faults both admit the request, with reasons unknown_operation
// and check_failed respectively.
//
// # Concurrency
//
// Every operation is a bounded synchronous computation over in-memory state
// with no I/O on the hot path. The engine assumes one authoritative instance
// per process; it performs no cross-process coordination. Scaling the
// protected service requires sticky routing to one engine instance or porting
// the ledgers to a shared store.
//
// # Usage
//
//	engine, err := governance.New(governance.Config{
//	    Policies: registry,
//	    Quotas:   tracker,
//	    Abuse:    detector,
//	})
//	verdict := engine.CheckAdmission(ctx, "SEARCH_ADVANCED", principal)
//	if !verdict.Allowed {
//	    // surface verdict.Reason, verdict.ResetAt to the caller
//	}
package governance
