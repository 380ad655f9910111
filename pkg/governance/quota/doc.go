// Package quota tracks coarse, time-boxed shared budgets.
//
// # Overview
//
// Unlike the per-principal sliding windows in the ledger package, quotas are
// shared budgets with a periodic reset:
//
//   - A run-scoped execution-time budget measured from tracker start, with a
//     warning threshold (log only) and a critical threshold set below the
//     platform's hard ceiling as a safety margin (deny)
//   - Daily shared resources such as backend API call budgets, reset at a
//     fixed daily instant
//
// Severity "warning" never blocks: at or above the warning threshold requests
// are allowed but flagged; at or above the critical threshold they are denied.
//
// # Durability
//
// Daily counters are backed by a storage.Store so they can survive restarts.
// The store is an injected dependency; the in-memory store is the default.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
package quota
