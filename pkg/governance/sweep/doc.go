// Package sweep runs the engine's cleanup sweep on a cron schedule.
//
// The admission hot path prunes lazily; the sweep handles what lazy pruning
// never reaches: evicting drained ledger keys, expiring blocks nobody probes,
// rolling daily quota boundaries, and dropping stale deferred entries. It
// runs independently of request traffic and may overlap admission checks,
// since pruning is monotonic.
package sweep
