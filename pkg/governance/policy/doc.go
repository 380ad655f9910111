// Package policy provides the operation policy registry for admission control.
//
// # Overview
//
// Each protected operation type carries an OperationPolicy describing its base
// rate limit, sliding window duration, scheduling priority, and per-role limit
// multipliers. The Registry is the lookup table the governance engine consults
// on every admission check.
//
// Unknown operation types are a soft condition: Get returns ErrNotFound and the
// caller is expected to fail open rather than reject the request.
//
// # Hot Reload
//
// Policies are immutable once loaded, but the whole table can be swapped
// atomically via Replace. The FileWatcher watches a policy file and re-loads it
// on change, keeping the previous table when a reload fails.
//
// # Usage
//
//	registry, err := policy.NewRegistry(policies)
//	p, err := registry.Get("SEARCH_ADVANCED")
//	limit := p.EffectiveLimit("teamLeader")
package policy
