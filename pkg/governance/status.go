package governance

import (
	"context"
	"time"

	"casesdash/sentinel/pkg/governance/abuse"
	"casesdash/sentinel/pkg/governance/audit"
	"casesdash/sentinel/pkg/governance/ledger"
	"casesdash/sentinel/pkg/governance/quota"
)

// OperationStatus is one operation's usage snapshot for a principal.
type OperationStatus struct {
	Operation   string        `json:"operation"`
	Used        int           `json:"used"`
	BaseLimit   int           `json:"base_limit"`
	Window      time.Duration `json:"window"`
	GlobalUsed  int           `json:"global_used"`
	GlobalLimit int           `json:"global_limit"`
}

// PrincipalStatus is the admin view of one principal's current standing.
// Limits are shown role-agnostic (base limits); the effective per-role limit
// is only resolvable on a live admission call.
type PrincipalStatus struct {
	PrincipalID string            `json:"principal_id"`
	At          time.Time         `json:"at"`
	Operations  []OperationStatus `json:"operations"`
	Blocks      []abuse.BlockInfo `json:"blocks"`
}

// Statistics is the system-wide snapshot for operators.
type Statistics struct {
	Uptime           time.Duration          `json:"uptime"`
	TotalChecks      int64                  `json:"total_checks"`
	Allowed          int64                  `json:"allowed"`
	DeniedByReason   map[string]int64       `json:"denied_by_reason"`
	ActiveUserKeys   int                    `json:"active_user_keys"`
	ActiveGlobalKeys int                    `json:"active_global_keys"`
	ActiveBlocks     int                    `json:"active_blocks"`
	QueueDepth       int                    `json:"queue_depth"`
	Quotas           []quota.ResourceStatus `json:"quotas"`
}

// CleanupReport summarizes one cleanup sweep.
type CleanupReport struct {
	UserKeysEvicted      int `json:"user_keys_evicted"`
	GlobalKeysEvicted    int `json:"global_keys_evicted"`
	ViolationLogsEvicted int `json:"violation_logs_evicted"`
	BlocksExpired        int `json:"blocks_expired"`
	QuotaRollovers       int `json:"quota_rollovers"`
	QueueEntriesDropped  int `json:"queue_entries_dropped"`
	StoreEntriesDeleted  int `json:"store_entries_deleted"`
}

// Status returns the current usage and block standing for one principal
// across every registered operation type.
func (e *Engine) Status(principalID string) PrincipalStatus {
	now := e.clock()

	status := PrincipalStatus{
		PrincipalID: principalID,
		At:          now,
	}

	for _, name := range e.policies.Names() {
		pol, err := e.policies.Get(name)
		if err != nil {
			continue
		}
		status.Operations = append(status.Operations, OperationStatus{
			Operation:   name,
			Used:        e.users.Count(ledger.Key(principalID, name), pol.Window, now),
			BaseLimit:   pol.BaseLimit,
			Window:      pol.Window,
			GlobalUsed:  e.global.Count(name, pol.Window, now),
			GlobalLimit: pol.BaseLimit * e.globalFactor,
		})
	}

	for _, block := range e.abuse.ActiveBlocks(now) {
		if block.PrincipalID == principalID {
			status.Blocks = append(status.Blocks, block)
		}
	}

	return status
}

// ResetLimits clears a principal's usage windows, violations, and blocks.
// An empty operation type resets every operation for the principal.
func (e *Engine) ResetLimits(principalID, operationType string) {
	if operationType != "" {
		e.users.Delete(ledger.Key(principalID, operationType))
	} else {
		e.users.DeletePrefix(principalID + ":")
	}
	e.abuse.Reset(principalID, operationType)

	e.logger.Info("limits reset",
		"principal", principalID,
		"operation", operationType,
	)
}

// RecentEvents returns up to n recent audit events, newest first.
func (e *Engine) RecentEvents(n int) []audit.Event {
	return e.audit.Recent(n)
}

// Statistics returns the system-wide snapshot and refreshes the gauges.
func (e *Engine) Statistics() Statistics {
	now := e.clock()

	e.statsMu.Lock()
	denied := make(map[string]int64, len(e.denied))
	for reason, count := range e.denied {
		denied[string(reason)] = count
	}
	stats := Statistics{
		Uptime:         now.Sub(e.startedAt),
		TotalChecks:    e.checks,
		Allowed:        e.allowed,
		DeniedByReason: denied,
	}
	e.statsMu.Unlock()

	stats.ActiveUserKeys = e.users.KeyCount()
	stats.ActiveGlobalKeys = e.global.KeyCount()
	stats.ActiveBlocks = len(e.abuse.ActiveBlocks(now))
	stats.QueueDepth = e.queue.Len()
	stats.Quotas = e.quotas.Status(now)

	if e.metrics != nil {
		e.metrics.UpdateActiveBlocks(stats.ActiveBlocks)
		e.metrics.UpdateQueueDepth(stats.QueueDepth)
		for _, q := range stats.Quotas {
			e.metrics.UpdateQuotaUsage(q.Name, q.Percentage)
		}
	}

	return stats
}

// Cleanup runs the lazy-pruning sweep: ledger eviction, violation-log and
// block pruning, daily quota rollover, queue age eviction, and counter-store
// cleanup. Intended to run on a recurring timer independent of request
// traffic; it takes the same locks as the hot path and is idempotent.
func (e *Engine) Cleanup(ctx context.Context) CleanupReport {
	now := e.clock()

	report := CleanupReport{
		UserKeysEvicted:   e.users.Cleanup(now),
		GlobalKeysEvicted: e.global.Cleanup(now),
	}
	report.ViolationLogsEvicted, report.BlocksExpired = e.abuse.Cleanup(now)
	report.QuotaRollovers = e.quotas.Rollover(now)
	report.QueueEntriesDropped = e.queue.Cleanup(e.queueMaxAge, now)

	deleted, err := e.quotas.CleanupStore(ctx, now)
	if err != nil {
		e.logger.Warn("counter store cleanup failed", "error", err)
	}
	report.StoreEntriesDeleted = deleted

	if report.QuotaRollovers > 0 {
		// New quota period: allow fresh critical alerts.
		e.quotaMu.Lock()
		e.quotaEvented = make(map[string]bool)
		e.quotaMu.Unlock()
	}

	if e.metrics != nil {
		e.metrics.UpdateActiveBlocks(len(e.abuse.ActiveBlocks(now)))
		e.metrics.UpdateQueueDepth(e.queue.Len())
	}

	e.logger.Debug("cleanup sweep finished",
		"user_keys_evicted", report.UserKeysEvicted,
		"global_keys_evicted", report.GlobalKeysEvicted,
		"violation_logs_evicted", report.ViolationLogsEvicted,
		"blocks_expired", report.BlocksExpired,
		"quota_rollovers", report.QuotaRollovers,
		"queue_entries_dropped", report.QueueEntriesDropped,
	)

	return report
}
