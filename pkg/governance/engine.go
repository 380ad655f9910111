package governance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"casesdash/sentinel/pkg/governance/abuse"
	"casesdash/sentinel/pkg/governance/audit"
	"casesdash/sentinel/pkg/governance/ledger"
	"casesdash/sentinel/pkg/governance/policy"
	"casesdash/sentinel/pkg/governance/quota"
	"casesdash/sentinel/pkg/governance/sched"
)

// DefaultGlobalLimitFactor scales an operation's base limit into its
// aggregate (all principals) limit.
const DefaultGlobalLimitFactor = 10

// Config contains the collaborators and tuning for an Engine.
//
// Policies, Quotas, and Abuse are required; construction fails fast when one
// is missing so a miswired deployment never limps along silently. The
// remaining collaborators have working defaults.
type Config struct {
	// Policies is the operation policy registry. Required.
	Policies *policy.Registry

	// Quotas tracks the shared budgets. Required.
	Quotas *quota.Tracker

	// Abuse escalates repeated violations to blocks. Required.
	Abuse *abuse.Detector

	// Queue holds deferred operations. Defaults to an unbounded queue.
	Queue *sched.Queue

	// Audit records operator-facing events. Defaults to a recorder on the
	// default logger.
	Audit *audit.Recorder

	// Metrics is optional; nil disables instrumentation.
	Metrics *Metrics

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// GlobalLimitFactor scales base limits into aggregate limits.
	// Defaults to DefaultGlobalLimitFactor.
	GlobalLimitFactor int

	// QueueMaxAge bounds how long deferred entries survive Cleanup.
	// Defaults to sched.DefaultMaxAge.
	QueueMaxAge time.Duration

	// Clock supplies the current time. Defaults to time.Now.
	// Injected so tests can drive window expiry deterministically.
	Clock func() time.Time
}

// Engine is the admission-control facade.
//
// All shared state lives in explicitly constructed collaborators, so each
// test gets fresh state from New instead of sharing process globals.
type Engine struct {
	policies     *policy.Registry
	users        *ledger.Ledger
	global       *ledger.Ledger
	quotas       *quota.Tracker
	abuse        *abuse.Detector
	queue        *sched.Queue
	audit        *audit.Recorder
	metrics      *Metrics
	logger       *slog.Logger
	globalFactor int
	queueMaxAge  time.Duration
	clock        func() time.Time

	statsMu   sync.Mutex
	startedAt time.Time
	checks    int64
	allowed   int64
	denied    map[Reason]int64

	// quotaEvented dedups critical-quota audit events per resource until
	// the next cleanup sweep; one alert per exhaustion is enough.
	quotaMu      sync.Mutex
	quotaEvented map[string]bool
}

// New creates a governance engine, failing fast on missing collaborators.
func New(cfg Config) (*Engine, error) {
	if cfg.Policies == nil {
		return nil, fmt.Errorf("policy registry is required")
	}
	if cfg.Quotas == nil {
		return nil, fmt.Errorf("quota tracker is required")
	}
	if cfg.Abuse == nil {
		return nil, fmt.Errorf("abuse detector is required")
	}
	if cfg.Queue == nil {
		cfg.Queue = sched.NewQueue(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.NewRecorder(cfg.Logger)
	}
	if cfg.GlobalLimitFactor <= 0 {
		cfg.GlobalLimitFactor = DefaultGlobalLimitFactor
	}
	if cfg.QueueMaxAge <= 0 {
		cfg.QueueMaxAge = sched.DefaultMaxAge
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Engine{
		policies:     cfg.Policies,
		users:        ledger.New(),
		global:       ledger.New(),
		quotas:       cfg.Quotas,
		abuse:        cfg.Abuse,
		queue:        cfg.Queue,
		audit:        cfg.Audit,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger.With("component", "governance.engine"),
		globalFactor: cfg.GlobalLimitFactor,
		queueMaxAge:  cfg.QueueMaxAge,
		clock:        cfg.Clock,
		startedAt:    cfg.Clock(),
		denied:       make(map[Reason]int64),
		quotaEvented: make(map[string]bool),
	}, nil
}

// CheckAdmission decides whether one invocation of an operation type by a
// principal may proceed.
//
// On success the admission is recorded in both ledgers and the quota tracker
// and the verdict carries the remaining budgets. On any denial the ledgers
// stay untouched; rate-limit denials additionally notify the abuse detector.
// Internal faults fail open with reason check_failed.
func (e *Engine) CheckAdmission(ctx context.Context, operationType string, principal Principal) (verdict Verdict) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("admission check failed, failing open",
				"operation", operationType,
				"principal", principal.ID,
				"panic", r,
			)
			verdict = Verdict{Allowed: true, Reason: ReasonCheckFailed}
		}
		e.observe(operationType, verdict, time.Since(start))
	}()

	now := e.clock()

	pol, err := e.policies.Get(operationType)
	if err != nil {
		// Soft condition: an unregistered operation is not this engine's
		// problem to reject.
		e.logger.Debug("no policy for operation, failing open", "operation", operationType)
		return Verdict{Allowed: true, Reason: ReasonUnknownOperation}
	}

	effectiveLimit := pol.EffectiveLimit(string(principal.Role))

	if blocked, until := e.abuse.IsBlocked(principal.ID, operationType, now); blocked {
		return Verdict{Allowed: false, Reason: ReasonBlocked, BlockedUntil: until}
	}

	// Admissions are recorded tentatively as each window is checked and
	// rolled back if a later stage denies, so a key can never exceed its
	// limit under concurrent checks.
	userKey := ledger.Key(principal.ID, operationType)
	userCheck := e.users.Admit(userKey, effectiveLimit, pol.Window, now)
	if !userCheck.Admitted {
		e.abuse.RecordViolation(principal.ID, operationType, now)
		return Verdict{
			Allowed: false,
			Reason:  ReasonUserRateLimit,
			ResetAt: userCheck.ResetAt,
		}
	}

	globalLimit := pol.BaseLimit * e.globalFactor
	globalCheck := e.global.Admit(operationType, globalLimit, pol.Window, now)
	if !globalCheck.Admitted {
		e.users.Release(userKey, now)
		e.abuse.RecordViolation(principal.ID, operationType, now)
		return Verdict{
			Allowed: false,
			Reason:  ReasonGlobalRateLimit,
			ResetAt: globalCheck.ResetAt,
		}
	}

	quotaResult := e.quotas.Check(operationType, now)
	if !quotaResult.Allowed {
		e.users.Release(userKey, now)
		e.global.Release(operationType, now)
		// Quota exhaustion is systemic, not principal-specific abuse:
		// the detector is deliberately not notified.
		e.noteQuotaCritical(quotaResult, now)
		return Verdict{
			Allowed:        false,
			Reason:         ReasonQuotaExceeded,
			Severity:       quotaResult.Severity,
			QuotaResource:  quotaResult.Resource,
			QuotaRemaining: quotaResult.Remaining,
		}
	}

	e.quotas.RecordUsage(ctx, operationType, 1, now)

	verdict = Verdict{
		Allowed:         true,
		Reason:          ReasonOK,
		UserRemaining:   effectiveLimit - userCheck.Count - 1,
		GlobalRemaining: globalLimit - globalCheck.Count - 1,
		Priority:        pol.Priority,
	}
	if quotaResult.Severity == quota.SeverityWarning {
		verdict.Severity = quota.SeverityWarning
		verdict.QuotaResource = quotaResult.Resource
		verdict.QuotaRemaining = quotaResult.Remaining
	}
	return verdict
}

// Defer parks a denied operation on the priority queue for a later retry.
// The priority comes from the operation's policy; unknown operations use the
// lowest configured priority plus one.
func (e *Engine) Defer(operationType, principalID string) error {
	priority := 1 << 8 // behind every policy-assigned priority
	if pol, err := e.policies.Get(operationType); err == nil {
		priority = pol.Priority
	}

	err := e.queue.Enqueue(operationType, principalID, priority, e.clock())
	if err != nil {
		return fmt.Errorf("failed to defer %s for %s: %w", operationType, principalID, err)
	}
	if e.metrics != nil {
		e.metrics.UpdateQueueDepth(e.queue.Len())
	}
	return nil
}

// NextDeferred pops the highest-priority deferred operation.
func (e *Engine) NextDeferred() (sched.Entry, bool) {
	entry, ok := e.queue.Dequeue()
	if ok && e.metrics != nil {
		e.metrics.UpdateQueueDepth(e.queue.Len())
	}
	return entry, ok
}

// observe updates counters and metrics for a finished check.
func (e *Engine) observe(operationType string, verdict Verdict, elapsed time.Duration) {
	e.statsMu.Lock()
	e.checks++
	if verdict.Allowed {
		e.allowed++
	} else {
		e.denied[verdict.Reason]++
	}
	e.statsMu.Unlock()

	if !verdict.Allowed {
		// Ordinary denials stay at debug level; only the audit path alerts.
		e.logger.Debug("admission denied",
			"operation", operationType,
			"reason", string(verdict.Reason),
		)
	}

	if e.metrics != nil {
		e.metrics.RecordCheck(operationType, verdict.Allowed)
		if !verdict.Allowed {
			e.metrics.RecordDenial(operationType, verdict.Reason)
		}
		e.metrics.RecordCheckDuration(operationType, elapsed.Seconds())
	}
}

// noteQuotaCritical emits one audit event per resource per exhaustion.
func (e *Engine) noteQuotaCritical(result quota.Result, now time.Time) {
	e.quotaMu.Lock()
	already := e.quotaEvented[result.Resource]
	e.quotaEvented[result.Resource] = true
	e.quotaMu.Unlock()

	if already {
		return
	}

	var used, limit int64
	for _, status := range e.quotas.Status(now) {
		if status.Name == result.Resource {
			used, limit = status.Used, status.Limit
			break
		}
	}
	e.audit.QuotaCritical(result.Resource, used, limit)
}
