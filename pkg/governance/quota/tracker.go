package quota

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"casesdash/sentinel/pkg/governance/storage"
)

// Tracker tracks the run-scoped execution-time budget and the daily shared
// resource budgets.
//
// Daily usage accumulates monotonically until the reset boundary passes, then
// resets to zero exactly once while the boundary advances one period. The
// check path never blocks: the persistent store is consulted only at startup
// and written behind the usage lock.
type Tracker struct {
	mu sync.Mutex

	started      time.Time
	execWarning  time.Duration
	execCritical time.Duration
	execWarned   bool
	resetHourUTC int
	resources    []*dailyResource
	store        storage.Store
	logger       *slog.Logger
}

// dailyResource is the live state for one daily shared budget.
type dailyResource struct {
	name       string
	limit      int64
	warnAt     int64
	critAt     int64
	used       int64
	resetAt    time.Time
	operations map[string]bool // empty means all operations
}

// NewTracker creates a quota tracker.
//
// The store may be nil, in which case an in-memory store is used and daily
// counters do not survive restarts. Persisted counter values are loaded at
// construction so a restart mid-day resumes where it left off.
func NewTracker(cfg Config, store storage.Store, logger *slog.Logger) (*Tracker, error) {
	if cfg.ExecutionWarning <= 0 {
		cfg.ExecutionWarning = 4 * time.Minute
	}
	if cfg.ExecutionCritical <= 0 {
		cfg.ExecutionCritical = 5 * time.Minute
	}
	if cfg.ExecutionCritical < cfg.ExecutionWarning {
		return nil, fmt.Errorf("execution critical threshold %v below warning %v",
			cfg.ExecutionCritical, cfg.ExecutionWarning)
	}
	if cfg.ResetHourUTC < 0 || cfg.ResetHourUTC > 23 {
		return nil, fmt.Errorf("reset hour must be 0-23, got %d", cfg.ResetHourUTC)
	}
	if store == nil {
		store = storage.NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}

	now := time.Now()
	t := &Tracker{
		started:      now,
		execWarning:  cfg.ExecutionWarning,
		execCritical: cfg.ExecutionCritical,
		resetHourUTC: cfg.ResetHourUTC,
		store:        store,
		logger:       logger.With("component", "quota.tracker"),
	}

	for _, rc := range cfg.Daily {
		if rc.Name == "" {
			return nil, fmt.Errorf("daily resource name cannot be empty")
		}
		if rc.Limit <= 0 {
			return nil, fmt.Errorf("daily resource %q: limit must be positive, got %d", rc.Name, rc.Limit)
		}
		warnAt := rc.WarningAt
		if warnAt <= 0 {
			warnAt = 0.8
		}
		critAt := rc.CriticalAt
		if critAt <= 0 {
			critAt = 0.95
		}
		if critAt < warnAt {
			return nil, fmt.Errorf("daily resource %q: critical fraction %v below warning %v",
				rc.Name, critAt, warnAt)
		}

		res := &dailyResource{
			name:       rc.Name,
			limit:      rc.Limit,
			warnAt:     int64(float64(rc.Limit) * warnAt),
			critAt:     int64(float64(rc.Limit) * critAt),
			resetAt:    nextDailyReset(now, cfg.ResetHourUTC),
			operations: make(map[string]bool, len(rc.Operations)),
		}
		for _, op := range rc.Operations {
			res.operations[op] = true
		}

		// Resume persisted usage from a restart mid-period.
		if value, ok, err := store.Get(context.Background(), res.name); err != nil {
			t.logger.Warn("failed to load persisted counter", "resource", res.name, "error", err)
		} else if ok {
			res.used = value
		}

		t.resources = append(t.resources, res)
	}

	return t, nil
}

// StartedAt returns when the run-scoped execution budget started counting.
func (t *Tracker) StartedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// SetStarted overrides the run start instant. Intended for tests and for
// hosts that construct the tracker before the governed run actually begins.
func (t *Tracker) SetStarted(start time.Time) {
	t.mu.Lock()
	t.started = start
	t.execWarned = false
	t.mu.Unlock()
}

// Check verifies the execution-time budget and every daily resource the
// operation is charged against. Warning severity allows but flags; critical
// severity denies.
func (t *Tracker) Check(operationType string, now time.Time) Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Run-scoped execution time first: it bounds the whole process.
	elapsed := now.Sub(t.started)
	if elapsed >= t.execCritical {
		return Result{
			Allowed:  false,
			Severity: SeverityCritical,
			Resource: ExecutionTimeResource,
			Reason:   fmt.Sprintf("execution time %v exceeded critical threshold %v", elapsed.Round(time.Second), t.execCritical),
		}
	}
	if elapsed >= t.execWarning && !t.execWarned {
		t.execWarned = true
		t.logger.Warn("execution time approaching limit",
			"elapsed", elapsed.Round(time.Second),
			"critical", t.execCritical,
		)
	}

	result := Result{Allowed: true, Severity: SeverityOK}
	for _, res := range t.resources {
		if !res.applies(operationType) {
			continue
		}
		res.maybeReset(now, t.resetHourUTC)

		if res.used >= res.critAt {
			return Result{
				Allowed:   false,
				Severity:  SeverityCritical,
				Resource:  res.name,
				Reason:    fmt.Sprintf("daily quota for %s exhausted (%d/%d)", res.name, res.used, res.limit),
				Remaining: maxInt64(0, res.limit-res.used),
			}
		}
		if res.used >= res.warnAt && result.Severity == SeverityOK {
			result.Severity = SeverityWarning
			result.Resource = res.name
			result.Reason = fmt.Sprintf("daily quota for %s above warning threshold (%d/%d)", res.name, res.used, res.limit)
			result.Remaining = maxInt64(0, res.limit-res.used)
		}
	}

	return result
}

// RecordUsage charges weight units against every resource the operation
// applies to. Called only after a successful admission. Store failures are
// logged but never fail the admission: durability is best effort.
func (t *Tracker) RecordUsage(ctx context.Context, operationType string, weight int64, now time.Time) {
	if weight <= 0 {
		weight = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, res := range t.resources {
		if !res.applies(operationType) {
			continue
		}
		res.maybeReset(now, t.resetHourUTC)
		res.used += weight

		ttl := res.resetAt.Sub(now)
		if _, err := t.store.Increment(ctx, res.name, weight, ttl); err != nil {
			t.logger.Warn("failed to persist counter", "resource", res.name, "error", err)
		}
	}
}

// Rollover advances any resource whose reset boundary has passed.
// Returns the number of resources rolled over. Safe to call repeatedly;
// a second call with no intervening time passage is a no-op.
func (t *Tracker) Rollover(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	rolled := 0
	for _, res := range t.resources {
		if res.maybeReset(now, t.resetHourUTC) {
			rolled++
		}
	}
	return rolled
}

// Status returns a read-only snapshot of every resource for dashboards.
// This is the only path other components may use without going through
// admission control.
func (t *Tracker) Status(now time.Time) []ResourceStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	statuses := make([]ResourceStatus, 0, len(t.resources)+1)

	elapsed := now.Sub(t.started)
	execSeverity := SeverityOK
	if elapsed >= t.execCritical {
		execSeverity = SeverityCritical
	} else if elapsed >= t.execWarning {
		execSeverity = SeverityWarning
	}
	statuses = append(statuses, ResourceStatus{
		Name:       ExecutionTimeResource,
		Limit:      int64(t.execCritical.Seconds()),
		Used:       int64(elapsed.Seconds()),
		Remaining:  maxInt64(0, int64((t.execCritical - elapsed).Seconds())),
		Percentage: float64(elapsed) / float64(t.execCritical),
		Severity:   execSeverity,
	})

	for _, res := range t.resources {
		res.maybeReset(now, t.resetHourUTC)
		severity := SeverityOK
		if res.used >= res.critAt {
			severity = SeverityCritical
		} else if res.used >= res.warnAt {
			severity = SeverityWarning
		}
		statuses = append(statuses, ResourceStatus{
			Name:       res.name,
			Limit:      res.limit,
			Used:       res.used,
			Remaining:  maxInt64(0, res.limit-res.used),
			Percentage: float64(res.used) / float64(res.limit),
			Severity:   severity,
			ResetAt:    res.resetAt,
		})
	}

	return statuses
}

// Reset zeroes every daily counter and restarts the execution clock.
// Intended for admin resets and tests.
func (t *Tracker) Reset(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.started = now
	t.execWarned = false
	for _, res := range t.resources {
		res.used = 0
		res.resetAt = nextDailyReset(now, t.resetHourUTC)
		if err := t.store.Set(context.Background(), res.name, 0, res.resetAt.Sub(now)); err != nil {
			t.logger.Warn("failed to persist counter reset", "resource", res.name, "error", err)
		}
	}
}

// CleanupStore removes expired counters from the persistent store.
func (t *Tracker) CleanupStore(ctx context.Context, now time.Time) (int, error) {
	return t.store.Cleanup(ctx, now)
}

// applies reports whether the operation is charged against this resource.
func (r *dailyResource) applies(operationType string) bool {
	if len(r.operations) == 0 {
		return true
	}
	return r.operations[operationType]
}

// maybeReset zeroes usage the first time now crosses the reset boundary and
// advances the boundary one period at a time. Must be called with the
// tracker lock held. Returns true if a rollover happened.
func (r *dailyResource) maybeReset(now time.Time, resetHourUTC int) bool {
	if now.Before(r.resetAt) {
		return false
	}
	r.used = 0
	r.resetAt = nextDailyReset(now, resetHourUTC)
	return true
}

// nextDailyReset returns the next instant after now at the fixed daily
// reset hour, in UTC.
func nextDailyReset(now time.Time, resetHourUTC int) time.Time {
	utc := now.UTC()
	boundary := time.Date(utc.Year(), utc.Month(), utc.Day(), resetHourUTC, 0, 0, 0, time.UTC)
	if !boundary.After(utc) {
		boundary = boundary.Add(24 * time.Hour)
	}
	return boundary
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
