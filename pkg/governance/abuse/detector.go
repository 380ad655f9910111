package abuse

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Config contains tuning for the abuse detector.
type Config struct {
	// ViolationWindow is how long violations stay relevant. Default: 1 hour.
	ViolationWindow time.Duration

	// Threshold is the pruned violation count that creates a block.
	// Default: 5.
	Threshold int

	// BlockStep is the per-violation block duration. Default: 60s.
	BlockStep time.Duration

	// MaxBlock caps the block duration. Default: 1 hour.
	MaxBlock time.Duration

	// OnBlock is invoked exactly once per block creation, for auditing.
	// May be nil.
	OnBlock func(principalID, operationType string, until time.Time, violations int)
}

// BlockInfo is a snapshot of one active block.
type BlockInfo struct {
	PrincipalID   string    `json:"principal_id"`
	OperationType string    `json:"operation_type"`
	BlockedUntil  time.Time `json:"blocked_until"`
}

// Detector watches denials per (principal, operation type) and escalates
// repeat offenders to temporary blocks.
type Detector struct {
	mu         sync.Mutex
	cfg        Config
	violations map[string][]time.Time
	blocks     map[string]time.Time
	logger     *slog.Logger
}

// NewDetector creates an abuse detector with the given configuration.
// Zero config values fall back to the defaults documented on Config.
func NewDetector(cfg Config, logger *slog.Logger) *Detector {
	if cfg.ViolationWindow <= 0 {
		cfg.ViolationWindow = time.Hour
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.BlockStep <= 0 {
		cfg.BlockStep = time.Minute
	}
	if cfg.MaxBlock <= 0 {
		cfg.MaxBlock = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Detector{
		cfg:        cfg,
		violations: make(map[string][]time.Time),
		blocks:     make(map[string]time.Time),
		logger:     logger.With("component", "abuse.detector"),
	}
}

// RecordViolation appends a denial to the pair's rolling violation log and
// creates a block once the pruned count reaches the threshold.
func (d *Detector) RecordViolation(principalID, operationType string, now time.Time) {
	key := pairKey(principalID, operationType)

	d.mu.Lock()

	log := append(d.violations[key], now)
	log = pruneBefore(log, now.Add(-d.cfg.ViolationWindow))
	d.violations[key] = log

	count := len(log)
	if count < d.cfg.Threshold {
		d.mu.Unlock()
		return
	}

	duration := time.Duration(count) * d.cfg.BlockStep
	if duration > d.cfg.MaxBlock {
		duration = d.cfg.MaxBlock
	}
	until := now.Add(duration)

	// Extending an existing block on further violations is fine; only a
	// genuinely new or extended block is announced.
	previous, blocked := d.blocks[key]
	d.blocks[key] = until
	onBlock := d.cfg.OnBlock
	d.mu.Unlock()

	if blocked && !until.After(previous) {
		return
	}

	d.logger.Warn("principal blocked for repeated violations",
		"principal", principalID,
		"operation", operationType,
		"violations", count,
		"blocked_until", until,
	)
	if onBlock != nil {
		onBlock(principalID, operationType, until, count)
	}
}

// IsBlocked reports whether the pair is currently blocked.
// Expired block records are removed lazily here.
func (d *Detector) IsBlocked(principalID, operationType string, now time.Time) (bool, time.Time) {
	key := pairKey(principalID, operationType)

	d.mu.Lock()
	defer d.mu.Unlock()

	until, ok := d.blocks[key]
	if !ok {
		return false, time.Time{}
	}
	if !now.Before(until) {
		delete(d.blocks, key)
		return false, time.Time{}
	}
	return true, until
}

// Reset clears violations and blocks for a principal. An empty operation
// type clears every operation for that principal.
func (d *Detector) Reset(principalID, operationType string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if operationType != "" {
		key := pairKey(principalID, operationType)
		delete(d.violations, key)
		delete(d.blocks, key)
		return
	}

	prefix := principalID + ":"
	for key := range d.violations {
		if strings.HasPrefix(key, prefix) {
			delete(d.violations, key)
		}
	}
	for key := range d.blocks {
		if strings.HasPrefix(key, prefix) {
			delete(d.blocks, key)
		}
	}
}

// Cleanup prunes stale violation logs and drops expired blocks.
// Returns the number of evicted violation keys and expired blocks.
func (d *Detector) Cleanup(now time.Time) (evictedLogs, expiredBlocks int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := now.Add(-d.cfg.ViolationWindow)
	for key, log := range d.violations {
		log = pruneBefore(log, cutoff)
		if len(log) == 0 {
			delete(d.violations, key)
			evictedLogs++
			continue
		}
		d.violations[key] = log
	}

	for key, until := range d.blocks {
		if !now.Before(until) {
			delete(d.blocks, key)
			expiredBlocks++
		}
	}
	return evictedLogs, expiredBlocks
}

// ActiveBlocks returns a snapshot of blocks still in effect.
func (d *Detector) ActiveBlocks(now time.Time) []BlockInfo {
	d.mu.Lock()
	defer d.mu.Unlock()

	var active []BlockInfo
	for key, until := range d.blocks {
		if !now.Before(until) {
			continue
		}
		principal, operation := splitPairKey(key)
		active = append(active, BlockInfo{
			PrincipalID:   principal,
			OperationType: operation,
			BlockedUntil:  until,
		})
	}
	return active
}

// pairKey builds the (principal, operation type) map key.
func pairKey(principalID, operationType string) string {
	return principalID + ":" + operationType
}

// splitPairKey splits on the last separator so principal IDs containing
// colons round-trip as long as operation types never do.
func splitPairKey(key string) (principalID, operationType string) {
	idx := strings.LastIndex(key, ":")
	if idx < 0 {
		return key, ""
	}
	return key[:idx], key[idx+1:]
}

// pruneBefore drops timestamps at or before the cutoff.
// Timestamps arrive in order, so the retained suffix stays sorted.
func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	keep := 0
	for keep < len(stamps) && !stamps[keep].After(cutoff) {
		keep++
	}
	if keep == 0 {
		return stamps
	}
	return append(stamps[:0], stamps[keep:]...)
}
