package policy

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// OperationPolicy describes the admission rules for one operation type.
// Policies are immutable once loaded into a Registry.
type OperationPolicy struct {
	// Name is the operation type this policy governs, e.g. "SEARCH_ADVANCED".
	Name string

	// BaseLimit is the number of admissions allowed per window for a
	// principal with role multiplier 1.0. Must be positive.
	BaseLimit int

	// Window is the sliding window duration the limit applies to.
	// Must be positive.
	Window time.Duration

	// Priority orders deferred operations; 1 is the highest priority.
	Priority int

	// RoleMultipliers scales BaseLimit per role. A missing role defaults
	// to a multiplier of 1.0.
	RoleMultipliers map[string]float64
}

// EffectiveLimit returns the per-role admission limit:
// floor(BaseLimit × RoleMultipliers[role]), with missing roles treated as 1.0.
func (p *OperationPolicy) EffectiveLimit(role string) int {
	multiplier := 1.0
	if m, ok := p.RoleMultipliers[role]; ok {
		multiplier = m
	}
	return int(math.Floor(float64(p.BaseLimit) * multiplier))
}

// Validate checks the policy invariants.
func (p *OperationPolicy) Validate() error {
	if p.Name == "" {
		return errors.New("policy name cannot be empty")
	}
	if p.BaseLimit <= 0 {
		return fmt.Errorf("policy %q: base limit must be positive, got %d", p.Name, p.BaseLimit)
	}
	if p.Window <= 0 {
		return fmt.Errorf("policy %q: window must be positive, got %v", p.Name, p.Window)
	}
	if p.Priority < 1 {
		return fmt.Errorf("policy %q: priority must be >= 1, got %d", p.Name, p.Priority)
	}
	for role, m := range p.RoleMultipliers {
		if m < 0 {
			return fmt.Errorf("policy %q: negative multiplier %v for role %q", p.Name, m, role)
		}
	}
	return nil
}

// ErrNotFound is returned by Registry.Get for unknown operation types.
// Callers treat this as a soft condition and fail open.
var ErrNotFound = errors.New("operation policy not found")
