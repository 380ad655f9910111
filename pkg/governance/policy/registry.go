package policy

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the lookup table of operation policies.
//
// Lookups are read-locked so concurrent admission checks never contend with
// each other; Replace swaps the whole table atomically for hot reloads.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]*OperationPolicy
}

// NewRegistry creates a registry from the given policies.
// Duplicate names and invalid policies are rejected.
func NewRegistry(policies []OperationPolicy) (*Registry, error) {
	r := &Registry{}
	if err := r.Replace(policies); err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns the policy for an operation type, or ErrNotFound.
func (r *Registry) Get(operationType string) (*OperationPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.policies[operationType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, operationType)
	}
	return p, nil
}

// Replace swaps the whole policy table atomically.
// On validation failure the previous table is kept unchanged.
func (r *Registry) Replace(policies []OperationPolicy) error {
	table := make(map[string]*OperationPolicy, len(policies))
	for i := range policies {
		p := policies[i]
		if err := p.Validate(); err != nil {
			return err
		}
		if _, exists := table[p.Name]; exists {
			return fmt.Errorf("duplicate policy %q", p.Name)
		}
		table[p.Name] = &p
	}

	r.mu.Lock()
	r.policies = table
	r.mu.Unlock()
	return nil
}

// Names returns the sorted operation type names in the registry.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered policies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.policies)
}
