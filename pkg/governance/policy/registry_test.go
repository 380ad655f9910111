package policy

import (
	"errors"
	"testing"
	"time"
)

func testPolicies() []OperationPolicy {
	return []OperationPolicy{
		{
			Name:      "CASE_READ",
			BaseLimit: 120,
			Window:    time.Minute,
			Priority:  1,
			RoleMultipliers: map[string]float64{
				"admin":     3.0,
				"user":      1.0,
				"anonymous": 0.5,
			},
		},
		{
			Name:      "EXPORT_BULK",
			BaseLimit: 5,
			Window:    10 * time.Minute,
			Priority:  5,
			RoleMultipliers: map[string]float64{
				"anonymous": 0.0,
			},
		},
	}
}

func TestRegistry_Get(t *testing.T) {
	r, err := NewRegistry(testPolicies())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	p, err := r.Get("CASE_READ")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.BaseLimit != 120 {
		t.Errorf("Expected base limit 120, got %d", p.BaseLimit)
	}

	if _, err := r.Get("UNKNOWN_OP"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown operation, got %v", err)
	}
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	policies := testPolicies()
	policies = append(policies, policies[0])

	if _, err := NewRegistry(policies); err == nil {
		t.Error("Expected error for duplicate policy names")
	}
}

func TestRegistry_ReplaceKeepsOldTableOnFailure(t *testing.T) {
	r, err := NewRegistry(testPolicies())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	bad := []OperationPolicy{{Name: "", BaseLimit: 10, Window: time.Minute, Priority: 1}}
	if err := r.Replace(bad); err == nil {
		t.Fatal("Expected Replace to reject an invalid policy")
	}

	// Old table must still be in effect
	if _, err := r.Get("CASE_READ"); err != nil {
		t.Errorf("Previous table lost after failed Replace: %v", err)
	}
	if r.Len() != 2 {
		t.Errorf("Expected 2 policies after failed Replace, got %d", r.Len())
	}
}

func TestRegistry_ReplaceSwapsAtomically(t *testing.T) {
	r, err := NewRegistry(testPolicies())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	next := []OperationPolicy{
		{Name: "SEARCH_ADVANCED", BaseLimit: 20, Window: time.Minute, Priority: 3},
	}
	if err := r.Replace(next); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	if _, err := r.Get("CASE_READ"); err == nil {
		t.Error("Expected old policy gone after Replace")
	}
	if _, err := r.Get("SEARCH_ADVANCED"); err != nil {
		t.Errorf("Expected new policy present after Replace: %v", err)
	}
}

func TestRegistry_NamesSorted(t *testing.T) {
	r, err := NewRegistry(testPolicies())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "CASE_READ" || names[1] != "EXPORT_BULK" {
		t.Errorf("Expected sorted names [CASE_READ EXPORT_BULK], got %v", names)
	}
}

func TestEffectiveLimit(t *testing.T) {
	p := &OperationPolicy{
		Name:      "CASE_READ",
		BaseLimit: 25,
		Window:    time.Minute,
		Priority:  1,
		RoleMultipliers: map[string]float64{
			"admin":     3.0,
			"anonymous": 0.5,
			"zeroed":    0.0,
		},
	}

	tests := []struct {
		role string
		want int
	}{
		{"admin", 75},
		{"anonymous", 12}, // floor(25 * 0.5)
		{"zeroed", 0},
		{"user", 25}, // missing role defaults to 1.0
	}
	for _, tc := range tests {
		if got := p.EffectiveLimit(tc.role); got != tc.want {
			t.Errorf("EffectiveLimit(%q) = %d, want %d", tc.role, got, tc.want)
		}
	}
}

func TestOperationPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  OperationPolicy
		wantErr bool
	}{
		{
			name:   "valid",
			policy: OperationPolicy{Name: "CASE_READ", BaseLimit: 10, Window: time.Minute, Priority: 1},
		},
		{
			name:    "empty name",
			policy:  OperationPolicy{BaseLimit: 10, Window: time.Minute, Priority: 1},
			wantErr: true,
		},
		{
			name:    "zero limit",
			policy:  OperationPolicy{Name: "X", Window: time.Minute, Priority: 1},
			wantErr: true,
		},
		{
			name:    "zero window",
			policy:  OperationPolicy{Name: "X", BaseLimit: 10, Priority: 1},
			wantErr: true,
		},
		{
			name:    "zero priority",
			policy:  OperationPolicy{Name: "X", BaseLimit: 10, Window: time.Minute},
			wantErr: true,
		},
		{
			name: "negative multiplier",
			policy: OperationPolicy{
				Name: "X", BaseLimit: 10, Window: time.Minute, Priority: 1,
				RoleMultipliers: map[string]float64{"user": -1},
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.policy.Validate()
			if tc.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}
