package governance

import (
	"time"

	"casesdash/sentinel/pkg/governance/quota"
)

// Role is the access tier of a principal.
type Role string

const (
	// RoleAdmin is the administrative tier.
	RoleAdmin Role = "admin"

	// RoleTeamLeader is the team-leader tier.
	RoleTeamLeader Role = "teamLeader"

	// RoleUser is the ordinary user tier.
	RoleUser Role = "user"

	// RoleAnonymous is the unauthenticated tier.
	RoleAnonymous Role = "anonymous"
)

// Principal is the identity an operation is attempted on behalf of.
// Resolved per call from caller context; never persisted by the engine.
type Principal struct {
	ID   string
	Role Role
}

// Reason explains an admission verdict.
type Reason string

const (
	// ReasonOK is a plain admission.
	ReasonOK Reason = "ok"

	// ReasonUnknownOperation means no policy exists for the operation
	// type; the engine fails open.
	ReasonUnknownOperation Reason = "unknown_operation"

	// ReasonUserRateLimit means the principal exhausted its own window.
	ReasonUserRateLimit Reason = "user_rate_limit_exceeded"

	// ReasonGlobalRateLimit means the operation's aggregate window is full.
	ReasonGlobalRateLimit Reason = "global_rate_limit_exceeded"

	// ReasonQuotaExceeded means a shared budget is critically exhausted.
	ReasonQuotaExceeded Reason = "quota_exceeded"

	// ReasonBlocked means the principal is temporarily blocked for this
	// operation type after repeated violations.
	ReasonBlocked Reason = "blocked"

	// ReasonCheckFailed means an internal fault occurred and the engine
	// failed open.
	ReasonCheckFailed Reason = "check_failed"
)

// Verdict is the engine's admission decision. Denials are ordinary values,
// not errors; hot-path callers branch on Allowed.
type Verdict struct {
	// Allowed indicates if the operation may proceed.
	Allowed bool `json:"allowed"`

	// Reason explains the verdict.
	Reason Reason `json:"reason"`

	// Severity is set for quota outcomes (warning or critical).
	Severity quota.Severity `json:"severity,omitempty"`

	// ResetAt is when the next slot opens, for rate-limit denials.
	ResetAt time.Time `json:"reset_at,omitempty"`

	// BlockedUntil is when an abuse block expires, for blocked denials.
	BlockedUntil time.Time `json:"blocked_until,omitempty"`

	// UserRemaining is the principal's remaining window budget on allow.
	UserRemaining int `json:"user_remaining,omitempty"`

	// GlobalRemaining is the operation's remaining aggregate budget on allow.
	GlobalRemaining int `json:"global_remaining,omitempty"`

	// QuotaResource names the shared resource that denied or flagged the
	// request.
	QuotaResource string `json:"quota_resource,omitempty"`

	// QuotaRemaining is the remaining budget of QuotaResource.
	QuotaRemaining int64 `json:"quota_remaining,omitempty"`

	// Priority is the operation's scheduling priority on allow
	// (1 is highest), for callers that defer follow-up work.
	Priority int `json:"priority,omitempty"`
}
