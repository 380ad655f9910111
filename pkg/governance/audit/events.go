package audit

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType classifies an audit event.
type EventType string

const (
	// EventBlockCreated is emitted once per abuse-block creation.
	EventBlockCreated EventType = "abuse_block_created"

	// EventQuotaCritical is emitted when a shared quota crosses its
	// critical threshold.
	EventQuotaCritical EventType = "quota_critical"
)

// Event is one auditable governance event.
type Event struct {
	ID            string         `json:"id"`
	Type          EventType      `json:"type"`
	PrincipalID   string         `json:"principal_id,omitempty"`
	OperationType string         `json:"operation_type,omitempty"`
	At            time.Time      `json:"at"`
	Detail        map[string]any `json:"detail,omitempty"`
}

// defaultRetained is how many recent events the recorder keeps in memory.
const defaultRetained = 256

// Recorder writes audit events through structured logging and retains the
// most recent ones for the status surface.
type Recorder struct {
	mu     sync.Mutex
	recent []Event
	next   int
	filled bool
	logger *slog.Logger
}

// NewRecorder creates an audit recorder. A nil logger uses slog.Default.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		recent: make([]Event, defaultRetained),
		logger: logger.With("component", "audit"),
	}
}

// BlockCreated records an abuse-block creation event.
func (r *Recorder) BlockCreated(principalID, operationType string, until time.Time, violations int) {
	event := Event{
		ID:            uuid.NewString(),
		Type:          EventBlockCreated,
		PrincipalID:   principalID,
		OperationType: operationType,
		At:            time.Now(),
		Detail: map[string]any{
			"blocked_until": until,
			"violations":    violations,
		},
	}
	r.record(event)
	r.logger.Warn("audit event",
		"event_id", event.ID,
		"type", string(event.Type),
		"principal", principalID,
		"operation", operationType,
		"blocked_until", until,
		"violations", violations,
	)
}

// QuotaCritical records a critical quota exhaustion event.
func (r *Recorder) QuotaCritical(resource string, used, limit int64) {
	event := Event{
		ID:   uuid.NewString(),
		Type: EventQuotaCritical,
		At:   time.Now(),
		Detail: map[string]any{
			"resource": resource,
			"used":     used,
			"limit":    limit,
		},
	}
	r.record(event)
	r.logger.Error("audit event",
		"event_id", event.ID,
		"type", string(event.Type),
		"resource", resource,
		"used", used,
		"limit", limit,
	)
}

// Recent returns up to n most recent events, newest first.
func (r *Recorder) Recent(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.filled {
		size = len(r.recent)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		idx := (r.next - 1 - i + len(r.recent)) % len(r.recent)
		out = append(out, r.recent[idx])
	}
	return out
}

func (r *Recorder) record(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.recent[r.next] = event
	r.next++
	if r.next == len(r.recent) {
		r.next = 0
		r.filled = true
	}
}
