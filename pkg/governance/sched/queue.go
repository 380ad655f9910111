package sched

import (
	"container/heap"
	"errors"
	"sync"
	"time"
)

// DefaultMaxAge is how long entries may wait before Cleanup drops them.
const DefaultMaxAge = 5 * time.Minute

// ErrQueueFull is returned by Enqueue when the queue is at capacity.
var ErrQueueFull = errors.New("deferred-admission queue is full")

// Entry is one deferred operation waiting for admission.
type Entry struct {
	// OperationType is the operation awaiting admission.
	OperationType string

	// PrincipalID is the principal the operation runs on behalf of.
	PrincipalID string

	// Priority orders entries; 1 is the highest priority.
	Priority int

	// EnqueuedAt is when the entry was parked.
	EnqueuedAt time.Time

	seq int64 // tie-breaker preserving FIFO within a priority
}

// Queue is a thread-safe priority queue of deferred operations.
type Queue struct {
	mu       sync.Mutex
	items    entryHeap
	maxDepth int
	seq      int64
}

// NewQueue creates a queue holding at most maxDepth entries.
// A non-positive maxDepth means unbounded.
func NewQueue(maxDepth int) *Queue {
	return &Queue{maxDepth: maxDepth}
}

// Enqueue parks an operation until a caller dequeues it for a retry.
func (q *Queue) Enqueue(operationType, principalID string, priority int, now time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.maxDepth > 0 && q.items.Len() >= q.maxDepth {
		return ErrQueueFull
	}

	q.seq++
	heap.Push(&q.items, Entry{
		OperationType: operationType,
		PrincipalID:   principalID,
		Priority:      priority,
		EnqueuedAt:    now,
		seq:           q.seq,
	})
	return nil
}

// Dequeue pops the highest-priority entry. The second return value is false
// when the queue is empty.
func (q *Queue) Dequeue() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		return Entry{}, false
	}
	return heap.Pop(&q.items).(Entry), true
}

// Len returns the number of waiting entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Cleanup drops entries older than maxAge. A non-positive maxAge uses
// DefaultMaxAge. Returns the number of dropped entries.
func (q *Queue) Cleanup(maxAge time.Duration, now time.Time) int {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	cutoff := now.Add(-maxAge)

	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	dropped := 0
	for _, e := range q.items {
		if e.EnqueuedAt.Before(cutoff) {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	if dropped > 0 {
		q.items = kept
		heap.Init(&q.items)
	}
	return dropped
}

// entryHeap implements heap.Interface ordered by (priority asc, seq asc).
type entryHeap []Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(Entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
