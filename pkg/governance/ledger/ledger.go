package ledger

import (
	"hash/fnv"
	"strings"
	"sync"
	"time"
)

// shardCount is the number of independent lock shards.
// Power of two so the hash folds without a modulo bias.
const shardCount = 32

// Ledger tracks sliding-window admissions per key.
//
// Keys for the principal-scoped ledger are built with Key(); the global
// ledger uses the bare operation type as its key.
type Ledger struct {
	shards [shardCount]*shard
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*keyedWindow
}

// keyedWindow pairs a key's timestamps with the window duration it was last
// checked against, so the periodic cleanup can prune with the right cutoff.
type keyedWindow struct {
	win usageWindow
	dur time.Duration
}

// New creates an empty ledger.
func New() *Ledger {
	l := &Ledger{}
	for i := range l.shards {
		l.shards[i] = &shard{windows: make(map[string]*keyedWindow)}
	}
	return l
}

// Key builds the principal-scoped ledger key for an operation.
func Key(principalID, operationType string) string {
	return principalID + ":" + operationType
}

// Admit evaluates the sliding window for a key and, if there is room,
// records the admission in the same critical section so concurrent callers
// can never push a key past its limit.
//
// All timestamps at or before now-window are pruned first. If the remaining
// count has reached the limit the check is denied, with ResetAt set to the
// oldest retained timestamp plus the window duration. Count is the count
// before this admission. A tentative admission that a later check rejects is
// undone with Release.
func (l *Ledger) Admit(key string, limit int, window time.Duration, now time.Time) CheckResult {
	s := l.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	kw, ok := s.windows[key]
	if !ok {
		kw = &keyedWindow{}
		s.windows[key] = kw
	}
	kw.dur = window
	kw.win.prune(now.Add(-window))

	count := kw.win.len()
	if count >= limit {
		return CheckResult{
			Admitted: false,
			Count:    count,
			Limit:    limit,
			ResetAt:  kw.win.oldest().Add(window),
		}
	}

	kw.win.append(now)
	return CheckResult{
		Admitted: true,
		Count:    count,
		Limit:    limit,
	}
}

// Release undoes one admission recorded at the given instant.
func (l *Ledger) Release(key string, stamp time.Time) {
	s := l.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if kw, ok := s.windows[key]; ok {
		kw.win.removeLast(stamp)
	}
}

// Count returns the number of admissions inside the window for a key.
// Prunes lazily like CheckAndAdmit, so status reads stay accurate.
func (l *Ledger) Count(key string, window time.Duration, now time.Time) int {
	s := l.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	kw, ok := s.windows[key]
	if !ok {
		return 0
	}
	kw.win.prune(now.Add(-window))
	return kw.win.len()
}

// Delete removes a single key.
func (l *Ledger) Delete(key string) {
	s := l.shard(key)
	s.mu.Lock()
	delete(s.windows, key)
	s.mu.Unlock()
}

// DeletePrefix removes every key with the given prefix.
// Used by admin resets to clear all of a principal's windows at once.
func (l *Ledger) DeletePrefix(prefix string) int {
	deleted := 0
	for _, s := range l.shards {
		s.mu.Lock()
		for key := range s.windows {
			if strings.HasPrefix(key, prefix) {
				delete(s.windows, key)
				deleted++
			}
		}
		s.mu.Unlock()
	}
	return deleted
}

// Cleanup prunes every key with its own window duration and evicts keys
// whose windows drained empty. Pruning is monotonic, so this may run
// concurrently with admission checks. Returns the number of evicted keys.
func (l *Ledger) Cleanup(now time.Time) int {
	evicted := 0
	for _, s := range l.shards {
		s.mu.Lock()
		for key, kw := range s.windows {
			if kw.dur > 0 {
				kw.win.prune(now.Add(-kw.dur))
			}
			if kw.win.len() == 0 {
				delete(s.windows, key)
				evicted++
			}
		}
		s.mu.Unlock()
	}
	return evicted
}

// KeyCount returns the number of live keys across all shards.
func (l *Ledger) KeyCount() int {
	count := 0
	for _, s := range l.shards {
		s.mu.Lock()
		count += len(s.windows)
		s.mu.Unlock()
	}
	return count
}

func (l *Ledger) shard(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return l.shards[h.Sum32()&(shardCount-1)]
}
