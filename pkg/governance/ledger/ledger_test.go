package ledger

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLedger_AdmitUpToLimit(t *testing.T) {
	l := New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	key := Key("user-1", "CASE_READ")

	for i := 0; i < 3; i++ {
		result := l.Admit(key, 3, time.Minute, now)
		if !result.Admitted {
			t.Fatalf("Admission %d denied, expected allowed", i)
		}
		if result.Count != i {
			t.Errorf("Admission %d: expected prior count %d, got %d", i, i, result.Count)
		}
		now = now.Add(time.Second)
	}

	result := l.Admit(key, 3, time.Minute, now)
	if result.Admitted {
		t.Error("Expected denial after limit reached")
	}
	if result.Count != 3 {
		t.Errorf("Expected count 3, got %d", result.Count)
	}
}

func TestLedger_ResetAtIsOldestPlusWindow(t *testing.T) {
	l := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	key := Key("user-1", "CASE_READ")

	// Admissions at t=0s, 1s, 2s against limit 3 per 60s
	for i := 0; i < 3; i++ {
		now := base.Add(time.Duration(i) * time.Second)
		if !l.Admit(key, 3, time.Minute, now).Admitted {
			t.Fatalf("Admission at t=%ds denied", i)
		}
	}

	result := l.Admit(key, 3, time.Minute, base.Add(3*time.Second))
	if result.Admitted {
		t.Fatal("Expected denial at t=3s")
	}
	want := base.Add(time.Minute) // oldest (t=0) + window
	if !result.ResetAt.Equal(want) {
		t.Errorf("Expected reset at %v, got %v", want, result.ResetAt)
	}
}

func TestLedger_SlidingWindowFreesOneSlot(t *testing.T) {
	l := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	key := Key("user-1", "CASE_READ")

	for i := 0; i < 3; i++ {
		l.Admit(key, 3, time.Minute, base.Add(time.Duration(i)*time.Second))
	}

	// Once the oldest admission ages out, exactly one slot is free again
	now := base.Add(60*time.Second + 500*time.Millisecond)
	if !l.Admit(key, 3, time.Minute, now).Admitted {
		t.Fatal("Expected admission once oldest timestamp aged out")
	}

	// The admissions at t=1s and t=2s are still inside the window
	if l.Admit(key, 3, time.Minute, now.Add(100*time.Millisecond)).Admitted {
		t.Error("Expected denial, only one slot should have opened")
	}
}

func TestLedger_BoundaryTimestampExcluded(t *testing.T) {
	l := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	key := Key("user-1", "CASE_READ")

	l.Admit(key, 10, time.Minute, base)

	// A timestamp exactly window-old no longer counts
	if got := l.Count(key, time.Minute, base.Add(time.Minute)); got != 0 {
		t.Errorf("Expected boundary timestamp pruned, count %d", got)
	}
}

func TestLedger_Release(t *testing.T) {
	l := New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	key := Key("user-1", "CASE_READ")

	if !l.Admit(key, 1, time.Minute, now).Admitted {
		t.Fatal("First admission denied")
	}
	if l.Admit(key, 1, time.Minute, now).Admitted {
		t.Fatal("Expected denial at limit")
	}

	// Rolling back the tentative admission reopens the slot
	l.Release(key, now)
	if !l.Admit(key, 1, time.Minute, now).Admitted {
		t.Error("Expected admission after release")
	}

	// Releasing an unknown stamp is a no-op
	l.Release(key, now.Add(time.Hour))
	if got := l.Count(key, time.Minute, now); got != 1 {
		t.Errorf("Expected count 1 after spurious release, got %d", got)
	}
}

func TestLedger_KeysIndependent(t *testing.T) {
	l := New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	l.Admit(Key("user-1", "CASE_READ"), 100, time.Minute, now)
	l.Admit(Key("user-1", "CASE_READ"), 100, time.Minute, now)
	l.Admit(Key("user-2", "CASE_READ"), 100, time.Minute, now)

	if got := l.Count(Key("user-1", "CASE_READ"), time.Minute, now); got != 2 {
		t.Errorf("Expected user-1 count 2, got %d", got)
	}
	if got := l.Count(Key("user-2", "CASE_READ"), time.Minute, now); got != 1 {
		t.Errorf("Expected user-2 count 1, got %d", got)
	}
	if got := l.Count(Key("user-1", "CASE_CREATE"), time.Minute, now); got != 0 {
		t.Errorf("Expected untouched key count 0, got %d", got)
	}
}

func TestLedger_Delete(t *testing.T) {
	l := New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	key := Key("user-1", "CASE_READ")

	l.Admit(key, 100, time.Minute, now)
	l.Delete(key)

	if got := l.Count(key, time.Minute, now); got != 0 {
		t.Errorf("Expected count 0 after delete, got %d", got)
	}
}

func TestLedger_DeletePrefix(t *testing.T) {
	l := New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	l.Admit(Key("user-1", "CASE_READ"), 100, time.Minute, now)
	l.Admit(Key("user-1", "CASE_CREATE"), 100, time.Minute, now)
	l.Admit(Key("user-2", "CASE_READ"), 100, time.Minute, now)

	deleted := l.DeletePrefix("user-1:")
	if deleted != 2 {
		t.Errorf("Expected 2 keys deleted, got %d", deleted)
	}
	if got := l.Count(Key("user-2", "CASE_READ"), time.Minute, now); got != 1 {
		t.Errorf("Expected user-2 untouched, count %d", got)
	}
}

func TestLedger_CleanupEvictsDrainedKeys(t *testing.T) {
	l := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	key := Key("user-1", "CASE_READ")

	l.Admit(key, 10, time.Minute, base)

	if got := l.KeyCount(); got != 1 {
		t.Fatalf("Expected 1 live key, got %d", got)
	}

	// Before expiry nothing is evicted
	if evicted := l.Cleanup(base.Add(30 * time.Second)); evicted != 0 {
		t.Errorf("Expected 0 evictions before expiry, got %d", evicted)
	}

	// After the window drains the key goes away
	if evicted := l.Cleanup(base.Add(2 * time.Minute)); evicted != 1 {
		t.Errorf("Expected 1 eviction after expiry, got %d", evicted)
	}
	if got := l.KeyCount(); got != 0 {
		t.Errorf("Expected 0 live keys after cleanup, got %d", got)
	}

	// Cleanup is idempotent
	if evicted := l.Cleanup(base.Add(3 * time.Minute)); evicted != 0 {
		t.Errorf("Expected repeated cleanup to evict nothing, got %d", evicted)
	}
}

func TestLedger_ConcurrentNeverExceedsLimit(t *testing.T) {
	l := New()
	now := time.Now()
	key := Key("shared", "CASE_READ")

	var wg sync.WaitGroup
	admitted := make([]int, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if l.Admit(key, 100, time.Minute, now).Admitted {
					admitted[n]++
				}
			}
		}(i)
	}
	wg.Wait()

	total := 0
	for _, n := range admitted {
		total += n
	}
	if total != 100 {
		t.Errorf("Expected exactly 100 admissions, got %d", total)
	}
	if got := l.Count(key, time.Minute, now); got != 100 {
		t.Errorf("Expected recorded count 100, got %d", got)
	}
}

func TestLedger_ManyKeysAcrossShards(t *testing.T) {
	l := New()
	now := time.Now()

	for i := 0; i < 200; i++ {
		l.Admit(Key(fmt.Sprintf("user-%d", i), "CASE_READ"), 10, time.Minute, now)
	}
	if got := l.KeyCount(); got != 200 {
		t.Errorf("Expected 200 live keys, got %d", got)
	}
}
