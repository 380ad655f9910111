package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// storeFactories covers both backends with the same behavioral suite.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "counters.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore failed: %v", err)
			}
			return store
		},
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()

			_, found, err := store.Get(context.Background(), "missing")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if found {
				t.Error("Expected missing counter to report not found")
			}
		})
	}
}

func TestStore_SetAndGet(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			ctx := context.Background()

			if err := store.Set(ctx, "SHEETS_API_CALLS", 42, time.Hour); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			value, found, err := store.Get(ctx, "SHEETS_API_CALLS")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if !found || value != 42 {
				t.Errorf("Expected 42, got %d (found=%v)", value, found)
			}
		})
	}
}

func TestStore_Increment(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			ctx := context.Background()

			// First increment creates the counter
			value, err := store.Increment(ctx, "calls", 3, time.Hour)
			if err != nil {
				t.Fatalf("Increment failed: %v", err)
			}
			if value != 3 {
				t.Errorf("Expected 3, got %d", value)
			}

			value, err = store.Increment(ctx, "calls", 2, time.Hour)
			if err != nil {
				t.Fatalf("Increment failed: %v", err)
			}
			if value != 5 {
				t.Errorf("Expected 5, got %d", value)
			}
		})
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			ctx := context.Background()

			if err := store.Set(ctx, "ephemeral", 10, 30*time.Millisecond); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			time.Sleep(60 * time.Millisecond)

			_, found, err := store.Get(ctx, "ephemeral")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if found {
				t.Error("Expected expired counter to report not found")
			}

			// Increment after expiry restarts from zero
			value, err := store.Increment(ctx, "ephemeral", 4, time.Hour)
			if err != nil {
				t.Fatalf("Increment failed: %v", err)
			}
			if value != 4 {
				t.Errorf("Expected restart from zero, got %d", value)
			}
		})
	}
}

func TestStore_Cleanup(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			ctx := context.Background()

			if err := store.Set(ctx, "stale", 1, 10*time.Millisecond); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := store.Set(ctx, "fresh", 2, time.Hour); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := store.Set(ctx, "forever", 3, 0); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			time.Sleep(30 * time.Millisecond)

			deleted, err := store.Cleanup(ctx, time.Now())
			if err != nil {
				t.Fatalf("Cleanup failed: %v", err)
			}
			if deleted != 1 {
				t.Errorf("Expected 1 deleted counter, got %d", deleted)
			}

			if _, found, _ := store.Get(ctx, "fresh"); !found {
				t.Error("Fresh counter removed by cleanup")
			}
			if _, found, _ := store.Get(ctx, "forever"); !found {
				t.Error("Counter without TTL removed by cleanup")
			}
		})
	}
}

func TestMemoryStore_ClosedReturnsError(t *testing.T) {
	store := NewMemoryStore()
	store.Close()

	if _, _, err := store.Get(context.Background(), "x"); err != ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if err := store.Set(context.Background(), "x", 1, 0); err != ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestSQLiteStore_PersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counters.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if _, err := store.Increment(ctx, "SHEETS_API_CALLS", 123, time.Hour); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	value, found, err := reopened.Get(ctx, "SHEETS_API_CALLS")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found || value != 123 {
		t.Errorf("Expected persisted value 123, got %d (found=%v)", value, found)
	}
}

func TestSQLiteStore_RequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(""); err == nil {
		t.Error("Expected error for empty db path")
	}
}
