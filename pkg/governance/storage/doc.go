// Package storage provides persistence backends for quota counters.
//
// # Overview
//
// The governance engine keeps all rate-limit state in process memory, but daily
// quota counters may optionally survive restarts. This package defines the
// Store interface (a small persistent counter: get, set, increment with TTL)
// and two implementations:
//
//   - MemoryStore: in-memory counters with expiry, the default backend
//   - SQLiteStore: durable counters backed by SQLite
//
// # Usage
//
//	store := storage.NewMemoryStore()
//	n, err := store.Increment(ctx, "SHEETS_API_CALLS", 1, 24*time.Hour)
//
// # Thread Safety
//
// All implementations are safe for concurrent use.
package storage
