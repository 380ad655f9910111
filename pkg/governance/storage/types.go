package storage

import (
	"context"
	"errors"
	"time"
)

// Store is a persistent counter used to back daily quota usage.
// Implementations must be thread-safe and support concurrent access.
//
// Counters carry a TTL so that stale entries disappear on their own once the
// quota period they belong to has passed. A zero TTL means the entry never
// expires.
type Store interface {
	// Get returns the current value for a counter.
	// The second return value is false if the counter does not exist
	// or has expired.
	Get(ctx context.Context, name string) (int64, bool, error)

	// Set overwrites a counter with the given value and TTL.
	Set(ctx context.Context, name string, value int64, ttl time.Duration) error

	// Increment adds delta to a counter and returns the new value.
	// If the counter does not exist or has expired, it is created at delta
	// with the given TTL. An existing counter keeps its original expiry.
	Increment(ctx context.Context, name string, delta int64, ttl time.Duration) (int64, error)

	// Cleanup removes expired counters. Returns the number of entries deleted.
	Cleanup(ctx context.Context, now time.Time) (int, error)

	// Close releases any resources held by the store.
	Close() error
}

// ErrClosed is returned when a store is used after Close.
var ErrClosed = errors.New("counter store is closed")
