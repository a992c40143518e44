// Package cache provides the key-value layer shared by every Annexa feature:
// generation result caching, rate-limit counters, and session handoff.
// The preferred backend is a remote TTL-capable store (Redis); when the
// remote store is unconfigured or failing, operations degrade to an
// in-process map without surfacing errors to callers.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist or has expired.
// It is a signal to regenerate, not an error condition for callers.
var ErrNotFound = errors.New("cache: key not found")

// Store abstracts a key-value store with TTL support.
// All operations are safe for concurrent use.
type Store interface {
	// Get retrieves the value associated with key.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL. A zero TTL means the entry
	// does not expire (or uses the implementation's default expiration).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Ping verifies connectivity to the underlying backend.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store implementation.
	Close() error
}
