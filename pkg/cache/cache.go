// Package cache stores simplification results keyed by their inputs.
//
// # Backends
//
//   - file: one JSON file per entry under the user cache directory (CLI)
//   - redis: a shared Redis instance (server deployments)
//   - null: never stores anything (--no-cache)
//
// # Keys
//
// A [Keyer] derives keys from the content hashes of the input graph and
// the rule set plus every option that changes the result, so a key is
// valid forever and entries only expire to bound storage:
//
//	key := cache.NewDefaultKeyer().SimplifyKey(graphHash, set.Hash(), cache.SimplifyKeyOpts{Iterations: 3})
//	data, hit, err := c.Get(ctx, key)
//
// Use [NewScopedKeyer] to give several deployments sharing one Redis their
// own namespace.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored data and whether the key was present.
	// A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend's resources.
	Close() error
}

// DefaultTTL is the entry lifetime used when none is configured.
const DefaultTTL = 7 * 24 * time.Hour
