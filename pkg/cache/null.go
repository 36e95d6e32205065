package cache

import (
	"context"
	"time"
)

// NullCache stores nothing. Every lookup misses, so a runner holding one
// simplifies each circuit from scratch. The CLI selects it for --no-cache
// and when the configured backend cannot be opened.
type NullCache struct{}

var _ Cache = NullCache{}

// NewNullCache returns a cache that discards every result.
func NewNullCache() Cache { return NullCache{} }

// Get reports a miss for every key.
func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards data.
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NullCache) Delete(context.Context, string) error { return nil }

func (NullCache) Close() error { return nil }
