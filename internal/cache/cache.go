// Package cache provides the dual-layer result cache: a Redis primary
// reached via rueidis with a process-local LRU fallback. When the
// primary is unreachable, operations silently degrade to the fallback
// so callers never block on a missing cache backend.
package cache

import (
	"context"
	"time"
)

// Backend is a byte-oriented cache store.
// Get returns domain.ErrCacheMiss when the key is absent.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close()
}
