package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/schemedex/internal/domain"
)

// Compile-time check: Layered implements Backend.
var _ Backend = (*Layered)(nil)

// Layered fronts a primary backend with an in-process LRU fallback.
// Backend failures (not cache misses) degrade to the fallback so a
// broken Redis never breaks the calling flow.
type Layered struct {
	primary  Backend // may be nil when no Redis is configured
	fallback *Memory
	logger   *zap.Logger
}

// NewLayered creates a layered cache. primary may be nil.
func NewLayered(primary Backend, fallback *Memory, logger *zap.Logger) *Layered {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Layered{primary: primary, fallback: fallback, logger: logger}
}

// Get reads from the primary, falling back to memory on backend errors.
func (l *Layered) Get(ctx context.Context, key string) ([]byte, error) {
	if l.primary != nil {
		data, err := l.primary.Get(ctx, key)
		switch {
		case err == nil:
			return data, nil
		case errors.Is(err, domain.ErrCacheMiss):
			return nil, domain.ErrCacheMiss
		default:
			l.logger.Warn("primary cache get failed, using fallback",
				zap.String("key", key), zap.Error(err))
		}
	}
	return l.fallback.Get(ctx, key)
}

// Set writes to the primary, degrading to memory on backend errors.
// The fallback is always written so it stays warm for a failover.
func (l *Layered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := l.fallback.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if l.primary != nil {
		if err := l.primary.Set(ctx, key, value, ttl); err != nil {
			l.logger.Warn("primary cache set failed",
				zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// Delete removes the key from both layers.
func (l *Layered) Delete(ctx context.Context, key string) error {
	_ = l.fallback.Delete(ctx, key)
	if l.primary != nil {
		if err := l.primary.Delete(ctx, key); err != nil {
			l.logger.Warn("primary cache delete failed",
				zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// Ping reports primary health; the fallback keeps the cache usable, so
// a failing primary is surfaced but the layered cache itself stays up.
func (l *Layered) Ping(ctx context.Context) error {
	if l.primary == nil {
		return nil
	}
	return l.primary.Ping(ctx)
}

// Close shuts down both layers.
func (l *Layered) Close() {
	if l.primary != nil {
		l.primary.Close()
	}
	l.fallback.Close()
}
