// internal/cache/cache.go
package cache

import (
	"context"
	"time"
)

// IdempotencyCache remembers which transaction an idempotency key produced.
// It only accelerates replays; the idempotency_keys table remains authoritative.
type IdempotencyCache interface {
	// Get returns the transaction id stored for key and whether it was found.
	Get(ctx context.Context, key string) (int64, bool, error)
	// Put stores the mapping unless one already exists.
	Put(ctx context.Context, key string, transactionID int64, ttl time.Duration) error
	Close() error
}

// Noop is used when no cache is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (int64, bool, error)        { return 0, false, nil }
func (Noop) Put(context.Context, string, int64, time.Duration) error { return nil }
func (Noop) Close() error                                            { return nil }

var _ IdempotencyCache = Noop{}
