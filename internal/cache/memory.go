// internal/cache/memory.go
package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	transactionID int64
	expiresAt     time.Time
}

// MemoryIdempotencyCache implements IdempotencyCache in process memory.
// Suitable for single-instance deployments and tests.
type MemoryIdempotencyCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryIdempotencyCache starts a cache with a background sweeper for expired entries.
func NewMemoryIdempotencyCache() *MemoryIdempotencyCache {
	c := &MemoryIdempotencyCache{
		entries:  make(map[string]entry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	c.wg.Add(1)
	go c.cleanupLoop(5 * time.Minute)
	return c
}

func (c *MemoryIdempotencyCache) Get(_ context.Context, key string) (int64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return 0, false, nil
	}
	return e.transactionID, true, nil
}

func (c *MemoryIdempotencyCache) Put(_ context.Context, key string, transactionID int64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[key]; ok && now.Before(e.expiresAt) {
		return nil // first mapping wins
	}
	c.entries[key] = entry{transactionID: transactionID, expiresAt: now.Add(ttl)}
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (c *MemoryIdempotencyCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// Size returns the number of stored entries, expired ones included.
func (c *MemoryIdempotencyCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryIdempotencyCache) cleanupLoop(every time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *MemoryIdempotencyCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

var _ IdempotencyCache = (*MemoryIdempotencyCache)(nil)
