package fitcache

import (
	"context"
	"sync"

	"svjfit/internal/model"
)

// Cache wraps a Store with an optional caller-supplied lock. The cache
// itself does no cross-process serialization: when several processes share
// one backing store, the caller must supply a lock whose scope covers one
// hash's read-modify-write cycle.
type Cache struct {
	store Store
	lock  sync.Locker
}

// New builds a cache over the given store. lock may be nil for
// single-process use.
func New(store Store, lock sync.Locker) *Cache {
	return &Cache{store: store, lock: lock}
}

// Get returns the cached result for a hash, if present.
func (c *Cache) Get(ctx context.Context, hash string) (model.FitResult, bool, error) {
	if c == nil {
		return model.FitResult{}, false, nil
	}
	if c.lock != nil {
		c.lock.Lock()
		defer c.lock.Unlock()
	}
	return c.store.Get(ctx, hash)
}

// Write persists a result immediately under its hash.
func (c *Cache) Write(ctx context.Context, hash string, res model.FitResult) error {
	if c == nil {
		return nil
	}
	if c.lock != nil {
		c.lock.Lock()
		defer c.lock.Unlock()
	}
	return c.store.Write(ctx, hash, res)
}
