// Package cache is a small in-process TTL cache with single-flight loading.
// Negative results can be cached separately so a failing upstream is not
// asked again for every request.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type Options struct {
	TTL         time.Duration
	NegativeTTL time.Duration
	MaxEntries  int
}

// Hooks are optional observers, typically wired to Prometheus counters.
type Hooks struct {
	OnHit   func()
	OnMiss  func()
	OnStore func(ok bool)
}

type entry[V any] struct {
	value     V
	err       error
	expiresAt time.Time
	negative  bool
}

type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]*entry[V]
	order []string
	opts  Options
	hooks Hooks
	sf    singleflight.Group
	now   func() time.Time
}

func New[V any](opts Options, hooks Hooks) *Cache[V] {
	return &Cache[V]{
		items: make(map[string]*entry[V]),
		order: make([]string, 0, 128),
		opts:  opts,
		hooks: hooks,
		now:   time.Now,
	}
}

// Loader resolves a key. ok=false marks a negative result.
type Loader[V any] func(ctx context.Context, key string) (V, bool, error)

type loadResult[V any] struct {
	val V
	ok  bool
	err error
}

// Get returns the cached value for key, calling loader on a miss. Concurrent
// misses for the same key share one loader call.
func (c *Cache[V]) Get(ctx context.Context, key string, loader Loader[V]) (V, bool, error) {
	var zero V
	now := c.now()

	c.mu.RLock()
	e, found := c.items[key]
	c.mu.RUnlock()

	if found && now.Before(e.expiresAt) {
		if c.hooks.OnHit != nil {
			c.hooks.OnHit()
		}
		if e.negative {
			return zero, false, e.err
		}
		return e.value, true, nil
	}
	if found {
		c.remove(key)
	}

	if c.hooks.OnMiss != nil {
		c.hooks.OnMiss()
	}
	result, _, _ := c.sf.Do(key, func() (interface{}, error) {
		val, ok, err := loader(ctx, key)
		c.store(key, val, ok, err)
		return loadResult[V]{val: val, ok: ok, err: err}, nil
	})
	res := result.(loadResult[V])
	if !res.ok {
		return zero, false, res.err
	}
	return res.val, true, nil
}

func (c *Cache[V]) store(key string, val V, ok bool, err error) {
	now := c.now()
	e := &entry[V]{}
	if ok {
		if c.opts.TTL <= 0 {
			return
		}
		e.value = val
		e.expiresAt = now.Add(c.opts.TTL)
	} else {
		if c.opts.NegativeTTL <= 0 {
			return
		}
		e.err = err
		e.negative = true
		e.expiresAt = now.Add(c.opts.NegativeTTL)
	}

	c.mu.Lock()
	if _, exists := c.items[key]; !exists {
		c.order = append(c.order, key)
	}
	c.items[key] = e
	c.evictIfNeeded()
	c.mu.Unlock()

	if c.hooks.OnStore != nil {
		c.hooks.OnStore(ok)
	}
}

// remove drops key from the cache.
func (c *Cache[V]) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; !ok {
		return
	}
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// evictIfNeeded drops the oldest inserted keys. Caller holds c.mu.
func (c *Cache[V]) evictIfNeeded() {
	if c.opts.MaxEntries <= 0 {
		return
	}
	for len(c.items) > c.opts.MaxEntries && len(c.order) > 0 {
		victim := c.order[0]
		c.order = c.order[1:]
		delete(c.items, victim)
	}
}

// Len counts stored entries, expired ones included until they are replaced
// or evicted.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
