package cache

import (
	"sync"
	"time"
)

// Clock returns the current time. It is replaced in tests.
type Clock func() time.Time

// Option configures a TTLCache or Slot.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock overrides the time source used for storedAt and expiry checks.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TTLCache is a concurrency-safe map whose entries expire ttl after they
// were stored. There is no capacity bound.
type TTLCache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     Clock
}

// New creates a TTLCache whose entries stay valid for ttl.
func New[V any](ttl time.Duration, opts ...Option) *TTLCache[V] {
	o := buildOptions(opts)
	return &TTLCache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     o.clock,
	}
}

// Get returns the value stored under key if it is still fresh.
// Missing and expired entries are indistinguishable to the caller.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !c.fresh(e.storedAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, replacing any previous entry, and stamps it
// with the current time.
func (c *TTLCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
}

// StoredAt reports when key was last written, whether or not it is fresh.
func (c *TTLCache[V]) StoredAt(key string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return e.storedAt, ok
}

// Len returns the number of stored entries, including expired ones that
// have not been overwritten or swept yet.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// TTL returns the configured time-to-live.
func (c *TTLCache[V]) TTL() time.Duration {
	return c.ttl
}

// Sweep removes expired entries and returns how many were removed.
// Fresh entries are never touched.
func (c *TTLCache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if !c.fresh(e.storedAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// fresh must be called with mu held.
func (c *TTLCache[V]) fresh(storedAt time.Time) bool {
	return c.now().Sub(storedAt) < c.ttl
}
