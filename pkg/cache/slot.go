package cache

import (
	"sync"
	"time"
)

// Slot holds at most one value shared by all callers. It follows the same
// freshness rule as TTLCache.
type Slot[V any] struct {
	mu       sync.Mutex
	value    V
	storedAt time.Time
	set      bool
	ttl      time.Duration
	now      Clock
}

// NewSlot creates an empty Slot whose value stays valid for ttl.
func NewSlot[V any](ttl time.Duration, opts ...Option) *Slot[V] {
	o := buildOptions(opts)
	return &Slot[V]{ttl: ttl, now: o.clock}
}

// Get returns the stored value if one is present and fresh.
func (s *Slot[V]) Get() (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set || s.now().Sub(s.storedAt) >= s.ttl {
		var zero V
		return zero, false
	}
	return s.value, true
}

// Put replaces the stored value and stamps it with the current time.
func (s *Slot[V]) Put(value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = value
	s.storedAt = s.now()
	s.set = true
}

// Last returns whatever value was stored last regardless of its age,
// along with when it was stored.
func (s *Slot[V]) Last() (V, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.storedAt, s.set
}
