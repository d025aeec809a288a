package credentials

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cached is a single-value cache with TTL and single-flight refresh. The first
// caller to observe a missing or expired value performs the refresh; concurrent
// callers block on that refresh and share its result, success or error. A
// failed refresh leaves the cache empty so the next call retries from scratch.
type Cached[T any] struct {
	mu        sync.RWMutex
	value     T
	valid     bool
	expiresAt time.Time

	// gen rises on every Invalidate; a refresh that started before an
	// invalidation must not publish its stale result.
	gen uint64

	flight singleflight.Group

	// now is swapped in tests.
	now func() time.Time
}

// NewCached creates an empty cache.
func NewCached[T any]() *Cached[T] {
	return &Cached[T]{now: time.Now}
}

// Get returns the cached value if present and unexpired, otherwise runs refresh
// exactly once across concurrent callers. refresh returns the new value and its
// expiry; a zero expiry means the value does not age out here.
func (c *Cached[T]) Get(ctx context.Context, refresh func(ctx context.Context) (T, time.Time, error)) (T, error) {
	if v, ok := c.Peek(); ok {
		return v, nil
	}

	result, err, _ := c.flight.Do("refresh", func() (any, error) {
		// A caller that joined late may find the value already refreshed.
		if v, ok := c.Peek(); ok {
			return v, nil
		}
		c.mu.RLock()
		gen := c.gen
		c.mu.RUnlock()

		value, expiresAt, err := refresh(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.value = value
			c.expiresAt = expiresAt
			c.valid = true
		}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

// Peek returns the cached value without refreshing.
func (c *Cached[T]) Peek() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid {
		var zero T
		return zero, false
	}
	if !c.expiresAt.IsZero() && !c.now().Before(c.expiresAt) {
		var zero T
		return zero, false
	}
	return c.value, true
}

// Invalidate clears the cache, forcing the next Get to refresh.
func (c *Cached[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.value = zero
	c.valid = false
	c.expiresAt = time.Time{}
	c.gen++
}
