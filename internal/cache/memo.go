// Package cache memoizes upstream calls for a fixed time window.
//
// A Memo keeps entries in process memory. When a Tier is attached, entries are
// also written there as JSON so other replicas can reuse them; the tier is
// consulted only after a local miss.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/web3-frozen/l2-showdown/internal/metrics"
)

// Tier is a shared second-level store for memo entries.
type Tier interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

type entry[T any] struct {
	value   T
	expires time.Time // zero = never
}

// Memo maps a key to a value and the time it stops being valid.
type Memo[T any] struct {
	name  string
	ttl   time.Duration
	clock clockwork.Clock
	tier  Tier

	mu      sync.Mutex
	entries map[string]entry[T]
	group   singleflight.Group
}

type options struct {
	clock clockwork.Clock
	tier  Tier
}

// Option configures a Memo.
type Option func(*options)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithTier attaches a shared tier. A nil tier is ignored.
func WithTier(t Tier) Option {
	return func(o *options) {
		if t != nil {
			o.tier = t
		}
	}
}

// NewMemo creates a memo named for metrics and tier keys. A ttl <= 0 keeps
// entries for the lifetime of the process and never touches the tier.
func NewMemo[T any](name string, ttl time.Duration, opts ...Option) *Memo[T] {
	o := options{clock: clockwork.NewRealClock()}
	for _, fn := range opts {
		fn(&o)
	}
	m := &Memo[T]{
		name:    name,
		ttl:     ttl,
		clock:   o.clock,
		entries: make(map[string]entry[T]),
	}
	if ttl > 0 {
		m.tier = o.tier
	}
	return m
}

// Get returns the live entry for key, dropping it if it has expired.
func (m *Memo[T]) Get(key string) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	if !e.expires.IsZero() && !m.clock.Now().Before(e.expires) {
		delete(m.entries, key)
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the memo's ttl.
func (m *Memo[T]) Set(key string, value T) {
	e := entry[T]{value: value}
	if m.ttl > 0 {
		e.expires = m.clock.Now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

// Len reports the number of stored entries, expired or not.
func (m *Memo[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Do returns the cached value for key or calls fn. Concurrent misses on the
// same key share one call of fn, made with the first caller's ctx. The result
// is stored only when keep reports true, so failed or partial results are
// re-fetched on the next call.
func (m *Memo[T]) Do(ctx context.Context, key string, fn func(context.Context) T, keep func(T) bool) T {
	if v, ok := m.Get(key); ok {
		metrics.CacheLookups.WithLabelValues(m.name, "hit").Inc()
		return v
	}

	v, _, _ := m.group.Do(m.tierKey(key), func() (any, error) {
		// A flight that finished while we waited for the group may have
		// stored the value already.
		if v, ok := m.Get(key); ok {
			metrics.CacheLookups.WithLabelValues(m.name, "hit").Inc()
			return v, nil
		}
		return m.load(ctx, key, fn, keep), nil
	})
	return v.(T)
}

func (m *Memo[T]) load(ctx context.Context, key string, fn func(context.Context) T, keep func(T) bool) T {
	if m.tier != nil {
		if b, ok := m.tier.Get(ctx, m.tierKey(key)); ok {
			var v T
			if err := json.Unmarshal(b, &v); err == nil {
				metrics.CacheLookups.WithLabelValues(m.name, "shared_hit").Inc()
				m.Set(key, v)
				return v
			}
		}
	}

	metrics.CacheLookups.WithLabelValues(m.name, "miss").Inc()
	v := fn(ctx)
	if keep != nil && !keep(v) {
		return v
	}
	m.Set(key, v)

	if m.tier != nil {
		if b, err := json.Marshal(v); err == nil {
			m.tier.Set(ctx, m.tierKey(key), b, m.ttl)
		}
	}
	return v
}

func (m *Memo[T]) tierKey(key string) string {
	return m.name + ":" + key
}
