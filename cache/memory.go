package cache

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// MemoryOptions configures a Memory cache.
type MemoryOptions struct {
	Clock quartz.Clock
}

type MemoryOption func(*MemoryOptions)

// WithClock replaces the wall clock used to stamp and check expiry.
func WithClock(c quartz.Clock) MemoryOption {
	return func(o *MemoryOptions) {
		o.Clock = c
	}
}

func defaultMemoryOptions() MemoryOptions {
	return MemoryOptions{Clock: quartz.NewReal()}
}

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// alive reports whether e may still be read at now. An entry is valid up to
// and including its expiry instant.
func (e entry[T]) alive(now time.Time) bool {
	return e.expiresAt.IsZero() || !now.After(e.expiresAt)
}

// Memory is an in-process Cache. Expired entries are removed when a read finds
// them; there is no background sweep.
type Memory[T any] struct {
	clock quartz.Clock

	mu      sync.Mutex
	entries map[string]entry[T]
}

var _ Cache[int] = (*Memory[int])(nil)

func NewMemory[T any](opts ...MemoryOption) *Memory[T] {
	o := defaultMemoryOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.Clock == nil {
		o.Clock = quartz.NewReal()
	}
	return &Memory[T]{clock: o.Clock, entries: make(map[string]entry[T])}
}

func (m *Memory[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return zero, false, nil
	}
	if !e.alive(m.clock.Now()) {
		delete(m.entries, key)
		return zero, false, nil
	}
	return e.value, true, nil
}

func (m *Memory[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	if err := CheckTTL(ttl); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := entry[T]{value: value}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl > 0 {
		e.expiresAt = m.clock.Now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// Del removes key. A key that is missing, or expired but not yet read, fails
// with an *InvalidOperationError.
func (m *Memory[T]) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return MissingKey(key)
	}
	delete(m.entries, key)
	if !e.alive(m.clock.Now()) {
		return MissingKey(key)
	}
	return nil
}

// Len reports the number of stored entries, including expired ones that have
// not been read since they expired.
func (m *Memory[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// The async forms complete before returning; nothing here blocks on I/O.

func (m *Memory[T]) GetAsync(ctx context.Context, key string) <-chan Result[T] {
	v, found, err := m.Get(ctx, key)
	return Done(Result[T]{Value: v, Found: found, Err: err})
}

func (m *Memory[T]) SetAsync(ctx context.Context, key string, value T, ttl time.Duration) <-chan error {
	return Done(m.Set(ctx, key, value, ttl))
}

func (m *Memory[T]) DelAsync(ctx context.Context, key string) <-chan error {
	return Done(m.Del(ctx, key))
}
