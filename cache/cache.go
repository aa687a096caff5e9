// Package cache defines the key/value cache contract shared by the in-memory
// and Redis backends.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adeilh/go-keyed/config"
)

// ErrNotFound is wrapped by the error a backend returns when it is asked to
// delete a key it does not hold.
var ErrNotFound = errors.New("cache: key not found")

// Cache is a typed TTL cache. Get reports a missing or expired key as
// found == false with a nil error. A ttl of zero stores without expiry; a
// negative ttl is rejected. The async forms deliver exactly one result on the
// returned channel and are never reordered against later calls on the same
// key of the same cache.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (value T, found bool, err error)
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	Del(ctx context.Context, key string) error

	GetAsync(ctx context.Context, key string) <-chan Result[T]
	SetAsync(ctx context.Context, key string, value T, ttl time.Duration) <-chan error
	DelAsync(ctx context.Context, key string) <-chan error
}

// Result is what GetAsync delivers.
type Result[T any] struct {
	Value T
	Found bool
	Err   error
}

// InvalidOperationError reports a call whose precondition did not hold, such
// as deleting a key that is not present.
type InvalidOperationError struct {
	Op  string
	Key string
	Err error
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("cache: invalid %s on key %q: %v", e.Op, e.Key, e.Err)
}

func (e *InvalidOperationError) Unwrap() error { return e.Err }

func missingKey(op, key string) error {
	return &InvalidOperationError{Op: op, Key: key, Err: ErrNotFound}
}

// MissingKey is the error backends return from Del on an absent key.
func MissingKey(key string) error { return missingKey("del", key) }

// CheckTTL rejects negative durations with a *config.ValidationError.
func CheckTTL(ttl time.Duration) error {
	if ttl < 0 {
		return config.NewValidationError("ttl", fmt.Sprintf("must not be negative, got %s", ttl))
	}
	return nil
}

// Done returns a closed channel holding v. Backends whose operations never
// block use it for their async forms.
func Done[V any](v V) <-chan V {
	ch := make(chan V, 1)
	ch <- v
	close(ch)
	return ch
}
