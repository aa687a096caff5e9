package config

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Repository hands out an instance built from resolved keys. Callers cannot
// tell whether it is shared (Singleton) or rebuilt each time (Transient).
type Repository[T any] interface {
	Instance(ctx context.Context) (T, error)
}

// BuildFunc constructs an instance from cfg. Validation errors raised while
// resolving keys are returned unchanged.
type BuildFunc[T any] func(ctx context.Context, cfg Resolver) (T, error)

// ErrClosed is returned to callers whose build was overtaken by Close. The
// instance such a build produced is closed rather than cached.
var ErrClosed = errors.New("config: repository closed during build")

// Singleton builds its instance on the first successful call and returns it
// for the lifetime of the repository. Concurrent first callers share one
// build. A failed build is not cached; the next call builds again.
type Singleton[T any] struct {
	cfg   Resolver
	build BuildFunc[T]

	group singleflight.Group

	mu       sync.RWMutex
	instance T
	built    bool
	// gen counts Close calls. A build started under an older gen is stale.
	gen uint64
}

var _ Repository[int] = (*Singleton[int])(nil)

func NewSingleton[T any](cfg Resolver, build BuildFunc[T]) *Singleton[T] {
	return &Singleton[T]{cfg: cfg, build: build}
}

func (s *Singleton[T]) Instance(ctx context.Context) (T, error) {
	inst, ok, gen := s.loaded()
	if ok {
		return inst, nil
	}

	ch := s.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		if inst, ok, _ := s.loaded(); ok {
			return inst, nil
		}
		// The build outlives a caller that gives up waiting.
		inst, err := s.build(context.WithoutCancel(ctx), s.cfg)
		if err != nil {
			return nil, err
		}
		if !s.store(inst, gen) {
			_ = closeInstance(inst)
			return nil, ErrClosed
		}
		return inst, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		inst, _ := res.Val.(T)
		return inst, nil
	}
}

// Close closes the instance when one was built and it implements io.Closer.
// A build still in flight is closed when it finishes and its callers get
// ErrClosed. A later Instance call builds a fresh instance.
func (s *Singleton[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if !s.built {
		return nil
	}
	inst := s.instance
	var zero T
	s.instance, s.built = zero, false
	return closeInstance(inst)
}

func (s *Singleton[T]) loaded() (T, bool, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instance, s.built, s.gen
}

// store caches inst unless Close ran since gen was read.
func (s *Singleton[T]) store(inst T, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.instance, s.built = inst, true
	return true
}

func closeInstance(inst any) error {
	if closer, ok := inst.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Transient builds a new instance on every call.
type Transient[T any] struct {
	cfg   Resolver
	build BuildFunc[T]
}

var _ Repository[int] = (*Transient[int])(nil)

func NewTransient[T any](cfg Resolver, build BuildFunc[T]) *Transient[T] {
	return &Transient[T]{cfg: cfg, build: build}
}

func (t *Transient[T]) Instance(ctx context.Context) (T, error) {
	return t.build(ctx, t.cfg)
}
