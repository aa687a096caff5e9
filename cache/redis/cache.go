package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/xerrors"

	"github.com/adeilh/go-keyed/cache"
	"github.com/adeilh/go-keyed/config"
)

// Cache implements cache.Cache on one logical Redis database. Values are
// stored through a Codec, JSON by default. A ttl of zero stores the key
// without expiry. Del of a missing key fails with *cache.InvalidOperationError,
// as in the memory backend.
type Cache[T any] struct {
	repo     config.Repository[*Connection]
	database int
	prefix   string
	codec    cache.Codec[T]

	seq cache.Sequencer
}

var _ cache.Cache[int] = (*Cache[int])(nil)

type Option[T any] func(*Cache[T])

// WithCodec replaces the JSON codec.
func WithCodec[T any](codec cache.Codec[T]) Option[T] {
	return func(c *Cache[T]) {
		c.codec = codec
	}
}

// WithPrefix namespaces every key, e.g. "session:".
func WithPrefix[T any](prefix string) Option[T] {
	return func(c *Cache[T]) {
		c.prefix = prefix
	}
}

// New returns a cache on database of the connection handed out by repo. The
// connection is not touched until the first operation. Without WithCodec the
// payload field names are the json tags of T (see cache.JSONCodec).
func New[T any](repo config.Repository[*Connection], database int, opts ...Option[T]) *Cache[T] {
	c := &Cache[T]{repo: repo, database: database, codec: cache.JSONCodec[T]{}}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Cache[T]) client(ctx context.Context) (*goredis.Client, error) {
	conn, err := c.repo.Instance(ctx)
	if err != nil {
		return nil, err
	}
	return conn.Database(c.database)
}

func (c *Cache[T]) Get(ctx context.Context, key string) (value T, found bool, err error) {
	c.seq.Do(ctx, key, func(ctx context.Context) {
		value, found, err = c.get(ctx, key)
	})
	return value, found, err
}

func (c *Cache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) (err error) {
	if err := cache.CheckTTL(ttl); err != nil {
		return err
	}
	c.seq.Do(ctx, key, func(ctx context.Context) {
		err = c.set(ctx, key, value, ttl)
	})
	return err
}

func (c *Cache[T]) Del(ctx context.Context, key string) (err error) {
	c.seq.Do(ctx, key, func(ctx context.Context) {
		err = c.del(ctx, key)
	})
	return err
}

func (c *Cache[T]) GetAsync(ctx context.Context, key string) <-chan cache.Result[T] {
	ch := make(chan cache.Result[T], 1)
	c.seq.Go(ctx, key, func(ctx context.Context) {
		v, found, err := c.get(ctx, key)
		ch <- cache.Result[T]{Value: v, Found: found, Err: err}
		close(ch)
	})
	return ch
}

func (c *Cache[T]) SetAsync(ctx context.Context, key string, value T, ttl time.Duration) <-chan error {
	if err := cache.CheckTTL(ttl); err != nil {
		return cache.Done(err)
	}
	ch := make(chan error, 1)
	c.seq.Go(ctx, key, func(ctx context.Context) {
		ch <- c.set(ctx, key, value, ttl)
		close(ch)
	})
	return ch
}

func (c *Cache[T]) DelAsync(ctx context.Context, key string) <-chan error {
	ch := make(chan error, 1)
	c.seq.Go(ctx, key, func(ctx context.Context) {
		ch <- c.del(ctx, key)
		close(ch)
	})
	return ch
}

func (c *Cache[T]) get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	client, err := c.client(ctx)
	if err != nil {
		return zero, false, err
	}
	data, err := client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, xerrors.Errorf("redis get %q: %w", key, err)
	}
	v, err := c.codec.Unmarshal(data)
	if err != nil {
		return zero, false, xerrors.Errorf("decode %q: %w", key, err)
	}
	return v, true, nil
}

func (c *Cache[T]) set(ctx context.Context, key string, value T, ttl time.Duration) error {
	data, err := c.codec.Marshal(value)
	if err != nil {
		return xerrors.Errorf("encode %q: %w", key, err)
	}
	client, err := c.client(ctx)
	if err != nil {
		return err
	}
	if err := client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return xerrors.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (c *Cache[T]) del(ctx context.Context, key string) error {
	client, err := c.client(ctx)
	if err != nil {
		return err
	}
	n, err := client.Del(ctx, c.prefix+key).Result()
	if err != nil {
		return xerrors.Errorf("redis del %q: %w", key, err)
	}
	if n == 0 {
		return cache.MissingKey(key)
	}
	return nil
}
