package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/adeilh/go-keyed/cache"
	"github.com/adeilh/go-keyed/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newMemory(t *testing.T) (*cache.Memory[string], *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	return cache.NewMemory[string](cache.WithClock(clock)), clock
}

func TestMemorySetGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, clock := newMemory(t)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	clock.Advance(24 * 365 * time.Hour)

	v, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)

	require.NoError(t, c.Set(ctx, "k", "w", 0))
	v, _, _ = c.Get(ctx, "k")
	assert.Equal(t, "w", v, "set overwrites")

	_, found, err = c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryExpiryBoundary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, clock := newMemory(t)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	clock.Advance(time.Minute)
	v, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found, "valid at exactly the expiry instant")
	assert.Equal(t, "v", v)

	clock.Advance(time.Nanosecond)
	_, found, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found, "expired one tick later")
	assert.Zero(t, c.Len(), "expired read removes the entry")

	_, found, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryExpiredEntryStaysUntilRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, clock := newMemory(t)

	require.NoError(t, c.Set(ctx, "k", "v", time.Second))
	clock.Advance(time.Hour)
	assert.Equal(t, 1, c.Len())

	_, found, _ := c.Get(ctx, "k")
	assert.False(t, found)
	assert.Zero(t, c.Len())
}

func TestMemoryDel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, clock := newMemory(t)

	err := c.Del(ctx, "missing")
	var ioe *cache.InvalidOperationError
	require.ErrorAs(t, err, &ioe)
	assert.Equal(t, "missing", ioe.Key)
	assert.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	require.NoError(t, c.Del(ctx, "k"))
	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
	require.ErrorAs(t, c.Del(ctx, "k"), &ioe)

	require.NoError(t, c.Set(ctx, "e", "v", time.Second))
	clock.Advance(2 * time.Second)
	require.ErrorAs(t, c.Del(ctx, "e"), &ioe, "an expired entry is already absent")
	assert.Zero(t, c.Len())
}

func TestMemoryNegativeTTL(t *testing.T) {
	t.Parallel()
	c, _ := newMemory(t)

	err := c.Set(context.Background(), "k", "v", -time.Second)
	var ve *config.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "ttl", ve.Name)
	assert.Zero(t, c.Len())
}

func TestMemoryCanceledContext(t *testing.T) {
	t.Parallel()
	c, _ := newMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, c.Set(ctx, "k", "v", 0), context.Canceled)
	_, _, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, c.Del(ctx, "k"), context.Canceled)
}

func TestMemoryAsync(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _ := newMemory(t)

	require.NoError(t, <-c.SetAsync(ctx, "k", "v", 0))
	res := <-c.GetAsync(ctx, "k")
	require.NoError(t, res.Err)
	assert.True(t, res.Found)
	assert.Equal(t, "v", res.Value)

	require.NoError(t, <-c.DelAsync(ctx, "k"))
	var ioe *cache.InvalidOperationError
	require.ErrorAs(t, <-c.DelAsync(ctx, "k"), &ioe)

	res = <-c.GetAsync(ctx, "k")
	assert.False(t, res.Found)

	var ve *config.ValidationError
	require.ErrorAs(t, <-c.SetAsync(ctx, "k", "v", -1), &ve)
}

func TestMemoryConcurrentSets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := cache.NewMemory[int]()

	const writers, keys = 8, 64
	var eg errgroup.Group
	for w := range writers {
		eg.Go(func() error {
			for k := range keys {
				if err := c.Set(ctx, fmt.Sprintf("w%d-k%d", w, k), w*keys+k, 0); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	assert.Equal(t, writers*keys, c.Len())
	for w := range writers {
		for k := range keys {
			v, found, err := c.Get(ctx, fmt.Sprintf("w%d-k%d", w, k))
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, w*keys+k, v)
		}
	}
}

func TestMemorySameKeyNoTornWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	type pair struct{ A, B int }
	c := cache.NewMemory[pair]()

	var eg errgroup.Group
	for i := range 32 {
		eg.Go(func() error {
			return c.Set(ctx, "k", pair{A: i, B: i}, 0)
		})
		eg.Go(func() error {
			v, found, err := c.Get(ctx, "k")
			if err == nil && found && v.A != v.B {
				return fmt.Errorf("torn entry %+v", v)
			}
			return err
		})
	}
	require.NoError(t, eg.Wait())
}
