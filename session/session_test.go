package session_test

import (
	"context"
	"testing"
	"time"

	"cdr.dev/slog/v3/sloggers/slogtest"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeilh/go-keyed/cache"
	"github.com/adeilh/go-keyed/cache/redis"
	"github.com/adeilh/go-keyed/config"
	"github.com/adeilh/go-keyed/config/source"
	"github.com/adeilh/go-keyed/internal/testutil/redistest"
	"github.com/adeilh/go-keyed/session"
)

func TestStoreLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := quartz.NewMock(t)
	store := session.NewStore(
		cache.NewMemory[session.Session](cache.WithClock(clock)),
		session.Options{DefaultTTL: time.Minute},
		session.WithClock(clock),
	)

	created, err := store.Create(ctx, session.Session{Subject: "user-1", Metadata: map[string]string{"role": "admin"}})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, clock.Now().Add(time.Minute), created.ExpiresAt)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.Subject)
	assert.Equal(t, "admin", got.Metadata["role"])

	clock.Advance(30 * time.Second)
	require.NoError(t, store.Touch(ctx, created.ID, clock.Now().Add(time.Minute)))

	clock.Advance(45 * time.Second)
	_, err = store.Get(ctx, created.ID)
	require.NoError(t, err, "touch extended the session")

	clock.Advance(15 * time.Second)
	_, err = store.Get(ctx, created.ID)
	require.ErrorIs(t, err, session.ErrExpired)

	require.NoError(t, store.Delete(ctx, created.ID), "deleting a gone session is fine")
}

func TestStoreRejects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := quartz.NewMock(t)
	store := session.NewStore(cache.NewMemory[session.Session](cache.WithClock(clock)), session.Options{}, session.WithClock(clock))

	_, err := store.Create(ctx, session.Session{})
	require.ErrorIs(t, err, session.ErrInvalid)

	_, err = store.Create(ctx, session.Session{Subject: "u", IssuedAt: clock.Now(), ExpiresAt: clock.Now().Add(-time.Second)})
	require.ErrorIs(t, err, session.ErrInvalid)

	_, err = store.Get(ctx, "")
	require.ErrorIs(t, err, session.ErrInvalid)

	_, err = store.Get(ctx, "unknown")
	require.ErrorIs(t, err, session.ErrExpired)

	require.ErrorIs(t, store.Touch(ctx, "unknown", clock.Now().Add(-time.Second)), session.ErrExpired)
}

func TestStoreOnRedis(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := redistest.New(t)

	src := srv.Source(map[string]string{"SESSION_TTL": "120", "SESSION_PREFIX": "app:session:"})
	cfg := config.NewKeyedConfig(src)
	repo := redis.NewConnectionRepository(cfg, slogtest.Make(t, nil))
	t.Cleanup(func() { _ = repo.Close() })

	opts, err := session.OptionsFromConfig(ctx, cfg)
	require.NoError(t, err)
	store := session.NewStore(redis.New[session.Session](repo, 0), opts)

	created, err := store.Create(ctx, session.Session{Subject: "user-2", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.True(t, srv.Exists("app:session:"+created.ID))
	assert.Equal(t, 120*time.Second, srv.TTL("app:session:"+created.ID).Round(time.Second))

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", got.IP)

	require.NoError(t, store.Delete(ctx, created.ID))
	assert.False(t, srv.Exists("app:session:"+created.ID))
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()
	_, err := session.OptionsFromConfig(context.Background(), config.NewKeyedConfig(source.NewMap(map[string]string{
		"SESSION_TTL": "0",
	})))
	var ve *config.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "SESSION_TTL", ve.Name)
}
