package batch

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagehub/imagehub_server/internal/apperr"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), RedisConfig{
		Address: server.Addr(),
		TTL:     ttl,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, server
}

func TestRedisStore_SaveAndGet(t *testing.T) {
	store, _ := newTestRedisStore(t, 0)
	ctx := context.Background()

	saved := Progress{
		Done:    3,
		Pending: 2,
		Errors: []FileError{
			{FilePath: "broken.jpg", Message: "object not found"},
		},
	}
	require.NoError(t, store.Save(ctx, "tok-1", saved))

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestRedisStore_UnknownToken(t *testing.T) {
	store, _ := newTestRedisStore(t, 0)

	_, err := store.Get(context.Background(), "never-saved")

	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRedisStore_OverwriteResetsSnapshot(t *testing.T) {
	store, _ := newTestRedisStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tok-2", Progress{Done: 5, Errors: []FileError{}}))
	require.NoError(t, store.Save(ctx, "tok-2", Progress{Pending: 9, Errors: []FileError{}}))

	got, err := store.Get(ctx, "tok-2")
	require.NoError(t, err)
	assert.Equal(t, uint(0), got.Done)
	assert.Equal(t, uint(9), got.Pending)
}

func TestRedisStore_TTLApplied(t *testing.T) {
	store, server := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tok-3", Progress{Pending: 1, Errors: []FileError{}}))

	// external TTL eviction is the store's concern
	assert.Greater(t, server.TTL(progressKeyPrefix+"tok-3"), time.Duration(0))

	server.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, "tok-3")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRedisStore_ConnectFailure(t *testing.T) {
	_, err := NewRedisStore(context.Background(), RedisConfig{
		Address: "127.0.0.1:1", // nothing listens here
	})

	require.Error(t, err)
	assert.Equal(t, apperr.KindBackend, apperr.KindOf(err))
}
