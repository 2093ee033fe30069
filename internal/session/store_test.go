package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewStore(client, ttl), mr
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store, mr := setupStore(t, time.Hour)

	id, err := store.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	value, err := mr.Get("session:" + id)
	require.NoError(t, err)
	assert.Equal(t, "user-1", value)
	assert.Equal(t, time.Hour, mr.TTL("session:"+id))

	userID, err := store.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	require.NoError(t, store.Destroy(ctx, id))

	_, err = store.Lookup(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := setupStore(t, time.Minute)

	id, err := store.Create(ctx, "user-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.Lookup(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t, time.Hour)

	first, err := store.Create(ctx, "user-1")
	require.NoError(t, err)
	second, err := store.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	require.NoError(t, store.Destroy(ctx, first))

	userID, err := store.Lookup(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, NewStore(client, time.Hour).Ping(context.Background()))

	_, err = Connect(context.Background(), "not a url")
	assert.Error(t, err)
}
