package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient spins up a miniredis server and returns a client plus cleanup.
func newTestClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return client, cleanup
}

func TestStore_PutGet(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client, "ledger")
	ctx := context.Background()

	err := store.Put(ctx, "alice:aggregate", []byte(`{"total_points":50}`))
	require.NoError(t, err)

	value, ok, err := store.Get(ctx, "alice:aggregate")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"total_points":50}`), value)

	// Overwrite
	err = store.Put(ctx, "alice:aggregate", []byte(`{"total_points":75}`))
	require.NoError(t, err)

	value, ok, err = store.Get(ctx, "alice:aggregate")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"total_points":75}`), value)
}

func TestStore_GetMissing(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client, "ledger")

	value, ok, err := store.Get(context.Background(), "nobody:aggregate")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestStore_KeyPrefix(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	ctx := context.Background()

	prefixed := NewWithClient(client, "ledger")
	require.NoError(t, prefixed.Put(ctx, "bob:transactions", []byte(`[]`)))

	// The raw key carries the prefix
	raw, err := client.Get(ctx, "ledger:bob:transactions").Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), raw)

	// A store without a prefix does not see the prefixed key
	bare := NewWithClient(client, "")
	_, ok, err := bare.Get(ctx, "bob:transactions")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfig_DefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "localhost:6379", config.Addr)
	assert.Equal(t, "", config.Password)
	assert.Equal(t, 0, config.DB)
	assert.Equal(t, "ledger", config.KeyPrefix)
	assert.Equal(t, 10, config.PoolSize)
	assert.Equal(t, 2, config.MinIdleConns)
	assert.Equal(t, 5*time.Second, config.DialTimeout)
	assert.Equal(t, 3*time.Second, config.ReadTimeout)
	assert.Equal(t, 3*time.Second, config.WriteTimeout)
}
