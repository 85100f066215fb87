package kv

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	redisStore, err := NewRedisStore(RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, "item:abc", []byte(`{"x":1}`), time.Minute))

			val, err := store.Get(ctx, "item:abc")
			require.NoError(t, err)
			assert.Equal(t, `{"x":1}`, string(val))

			require.NoError(t, store.Delete(ctx, "item:abc"))
			_, err = store.Get(ctx, "item:abc")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreMissingKey(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreListByPrefix(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 5; i++ {
				require.NoError(t, store.Put(ctx, fmt.Sprintf("cluster:k%d", i), []byte("{}"), time.Minute))
			}
			require.NoError(t, store.Put(ctx, "item:other", []byte("{}"), time.Minute))

			keys, err := store.List(ctx, "cluster:")
			require.NoError(t, err)
			assert.Len(t, keys, 5)
			for _, k := range keys {
				assert.Contains(t, k, "cluster:")
			}
		})
	}
}

func TestRedisListPaginates(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	store, err := NewRedisStore(RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer store.Close()

	// Well past one SCAN page.
	for i := 0; i < 450; i++ {
		require.NoError(t, store.Put(ctx, fmt.Sprintf("item:%04d", i), []byte("{}"), time.Minute))
	}

	keys, err := store.List(ctx, "item:")
	require.NoError(t, err)
	assert.Len(t, keys, 450)
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	current := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return current })

	require.NoError(t, store.Put(ctx, "k", []byte("v"), time.Hour))

	_, err := store.Get(ctx, "k")
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	keys, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	store, err := NewRedisStore(RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(ctx, "k", []byte("v"), time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreRequiresAddress(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{})
	assert.ErrorIs(t, err, ErrEmptyAddress)
}
