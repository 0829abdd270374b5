package repository

import (
	"adaptive_learning_backend/internal/util"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKVStoreTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	kv := NewMemoryKVStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "short", "1", time.Minute))
	require.NoError(t, kv.Set(ctx, "forever", "2", 0))

	v, err := kv.Get(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	now = now.Add(time.Minute)
	_, err = kv.Get(ctx, "short")
	assert.ErrorIs(t, err, util.ErrCacheMiss)

	now = now.Add(24 * time.Hour)
	v, err = kv.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestMemoryKVStoreKeysAndDelete(t *testing.T) {
	kv := NewMemoryKVStore()
	ctx := context.Background()
	for _, k := range []string{"p:u1:b", "p:u1:a", "p:u2:a", "other"} {
		require.NoError(t, kv.Set(ctx, k, k, 0))
	}

	keys, err := kv.Keys(ctx, "p:u1:")
	require.NoError(t, err)
	assert.Equal(t, []string{"p:u1:a", "p:u1:b"}, keys)

	require.NoError(t, kv.Delete(ctx, "p:u1:a", "missing"))
	keys, err = kv.Keys(ctx, "p:")
	require.NoError(t, err)
	assert.Equal(t, []string{"p:u1:b", "p:u2:a"}, keys)

	_, err = kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, util.ErrCacheMiss)
}
