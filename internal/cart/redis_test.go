package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisKV(client, time.Hour), mr
}

func TestRedisKV_GetMissing(t *testing.T) {
	kv, _ := setupTestRedis(t)

	_, ok, err := kv.Get(context.Background(), "cart")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisKV_SetGetDelete(t *testing.T) {
	kv, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "cart_u1", `[{"productId":"p1","quantity":2}]`))

	val, ok, err := kv.Get(ctx, "cart_u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"productId":"p1","quantity":2}]`, val)

	// Writes carry a TTL so abandoned carts expire.
	assert.Greater(t, mr.TTL("cart_u1"), time.Duration(0))

	require.NoError(t, kv.Delete(ctx, "cart_u1"))
	_, ok, err = kv.Get(ctx, "cart_u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisKV_BackendDown(t *testing.T) {
	kv, mr := setupTestRedis(t)
	mr.Close()

	_, _, err := kv.Get(context.Background(), "cart")
	assert.Error(t, err)
	assert.Error(t, kv.Set(context.Background(), "cart", "[]"))
}

func TestPrefixKV_Namespacing(t *testing.T) {
	ctx := context.Background()
	shared := NewMemoryKV()
	alice := NewPrefixKV(shared, "session:a:")
	bob := NewPrefixKV(shared, "session:b:")

	require.NoError(t, alice.Set(ctx, "cart", `["a"]`))
	require.NoError(t, bob.Set(ctx, "cart", `["b"]`))

	got, ok, err := alice.Get(ctx, "cart")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `["a"]`, got)

	require.NoError(t, alice.Delete(ctx, "cart"))
	_, ok, _ = alice.Get(ctx, "cart")
	assert.False(t, ok)
	_, ok, _ = bob.Get(ctx, "cart")
	assert.True(t, ok, "deleting one session's key must not touch another's")
}
