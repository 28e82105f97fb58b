package cache

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	_, ok := c.Get(ctx, "https://example.test/a?page=1")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "https://example.test/a?page=1", []byte(`{"page":1}`)))
	require.NoError(t, c.Set(ctx, "https://example.test/a?page=2", []byte(`{"page":2}`)))

	body, ok := c.Get(ctx, "https://example.test/a?page=1")
	require.True(t, ok)
	assert.JSONEq(t, `{"page":1}`, string(body))
	assert.Equal(t, 2, c.Len(ctx))

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len(ctx))
}

func TestBuildKeyDistinguishesParameters(t *testing.T) {
	a := buildKey("https://example.test/movie/popular?page=1")
	b := buildKey("https://example.test/movie/popular?page=2")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, buildKey("https://example.test/movie/popular?page=1"))
}

// Requires a disposable redis; set CINEVERSE_TEST_REDIS=localhost:6379 to run.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("CINEVERSE_TEST_REDIS")
	if addr == "" {
		t.Skip("CINEVERSE_TEST_REDIS not set")
	}
	ctx := context.Background()
	c := NewRedis(redis.NewClient(&redis.Options{Addr: addr, DB: 15}), nil)
	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Clear(ctx))

	require.NoError(t, c.Set(ctx, "u1", []byte("one")))
	body, ok := c.Get(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, "one", string(body))
	assert.Equal(t, 1, c.Len(ctx))

	require.NoError(t, c.Clear(ctx))
	_, ok = c.Get(ctx, "u1")
	assert.False(t, ok)
}
