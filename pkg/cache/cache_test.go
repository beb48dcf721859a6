package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func setupCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, "test:"), mr
}

func TestCacheSetGet(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "settings", payload{Name: "gw", Count: 3}, time.Minute))

	var got payload
	found, err := c.Get(ctx, "settings", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "gw", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestCacheMiss(t *testing.T) {
	c, _ := setupCache(t)

	var got payload
	found, err := c.Get(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheDelete(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "settings", payload{Name: "gw"}, time.Minute))
	require.NoError(t, c.Delete(ctx, "settings"))

	var got payload
	found, err := c.Get(ctx, "settings", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheExpiry(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "settings", payload{Name: "gw"}, time.Second))
	mr.FastForward(2 * time.Second)

	var got payload
	found, err := c.Get(ctx, "settings", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheStats(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", payload{}, time.Minute))

	var got payload
	c.Get(ctx, "a", &got)
	c.Get(ctx, "b", &got)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
}
