package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

type payload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestCacheRoundTrip(t *testing.T) {
	c := openTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "overpass", "bbox:1", payload{Name: "roads", Value: 42}))

	var got payload
	ok, err := c.Get(ctx, "overpass", "bbox:1", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload{Name: "roads", Value: 42}, got)
}

func TestCacheMiss(t *testing.T) {
	c := openTestCache(t, time.Hour)

	var got payload
	ok, err := c.Get(context.Background(), "overpass", "absent", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheNamespaceIsolation(t *testing.T) {
	c := openTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "elevation", "k", payload{Name: "a"}))

	var got payload
	ok, err := c.Get(ctx, "registry", "k", &got)
	require.NoError(t, err)
	assert.False(t, ok, "same key in another namespace must miss")
}

func TestCacheOverwrite(t *testing.T) {
	c := openTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "n", "k", payload{Name: "old"}))
	require.NoError(t, c.Set(ctx, "n", "k", payload{Name: "new"}))

	var got payload
	ok, err := c.Get(ctx, "n", "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got.Name)
}

func TestCacheExpiry(t *testing.T) {
	c := openTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.SetTTL(ctx, "n", "stale", payload{Name: "x"}, -time.Minute))

	var got payload
	ok, err := c.Get(ctx, "n", "stale", &got)
	require.NoError(t, err)
	assert.False(t, ok, "expired entries must not be served")
}

func TestCachePurgeExpired(t *testing.T) {
	c := openTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.SetTTL(ctx, "n", "stale", payload{}, -time.Minute))
	require.NoError(t, c.Set(ctx, "n", "fresh", payload{}))

	n, err := c.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var got payload
	ok, err := c.Get(ctx, "n", "fresh", &got)
	require.NoError(t, err)
	assert.True(t, ok, "fresh entries survive an expired purge")
}

func TestCachePurgeAll(t *testing.T) {
	c := openTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", payload{}))
	require.NoError(t, c.Set(ctx, "b", "2", payload{}))

	n, err := c.PurgeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
