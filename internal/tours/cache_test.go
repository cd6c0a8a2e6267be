package tours

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCacheFetchJSONPopulatesAndReuses(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	loads := 0
	loader := func(ctx context.Context) (any, error) {
		loads++
		return []Stats{{Difficulty: "easy", NumTours: 3}}, nil
	}

	key, err := cache.BuildKey(ctx, "tours", "stats")
	require.NoError(t, err)

	var first []Stats
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	require.Len(t, first, 1)
	assert.Equal(t, 1, loads)

	var second []Stats
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, loads, "second read must come from cache")
}

func TestCacheBumpInvalidates(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "tours", "stats")
	require.NoError(t, err)

	require.NoError(t, cache.Bump(ctx))

	after, err := cache.BuildKey(ctx, "tours", "stats")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestCacheNilClientPassesThrough(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	var out []Stats
	err := cache.FetchJSON(ctx, "whatever", &out, func(ctx context.Context) (any, error) {
		return []Stats{{Difficulty: "medium", NumTours: 2}}, nil
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "medium", out[0].Difficulty)

	assert.NoError(t, cache.Bump(ctx))
	key, err := cache.BuildKey(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a:b", key)
}

func TestCacheFetchJSONLoaderError(t *testing.T) {
	cache, _ := newTestCache(t)

	var out []Stats
	err := cache.FetchJSON(context.Background(), "k", &out, func(ctx context.Context) (any, error) {
		return nil, errors.New("db down")
	})
	assert.Error(t, err)
}
