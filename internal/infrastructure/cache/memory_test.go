package cache

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/recipelens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(time.Hour)
	t.Cleanup(c.Close)
	return c
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	value := domain.RecommendResponse{
		Recipes: []domain.RecipeResult{{ID: 3, Title: "Meringue", SimilarityScore: 0.5}},
	}
	require.NoError(t, c.Set(ctx, "recipes:1:egg", value, time.Minute))

	got, err := c.Get(ctx, "recipes:1:egg")
	require.NoError(t, err)

	payload, ok := got.([]byte)
	require.True(t, ok, "cache returns JSON payload")

	var decoded domain.RecommendResponse
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, value, decoded)
}

func TestMemoryCache_Miss(t *testing.T) {
	c := newTestCache(t)

	_, err := c.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_Expiration(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", "value", time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	exists, err := c.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, exists)

	c.purgeExpired()
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCache_SetUnencodable(t *testing.T) {
	c := newTestCache(t)

	err := c.Set(context.Background(), "bad", make(chan int), time.Minute)

	assert.Error(t, err)
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCache_DeleteExistsClear(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))

	exists, err := c.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Delete(ctx, "a"))
	exists, _ = c.Exists(ctx, "a")
	assert.False(t, exists)
	assert.Equal(t, 1, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCache_Concurrency(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Set(ctx, "key", i, time.Minute)
			_, _ = c.Get(ctx, "key")
			_, _ = c.Exists(ctx, "key")
		}(i)
	}
	wg.Wait()

	exists, err := c.Exists(ctx, "key")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	c := NewMemoryCache(time.Millisecond)
	c.Close()
	c.Close()
}
