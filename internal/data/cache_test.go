package data

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRecipe is a payload struct for serialization tests
type testRecipe struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Yield    float64 `json:"yield"`
	IsActive bool    `json:"is_active"`
}

func setupTestCache(t *testing.T) (CacheClient, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewCacheClient(rdb)

	return cache, mr
}

func TestNewCacheClient(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewCacheClient(rdb)
	assert.NotNil(t, cache)
}

func TestCacheGet_Success(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()

	recipe := testRecipe{
		ID:       123,
		Name:     "Sourdough Boule",
		Yield:    24,
		IsActive: true,
	}

	key := BuildCacheKey(CacheKeyRecipe, "123")
	err := cache.Set(ctx, key, recipe, TTLRecipe)
	require.NoError(t, err)

	var retrieved testRecipe
	err = cache.Get(ctx, key, &retrieved)
	require.NoError(t, err)

	assert.Equal(t, recipe.ID, retrieved.ID)
	assert.Equal(t, recipe.Name, retrieved.Name)
	assert.Equal(t, recipe.Yield, retrieved.Yield)
	assert.Equal(t, recipe.IsActive, retrieved.IsActive)
}

func TestCacheGet_KeyNotFound(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()

	var retrieved testRecipe
	err := cache.Get(ctx, "nonexistent:key", &retrieved)

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestCacheGet_InvalidJSON(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()

	key := "test:invalid"
	_ = mr.Set(key, "invalid json {{{") // Intentionally set invalid data for testing

	var retrieved testRecipe
	err := cache.Get(ctx, key, &retrieved)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestCacheSet_Success(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()

	recipe := testRecipe{
		ID:       456,
		Name:     "Rye Batard",
		Yield:    12,
		IsActive: false,
	}

	key := BuildCacheKey(CacheKeyRecipe, "456")
	err := cache.Set(ctx, key, recipe, TTLRecipe)
	require.NoError(t, err)

	exists := mr.Exists(key)
	assert.True(t, exists)
}

func TestCacheSet_WithTTL(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()

	recipe := testRecipe{ID: 789, Name: "TTL Test"}

	key := BuildCacheKey(CacheKeyRecipe, "789")
	ttl := 1 * time.Second

	err := cache.Set(ctx, key, recipe, ttl)
	require.NoError(t, err)

	currentTTL := mr.TTL(key)
	assert.Greater(t, currentTTL, time.Duration(0))
	assert.LessOrEqual(t, currentTTL, ttl)
}

func TestCacheDelete_Success(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()

	recipe := testRecipe{ID: 111, Name: "Delete Test"}
	key := BuildCacheKey(CacheKeyRecipe, "111")
	err := cache.Set(ctx, key, recipe, TTLRecipe)
	require.NoError(t, err)

	exists := mr.Exists(key)
	assert.True(t, exists)

	err = cache.Delete(ctx, key)
	require.NoError(t, err)

	exists = mr.Exists(key)
	assert.False(t, exists)
}

func TestCacheDelete_NonExistentKey(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()

	err := cache.Delete(ctx, "nonexistent:key")
	assert.NoError(t, err)
}

func TestCacheExists_KeyExists(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()

	recipe := testRecipe{ID: 222, Name: "Exists Test"}
	key := BuildCacheKey(CacheKeyInventory, "flour")
	err := cache.Set(ctx, key, recipe, TTLInventory)
	require.NoError(t, err)

	exists, err := cache.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCacheExists_KeyNotExists(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()

	exists, err := cache.Exists(ctx, "nonexistent:key")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBuildCacheKey(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		prefix   string
		parts    []string
	}{
		{
			name:     "recipe key",
			prefix:   CacheKeyRecipe,
			parts:    []string{"123"},
			expected: "recipe:123",
		},
		{
			name:     "inventory key",
			prefix:   CacheKeyInventory,
			parts:    []string{"low-stock"},
			expected: "inventory:low-stock",
		},
		{
			name:     "trace key",
			prefix:   CacheKeyTrace,
			parts:    []string{"LOT-7F3A"},
			expected: "trace:LOT-7F3A",
		},
		{
			name:     "multi-part key",
			prefix:   CacheKeyInventory,
			parts:    []string{"ingredient", "42"},
			expected: "inventory:ingredient:42",
		},
		{
			name:     "no parts",
			prefix:   CacheKeyRecipe,
			parts:    []string{},
			expected: "recipe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BuildCacheKey(tt.prefix, tt.parts...)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCacheClient_AllKeyTypes(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()

	tests := []struct {
		name   string
		prefix string
		id     string
		ttl    time.Duration
	}{
		{"recipe", CacheKeyRecipe, "42", TTLRecipe},
		{"inventory", CacheKeyInventory, "low-stock", TTLInventory},
		{"trace", CacheKeyTrace, "LOT-9C21", TTLTrace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := map[string]interface{}{
				"id":   tt.id,
				"type": tt.name,
			}

			key := BuildCacheKey(tt.prefix, tt.id)
			err := cache.Set(ctx, key, data, tt.ttl)
			require.NoError(t, err)

			var retrieved map[string]interface{}
			err = cache.Get(ctx, key, &retrieved)
			require.NoError(t, err)
			assert.Equal(t, tt.id, retrieved["id"])
			assert.Equal(t, tt.name, retrieved["type"])

			exists, err := cache.Exists(ctx, key)
			require.NoError(t, err)
			assert.True(t, exists)

			err = cache.Delete(ctx, key)
			require.NoError(t, err)

			exists, err = cache.Exists(ctx, key)
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestCacheTTLExpiration(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()

	recipe := testRecipe{ID: 333, Name: "Expire Test"}
	key := BuildCacheKey(CacheKeyRecipe, "expire")
	shortTTL := 100 * time.Millisecond

	err := cache.Set(ctx, key, recipe, shortTTL)
	require.NoError(t, err)

	exists, err := cache.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	mr.FastForward(200 * time.Millisecond)

	exists, err = cache.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	var retrieved testRecipe
	err = cache.Get(ctx, key, &retrieved)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestCacheClient_NilRedisClient(t *testing.T) {
	cache := NewCacheClient(nil)
	ctx := context.Background()

	recipe := testRecipe{ID: 1}

	err := cache.Set(ctx, "key", recipe, TTLRecipe)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis client is nil")

	var retrieved testRecipe
	err = cache.Get(ctx, "key", &retrieved)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis client is nil")

	err = cache.Delete(ctx, "key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis client is nil")

	exists, err := cache.Exists(ctx, "key")
	assert.Error(t, err)
	assert.False(t, exists)
	assert.Contains(t, err.Error(), "redis client is nil")
}

func TestCacheClient_ComplexStructSerialization(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()

	type usage struct {
		RunID    int64   `json:"run_id"`
		Quantity float64 `json:"quantity"`
	}

	type lotTrace struct {
		ReceivedAt time.Time         `json:"received_at"`
		Usages     []usage           `json:"usages"`
		Metadata   map[string]string `json:"metadata"`
		LotCode    string            `json:"lot_code"`
		Status     string            `json:"status"`
	}

	original := lotTrace{
		LotCode: "LOT-7F3A",
		Status:  "recalled",
		Usages: []usage{
			{RunID: 10, Quantity: 12.5},
			{RunID: 11, Quantity: 3.25},
		},
		Metadata: map[string]string{
			"supplier": "Millstone Farms",
			"unit":     "kg",
		},
		ReceivedAt: time.Now().Round(time.Second), // Round to second for JSON comparison
	}

	key := BuildCacheKey(CacheKeyTrace, "LOT-7F3A")

	err := cache.Set(ctx, key, original, TTLTrace)
	require.NoError(t, err)

	var retrieved lotTrace
	err = cache.Get(ctx, key, &retrieved)
	require.NoError(t, err)

	assert.Equal(t, original.LotCode, retrieved.LotCode)
	assert.Equal(t, original.Status, retrieved.Status)
	assert.Equal(t, len(original.Usages), len(retrieved.Usages))
	assert.Equal(t, original.Usages[0].Quantity, retrieved.Usages[0].Quantity)
	assert.Equal(t, original.Metadata["supplier"], retrieved.Metadata["supplier"])
	assert.True(t, original.ReceivedAt.Equal(retrieved.ReceivedAt))
}
