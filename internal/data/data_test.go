package data

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestData_GetCache(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewCacheClient(rdb)

	d := &Data{
		redisClient: rdb,
		cache:       cache,
	}

	retrievedCache := d.GetCache()
	assert.NotNil(t, retrievedCache)
	assert.Equal(t, cache, retrievedCache)
}

func TestData_GetRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	d := &Data{
		redisClient: rdb,
		cache:       NewCacheClient(rdb),
	}

	retrievedRdb := d.GetRedisClient()
	assert.NotNil(t, retrievedRdb)
	assert.Equal(t, rdb, retrievedRdb)
}

func TestData_NilDependencies(t *testing.T) {
	// Redis being absent degrades reads to the database; the aggregate
	// simply hands back nils.
	d := &Data{}

	assert.Nil(t, d.GetCache())
	assert.Nil(t, d.GetRedisClient())
}
