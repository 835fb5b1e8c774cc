// Package data provides data access layer implementations.
// It handles database connections, resilience, and data persistence.
package data

import (
	"Proofline/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewMySQLClient,
	NewResilientDB,
	NewAlertWebhook,
	NewRedisClient,
	NewCacheClient,
	NewRecipeRepo,
	NewIngredientRepo,
	NewLotRepo,
	NewProductionRepo,
	NewReportRepo,
)

// Data contains shared data layer dependencies.
type Data struct {
	// redisClient is the Redis client for caching
	redisClient *redis.Client
	// cache is the cache interface for repository use
	cache CacheClient
	// Note: the resilient MySQL client is injected directly into repositories
}

// NewData creates the Data aggregate and applies the schema migration
// through the resilient client's raw handle. Redis being unavailable does
// not prevent startup; a broken database connection does.
func NewData(_ *conf.Data, logger log.Logger, rdb *ResilientDB, redisClient *redis.Client, cache CacheClient) (*Data, func(), error) {
	helper := log.NewHelper(logger)

	if redisClient == nil {
		helper.Warn("Redis client is nil, caching will be unavailable")
	}

	if err := rdb.DB().AutoMigrate(
		&Recipe{},
		&RecipeItem{},
		&Ingredient{},
		&IngredientLot{},
		&ProductionRun{},
		&RunLotUsage{},
	); err != nil {
		helper.Errorf("schema migration failed: %v", err)
		return nil, nil, err
	}
	helper.Info("schema migration applied")

	d := &Data{
		redisClient: redisClient,
		cache:       cache,
	}

	cleanup := func() {
		helper.Info("closing the data resources")
		// MySQL and Redis cleanups are returned by their own constructors
		// and invoked by Wire in reverse order.
	}

	return d, cleanup, nil
}

// GetCache returns the cache client for repository use.
func (d *Data) GetCache() CacheClient {
	return d.cache
}

// GetRedisClient returns the Redis client for advanced operations.
func (d *Data) GetRedisClient() *redis.Client {
	return d.redisClient
}
