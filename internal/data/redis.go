// Package data provides data access layer implementations.
package data

import (
	"context"
	"time"

	"Proofline/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates a Redis client with connection pool configuration.
// Redis is optional: when it is unconfigured or unreachable the application
// still starts and caching callers fall back to the database.
func NewRedisClient(c *conf.Data, logger log.Logger) (*redis.Client, func(), error) {
	helper := log.NewHelper(logger)

	if c == nil || c.Redis == nil {
		helper.Warn("Redis configuration is nil, skipping Redis initialization")
		return nil, func() {}, nil
	}

	addr := c.Redis.Addr
	if addr == "" {
		helper.Warn("Redis address is empty, skipping Redis initialization")
		return nil, func() {}, nil
	}

	readTimeout := 200 * time.Millisecond
	if c.Redis.ReadTimeout != nil && c.Redis.ReadTimeout.AsDuration() > 0 {
		readTimeout = c.Redis.ReadTimeout.AsDuration()
	}
	writeTimeout := 200 * time.Millisecond
	if c.Redis.WriteTimeout != nil && c.Redis.WriteTimeout.AsDuration() > 0 {
		writeTimeout = c.Redis.WriteTimeout.AsDuration()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            addr,
		Password:        "",
		DB:              0,
		PoolSize:        100,
		MinIdleConns:    10,
		DialTimeout:     3 * time.Second,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		ConnMaxIdleTime: 5 * time.Minute,
	})

	cleanup := func() {
		helper.Info("closing Redis client")
		if err := rdb.Close(); err != nil {
			helper.Errorf("failed to close Redis client: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		helper.Warnf("failed to connect to Redis at %s: %v (continuing without cache)", addr, err)
		return rdb, cleanup, nil
	}

	helper.Infof("connected to Redis at %s", addr)
	return rdb, cleanup, nil
}
