// README: Redis client for the report cache.
package infra

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Report cache misses fall through to Postgres, so a slow or absent Redis
// must fail fast instead of holding the request.
const (
	reportCacheDialTimeout = 500 * time.Millisecond
	reportCacheIOTimeout   = 200 * time.Millisecond
	reportCachePoolSize    = 10
)

// NewRedis returns a client tuned for the report cache.
func NewRedis(addr string) *redis.Client {
	return redis.NewClient(reportCacheOptions(addr))
}

func reportCacheOptions(addr string) *redis.Options {
	return &redis.Options{
		Addr:         addr,
		DialTimeout:  reportCacheDialTimeout,
		ReadTimeout:  reportCacheIOTimeout,
		WriteTimeout: reportCacheIOTimeout,
		PoolSize:     reportCachePoolSize,
		MaxRetries:   1,
	}
}
