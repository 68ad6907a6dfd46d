package embedcache

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xxxsen/unmask/internal/config"
)

// Stores builds the configured tiers, fastest first. The returned closer
// releases the redis connection when one was opened.
func Stores(cfg config.EmbedCacheConfig, repo cacheRepo) ([]Store, func() error, error) {
	var stores []Store
	closer := func() error { return nil }
	if cfg.LRUSize > 0 && cfg.LRUTTLSeconds > 0 {
		stores = append(stores, NewLRUStore(cfg.LRUSize, time.Duration(cfg.LRUTTLSeconds)*time.Second))
	}
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid embed_cache.redis_url: %w", err)
		}
		rdb := redis.NewClient(opt)
		stores = append(stores, NewRedisStore(rdb, time.Duration(cfg.RedisTTLSeconds)*time.Second))
		closer = rdb.Close
	}
	if cfg.DBEnabled && repo != nil {
		stores = append(stores, NewDBStore(repo))
	}
	return stores, closer, nil
}
