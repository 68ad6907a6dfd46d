package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// InsightCache holds finished query results keyed by request.
type InsightCache interface {
	Get(ctx context.Context, key string) (*QueryResult, bool)
	Set(ctx context.Context, key string, result *QueryResult)
}

type LRUInsightCache struct {
	lru *expirable.LRU[string, QueryResult]
}

func NewLRUInsightCache(size int, ttl time.Duration) *LRUInsightCache {
	if size <= 0 {
		size = 256
	}
	return &LRUInsightCache{lru: expirable.NewLRU[string, QueryResult](size, nil, ttl)}
}

func (c *LRUInsightCache) Get(_ context.Context, key string) (*QueryResult, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return &v, true
}

func (c *LRUInsightCache) Set(_ context.Context, key string, result *QueryResult) {
	c.lru.Add(key, *result)
}

type RedisInsightCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisInsightCache(client *redis.Client, ttl time.Duration) *RedisInsightCache {
	return &RedisInsightCache{client: client, ttl: ttl}
}

func (c *RedisInsightCache) Get(ctx context.Context, key string) (*QueryResult, bool) {
	raw, err := c.client.Get(ctx, "unmask:insight:"+key).Bytes()
	if err != nil {
		return nil, false
	}
	var out QueryResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return &out, true
}

func (c *RedisInsightCache) Set(ctx context.Context, key string, result *QueryResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, "unmask:insight:"+key, raw, c.ttl).Err(); err != nil {
		logutil.GetLogger(ctx).Warn("cache insight failed", zap.Error(err))
	}
}
