package embedcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/pkg/timeutil"
)

// Store is one cache tier.
type Store interface {
	Name() string
	Get(ctx context.Context, key Key) ([]float32, bool, error)
	Put(ctx context.Context, key Key, values []float32) error
}

type LRUStore struct {
	cache *expirable.LRU[string, []float32]
}

func NewLRUStore(size int, ttl time.Duration) *LRUStore {
	return &LRUStore{cache: expirable.NewLRU[string, []float32](size, nil, ttl)}
}

func (s *LRUStore) Name() string {
	return "lru"
}

func (s *LRUStore) Get(_ context.Context, key Key) ([]float32, bool, error) {
	values, ok := s.cache.Get(key.String())
	if !ok {
		return nil, false, nil
	}
	return cloneEmbedding(values), true, nil
}

func (s *LRUStore) Put(_ context.Context, key Key, values []float32) error {
	s.cache.Add(key.String(), cloneEmbedding(values))
	return nil
}

type cacheRepo interface {
	Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error)
	Save(ctx context.Context, item *model.CachedEmbedding) error
}

// DBStore persists embeddings in the embedding_cache table.
type DBStore struct {
	repo cacheRepo
}

func NewDBStore(repo cacheRepo) *DBStore {
	return &DBStore{repo: repo}
}

func (s *DBStore) Name() string {
	return "db"
}

func (s *DBStore) Get(ctx context.Context, key Key) ([]float32, bool, error) {
	return s.repo.Get(ctx, key.Model, key.TaskType, key.Hash)
}

func (s *DBStore) Put(ctx context.Context, key Key, values []float32) error {
	return s.repo.Save(ctx, &model.CachedEmbedding{
		Model:     key.Model,
		TaskType:  key.TaskType,
		Hash:      key.Hash,
		Values:    values,
		CreatedAt: timeutil.NowUnix(),
	})
}

const redisKeyPrefix = "unmask:"

// RedisStore shares embeddings between processes through redis.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Name() string {
	return "redis"
}

func (s *RedisStore) Get(ctx context.Context, key Key) ([]float32, bool, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis GET: %w", err)
	}
	var values []float32
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, false, fmt.Errorf("decode cached embedding: %w", err)
	}
	return values, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key Key, values []float32) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+key.String(), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET: %w", err)
	}
	return nil
}
