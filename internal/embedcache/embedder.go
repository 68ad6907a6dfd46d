package embedcache

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/unmask/internal/ai"
)

// Wrap returns an embedder that reads through stores in order before
// calling next. A hit in a lower tier is copied into the tiers above it.
// Store failures are logged and treated as misses.
func Wrap(next ai.IEmbedder, stores ...Store) ai.IEmbedder {
	active := make([]Store, 0, len(stores))
	for _, s := range stores {
		if s != nil {
			active = append(active, s)
		}
	}
	if next == nil || len(active) == 0 {
		return next
	}
	return &cachedEmbedder{next: next, stores: active}
}

type cachedEmbedder struct {
	next   ai.IEmbedder
	stores []Store
}

func (c *cachedEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	key := NewKey(c.next.ModelName(), taskType, text)
	logger := logutil.GetLogger(ctx)
	for i, store := range c.stores {
		values, ok, err := store.Get(ctx, key)
		if err != nil {
			logger.Warn("embedding cache read failed", zap.String("store", store.Name()), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		logger.Debug("embedding cache hit", zap.String("store", store.Name()), zap.String("task_type", taskType))
		c.fill(ctx, key, values, c.stores[:i])
		return values, nil
	}
	values, err := c.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, values, c.stores)
	return values, nil
}

func (c *cachedEmbedder) fill(ctx context.Context, key Key, values []float32, stores []Store) {
	for _, store := range stores {
		if err := store.Put(ctx, key, values); err != nil {
			logutil.GetLogger(ctx).Warn("failed to cache embedding", zap.String("store", store.Name()), zap.Error(err))
		}
	}
}

func (c *cachedEmbedder) ModelName() string {
	return c.next.ModelName()
}
