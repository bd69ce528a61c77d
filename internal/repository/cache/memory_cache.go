package cache

import (
	"context"
	"time"

	"doc-intelligence-be/pkg/embedding"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryEmbeddingCache keeps vectors in process, expiring after ttl.
type MemoryEmbeddingCache struct {
	cache *gocache.Cache
}

func NewMemoryEmbeddingCache(ttl time.Duration) embedding.Cache {
	return &MemoryEmbeddingCache{
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

func (c *MemoryEmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool) {
	if x, found := c.cache.Get(key); found {
		vector := x.([]float32)
		return append([]float32(nil), vector...), true
	}
	return nil, false
}

func (c *MemoryEmbeddingCache) Set(ctx context.Context, key string, vector []float32) {
	c.cache.Set(key, append([]float32(nil), vector...), gocache.DefaultExpiration)
}
