package cache

import (
	"context"
	"errors"
	"time"

	"doc-intelligence-be/internal/pkg/logger"
	"doc-intelligence-be/pkg/embedding"

	"github.com/redis/go-redis/v9"
)

// RedisEmbeddingCache shares vectors between instances. Values use the same
// packed float32 encoding as the chunk store.
type RedisEmbeddingCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

func NewRedisEmbeddingCache(rdb *redis.Client, ttl time.Duration, log logger.ILogger) embedding.Cache {
	return &RedisEmbeddingCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: log,
	}
}

func (c *RedisEmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("EMBEDDING_CACHE", "Redis get failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}
	vector, err := embedding.DeserializeEmbedding(raw)
	if err != nil {
		return nil, false
	}
	return vector, true
}

func (c *RedisEmbeddingCache) Set(ctx context.Context, key string, vector []float32) {
	if err := c.rdb.Set(ctx, key, embedding.SerializeEmbedding(vector), c.ttl).Err(); err != nil {
		c.logger.Warn("EMBEDDING_CACHE", "Redis set failed", map[string]interface{}{"error": err.Error()})
	}
}
