package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Cache stores generated vectors keyed by CacheKey. Implementations must be
// safe for concurrent use; a miss or a backend failure both report false.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, vector []float32)
}

func CacheKey(provider string, taskType TaskType, text string) string {
	sum := sha256.Sum256([]byte(provider + "\x00" + string(taskType) + "\x00" + text))
	return "embedding:" + hex.EncodeToString(sum[:])
}
