package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEmbeddingCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryEmbeddingCache(time.Minute)

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	original := []float32{0.6, 0.8}
	c.Set(ctx, "k", original)
	original[0] = 99

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []float32{0.6, 0.8}, got)

	got[1] = 42
	again, _ := c.Get(ctx, "k")
	assert.Equal(t, []float32{0.6, 0.8}, again)
}

func TestMemoryEmbeddingCache_Expires(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryEmbeddingCache(10 * time.Millisecond)
	c.Set(ctx, "k", []float32{1})

	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}
