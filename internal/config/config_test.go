package config

import (
	"testing"
	"time"

	"doc-intelligence-be/pkg/apperror"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"CHUNK_SIZE", "CHUNK_OVERLAP", "RETRIEVAL_TOP_K", "RETRIEVAL_MIN_SIMILARITY", "EMBEDDING_BATCH_SIZE", "EMBEDDING_BATCH_DELAY", "EMBEDDING_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, 1000, cfg.Chunking.ChunkSize)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.3, cfg.Retrieval.MinSimilarity, 1e-9)
	assert.Equal(t, 5, cfg.Batch.Size)
	assert.Equal(t, 100*time.Millisecond, cfg.Batch.Delay)
	assert.Equal(t, 12*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 1536, cfg.Embedding.Dimension)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("RETRIEVAL_MIN_SIMILARITY", "0.55")
	t.Setenv("EMBEDDING_ALLOW_FALLBACK", "true")
	t.Setenv("EMBEDDING_BATCH_DELAY", "250")
	t.Setenv("PARSE_TIMEOUT", "3s")
	t.Setenv("GO_ENV", "production")

	cfg := Load()

	assert.Equal(t, 500, cfg.Chunking.ChunkSize)
	assert.InDelta(t, 0.55, cfg.Retrieval.MinSimilarity, 1e-9)
	assert.True(t, cfg.Embedding.AllowFallback)
	assert.Equal(t, 250*time.Millisecond, cfg.Batch.Delay)
	assert.Equal(t, 3*time.Second, cfg.Storage.ParseTimeout)
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvAsInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
}

func validConfig() *Config {
	return &Config{
		Database:  DatabaseConfig{Driver: "postgres"},
		Embedding: EmbeddingConfig{Dimension: 1536},
		Chunking:  ChunkingConfig{ChunkSize: 1000, Overlap: 200},
		Retrieval: RetrievalConfig{TopK: 8, MinSimilarity: 0.3},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "zero min similarity", mutate: func(c *Config) { c.Retrieval.MinSimilarity = 0 }},
		{name: "postgres with other dimension", mutate: func(c *Config) { c.Embedding.Dimension = 768 }, wantErr: true},
		{name: "memory with other dimension", mutate: func(c *Config) {
			c.Database.Driver = "memory"
			c.Embedding.Dimension = 768
		}},
		{name: "non-positive dimension", mutate: func(c *Config) {
			c.Database.Driver = "memory"
			c.Embedding.Dimension = 0
		}, wantErr: true},
		{name: "overlap not below chunk size", mutate: func(c *Config) { c.Chunking.Overlap = 1000 }, wantErr: true},
		{name: "top_k out of range", mutate: func(c *Config) { c.Retrieval.TopK = 0 }, wantErr: true},
		{name: "min similarity out of range", mutate: func(c *Config) { c.Retrieval.MinSimilarity = 1.2 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, apperror.ErrConfiguration)
				return
			}
			assert.NoError(t, err)
		})
	}
}
