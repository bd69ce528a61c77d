package contract

import (
	"context"

	"doc-intelligence-be/internal/entity"
	"doc-intelligence-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredChunk wraps a Chunk with its cosine similarity to a query vector.
type ScoredChunk struct {
	Chunk      *entity.Chunk
	Similarity float64
}

type ChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.Chunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// FindMissingEmbeddings returns the project's chunks without a vector, in document order.
	FindMissingEmbeddings(ctx context.Context, projectId uuid.UUID) ([]*entity.Chunk, error)
	// FindEmbedded returns the project's chunks that carry a vector, in document order.
	FindEmbedded(ctx context.Context, projectId uuid.UUID) ([]*entity.Chunk, error)
	// UpdateEmbedding stores vector on a single chunk. It returns a not-found
	// error when the chunk no longer exists.
	UpdateEmbedding(ctx context.Context, chunkId uuid.UUID, vector []float32) error
	// SearchSimilarWithScore ranks the project's embedded chunks by cosine similarity.
	SearchSimilarWithScore(ctx context.Context, projectId uuid.UUID, vector []float32, limit int, threshold float64) ([]*ScoredChunk, error)
}
