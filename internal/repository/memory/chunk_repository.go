package memory

import (
	"context"
	"sort"
	"time"

	"doc-intelligence-be/internal/entity"
	"doc-intelligence-be/internal/repository/contract"
	"doc-intelligence-be/internal/repository/specification"
	"doc-intelligence-be/pkg/apperror"
	"doc-intelligence-be/pkg/embedding"

	"github.com/google/uuid"
)

type ChunkRepository struct {
	store *Store
}

func cloneChunk(c *entity.Chunk) *entity.Chunk {
	cp := *c
	if c.Embedding != nil {
		cp.Embedding = append([]float32(nil), c.Embedding...)
	}
	return &cp
}

func (r *ChunkRepository) CreateBulk(ctx context.Context, chunks []*entity.Chunk) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	type position struct {
		doc   uuid.UUID
		index int
	}
	taken := make(map[position]bool)
	for _, c := range r.store.chunks {
		taken[position{c.DocumentId, c.ChunkIndex}] = true
	}
	for _, c := range chunks {
		if _, ok := r.store.documents[c.DocumentId]; !ok {
			return apperror.NotFound("document %s not found", c.DocumentId)
		}
		p := position{c.DocumentId, c.ChunkIndex}
		if taken[p] {
			return apperror.Validation("duplicate chunk index %d for document %s", c.ChunkIndex, c.DocumentId)
		}
		taken[p] = true
	}

	for _, c := range chunks {
		if c.Id == uuid.Nil {
			c.Id = uuid.New()
		}
		stamp(&c.CreatedAt)
		r.store.chunks[c.Id] = cloneChunk(c)
	}
	return nil
}

func (r *ChunkRepository) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, c := range r.store.chunks {
		if c.DocumentId == documentId {
			delete(r.store.chunks, id)
		}
	}
	return nil
}

func (r *ChunkRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*entity.Chunk, 0)
	for _, c := range r.store.chunks {
		if matches(c, specs) {
			result = append(result, cloneChunk(c))
		}
	}
	r.store.sortChunks(result)
	return window(result, specs), nil
}

func (r *ChunkRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64
	for _, c := range r.store.chunks {
		if matches(c, specs) {
			count++
		}
	}
	return count, nil
}

func (r *ChunkRepository) FindMissingEmbeddings(ctx context.Context, projectId uuid.UUID) ([]*entity.Chunk, error) {
	return r.FindAll(ctx,
		specification.ByProjectID{ProjectID: projectId},
		specification.EmbeddingMissing{},
	)
}

func (r *ChunkRepository) FindEmbedded(ctx context.Context, projectId uuid.UUID) ([]*entity.Chunk, error) {
	return r.FindAll(ctx,
		specification.ByProjectID{ProjectID: projectId},
		specification.EmbeddingPresent{},
	)
}

func (r *ChunkRepository) UpdateEmbedding(ctx context.Context, chunkId uuid.UUID, vector []float32) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.chunks[chunkId]
	if !ok {
		return apperror.NotFound("chunk %s not found", chunkId)
	}
	updated := cloneChunk(existing)
	updated.Embedding = append([]float32(nil), vector...)
	now := time.Now()
	updated.EmbeddedAt = &now
	r.store.chunks[chunkId] = updated
	return nil
}

func (r *ChunkRepository) SearchSimilarWithScore(ctx context.Context, projectId uuid.UUID, vector []float32, limit int, threshold float64) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 8
	}
	embedded, err := r.FindEmbedded(ctx, projectId)
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredChunk, 0, len(embedded))
	for _, c := range embedded {
		score, err := embedding.CosineSimilarity(vector, c.Embedding)
		if err != nil || score < threshold {
			continue
		}
		scored = append(scored, &contract.ScoredChunk{Chunk: c, Similarity: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}
