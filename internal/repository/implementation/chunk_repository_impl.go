package implementation

import (
	"context"
	"time"

	"doc-intelligence-be/internal/entity"
	"doc-intelligence-be/internal/mapper"
	"doc-intelligence-be/internal/model"
	"doc-intelligence-be/internal/repository/contract"
	"doc-intelligence-be/internal/repository/scope"
	"doc-intelligence-be/internal/repository/specification"
	"doc-intelligence-be/pkg/apperror"
	"doc-intelligence-be/pkg/embedding"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

const chunkInsertBatchSize = 200

type ChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkMapper
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkMapper(),
	}
}

func (r *ChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := r.mapper.ToModels(chunks)
	if err := r.db.WithContext(ctx).CreateInBatches(models, chunkInsertBatchSize).Error; err != nil {
		if IsUniqueViolation(err) {
			return apperror.Wrap(apperror.KindValidation, err, "duplicate chunk index")
		}
		return err
	}

	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *ChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.Chunk{}).Error
}

func (r *ChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error) {
	var models []*model.Chunk
	query := r.db.WithContext(ctx).
		Model(&model.Chunk{}).
		Select("chunks.*").
		Scopes(scope.OrderByDocumentPosition)
	query = applySpecifications(query, specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Chunk{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *ChunkRepositoryImpl) FindMissingEmbeddings(ctx context.Context, projectId uuid.UUID) ([]*entity.Chunk, error) {
	return r.FindAll(ctx,
		specification.ByProjectID{ProjectID: projectId},
		specification.EmbeddingMissing{},
	)
}

func (r *ChunkRepositoryImpl) FindEmbedded(ctx context.Context, projectId uuid.UUID) ([]*entity.Chunk, error) {
	return r.FindAll(ctx,
		specification.ByProjectID{ProjectID: projectId},
		specification.EmbeddingPresent{},
	)
}

func (r *ChunkRepositoryImpl) UpdateEmbedding(ctx context.Context, chunkId uuid.UUID, vector []float32) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Chunk{}).
		Where("id = ?", chunkId).
		Updates(map[string]interface{}{
			"embedding":        embedding.SerializeEmbedding(vector),
			"embedding_vector": pgvector.NewVector(vector),
			"embedded_at":      &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("chunk %s not found", chunkId)
	}
	return nil
}

// SearchSimilarWithScore relies on pgvector: cosine distance is 1 - cosine similarity.
func (r *ChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, projectId uuid.UUID, vector []float32, limit int, threshold float64) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 8
	}

	type result struct {
		model.Chunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)

	err := r.db.WithContext(ctx).
		Table("chunks").
		Select("chunks.*, 1 - (chunks.embedding_vector <=> ?) AS similarity", queryVector).
		Joins("JOIN documents ON documents.id = chunks.document_id").
		Where("chunks.project_id = ?", projectId).
		Where("chunks.embedding_vector IS NOT NULL").
		Where("1 - (chunks.embedding_vector <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Order("documents.created_at ASC").
		Order("chunks.chunk_index ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredChunk, len(results))
	for i := range results {
		scored[i] = &contract.ScoredChunk{
			Chunk:      r.mapper.ToEntity(&results[i].Chunk),
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}
