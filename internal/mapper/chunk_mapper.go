package mapper

import (
	"doc-intelligence-be/internal/entity"
	"doc-intelligence-be/internal/model"
	"doc-intelligence-be/pkg/embedding"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ChunkMapper struct{}

func NewChunkMapper() *ChunkMapper {
	return &ChunkMapper{}
}

// ToEntity decodes the packed embedding. A blob that fails to decode is
// surfaced as a chunk without an embedding.
func (m *ChunkMapper) ToEntity(c *model.Chunk) *entity.Chunk {
	if c == nil {
		return nil
	}

	var vector []float32
	if len(c.Embedding) > 0 {
		if decoded, err := embedding.DeserializeEmbedding(c.Embedding); err == nil {
			vector = decoded
		}
	}

	return &entity.Chunk{
		Id:          c.Id,
		ProjectId:   c.ProjectId,
		DocumentId:  c.DocumentId,
		ChunkIndex:  c.ChunkIndex,
		PageNumber:  c.PageNumber,
		Content:     c.Content,
		StartOffset: c.StartOffset,
		EndOffset:   c.EndOffset,
		Embedding:   vector,
		EmbeddedAt:  c.EmbeddedAt,
		Metadata:    c.Metadata.Data(),
		CreatedAt:   c.CreatedAt,
	}
}

func (m *ChunkMapper) ToModel(c *entity.Chunk) *model.Chunk {
	if c == nil {
		return nil
	}

	var blob []byte
	var vector *pgvector.Vector
	if len(c.Embedding) > 0 {
		blob = embedding.SerializeEmbedding(c.Embedding)
		v := pgvector.NewVector(c.Embedding)
		vector = &v
	}

	return &model.Chunk{
		Id:              c.Id,
		ProjectId:       c.ProjectId,
		DocumentId:      c.DocumentId,
		ChunkIndex:      c.ChunkIndex,
		PageNumber:      c.PageNumber,
		Content:         c.Content,
		StartOffset:     c.StartOffset,
		EndOffset:       c.EndOffset,
		Embedding:       blob,
		EmbeddingVector: vector,
		EmbeddedAt:      c.EmbeddedAt,
		Metadata:        datatypes.NewJSONType(c.Metadata),
		CreatedAt:       c.CreatedAt,
	}
}

func (m *ChunkMapper) ToEntities(chunks []*model.Chunk) []*entity.Chunk {
	entities := make([]*entity.Chunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func (m *ChunkMapper) ToModels(chunks []*entity.Chunk) []*model.Chunk {
	models := make([]*model.Chunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}
