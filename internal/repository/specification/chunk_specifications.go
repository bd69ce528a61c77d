package specification

import (
	"doc-intelligence-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chunks.document_id = ?", s.DocumentID)
}

func (s ByDocumentID) Matches(record interface{}) bool {
	c, ok := record.(*entity.Chunk)
	return ok && c.DocumentId == s.DocumentID
}

// EmbeddingPresent keeps chunks that already carry a vector.
type EmbeddingPresent struct{}

func (s EmbeddingPresent) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chunks.embedding IS NOT NULL")
}

func (s EmbeddingPresent) Matches(record interface{}) bool {
	c, ok := record.(*entity.Chunk)
	return ok && c.HasEmbedding()
}

// EmbeddingMissing keeps chunks that still need a vector.
type EmbeddingMissing struct{}

func (s EmbeddingMissing) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chunks.embedding IS NULL")
}

func (s EmbeddingMissing) Matches(record interface{}) bool {
	c, ok := record.(*entity.Chunk)
	return ok && !c.HasEmbedding()
}
