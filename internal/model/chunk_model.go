package model

import (
	"time"

	"doc-intelligence-be/internal/entity"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Chunk struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectId   uuid.UUID `gorm:"type:uuid;not null;index"`
	DocumentId  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chunks_document_chunk_index"`
	ChunkIndex  int       `gorm:"not null;uniqueIndex:idx_chunks_document_chunk_index"`
	PageNumber  int       `gorm:"not null;default:1"`
	Content     string    `gorm:"type:text;not null"`
	StartOffset int       `gorm:"not null"`
	EndOffset   int       `gorm:"not null"`

	// Embedding is the canonical packed form: 4 bytes per float32, little-endian.
	Embedding []byte `gorm:"type:bytea"`
	// EmbeddingVector mirrors Embedding for the pgvector search backend. Its
	// width is embedding.DefaultDimension; config validation enforces it.
	EmbeddingVector *pgvector.Vector `gorm:"type:vector(1536)"`
	EmbeddedAt      *time.Time       `gorm:"index"`

	Metadata  datatypes.JSONType[entity.ChunkMetadata] `gorm:"type:jsonb"`
	CreatedAt time.Time                                `gorm:"autoCreateTime"`
}

func (Chunk) TableName() string {
	return "chunks"
}
