package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChunkMetadataSchemaVersion is bumped whenever ChunkMetadata changes shape.
const ChunkMetadataSchemaVersion = 1

// ChunkMetadata records how a chunk was produced.
type ChunkMetadata struct {
	SchemaVersion int    `json:"schema_version"`
	Start         int    `json:"start"`
	End           int    `json:"end"`
	ChunkSize     int    `json:"chunk_size"`
	Overlap       int    `json:"overlap"`
	Parser        string `json:"parser,omitempty"`
	PageCount     int    `json:"page_count,omitempty"`
}

type Chunk struct {
	Id          uuid.UUID
	ProjectId   uuid.UUID
	DocumentId  uuid.UUID
	ChunkIndex  int // 0-based, document order
	PageNumber  int
	Content     string
	StartOffset int
	EndOffset   int
	Embedding   []float32 // nil until embedded
	EmbeddedAt  *time.Time
	Metadata    ChunkMetadata
	CreatedAt   time.Time
}

func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}
