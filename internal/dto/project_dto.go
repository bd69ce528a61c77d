package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
}

type CreateProjectResponse struct {
	Id uuid.UUID `json:"id"`
}

type ProjectResponse struct {
	Id                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Status            string     `json:"status"`
	DocumentCount     int64      `json:"document_count"`
	ChunkCount        int64      `json:"chunk_count"`
	EmbeddedCount     int64      `json:"embedded_count"`
	EmbeddingProgress float64    `json:"embedding_progress"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at"`
}
