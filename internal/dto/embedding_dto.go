package dto

import "github.com/google/uuid"

type GenerateEmbeddingsResponse struct {
	ProjectId       uuid.UUID `json:"project_id"`
	Status          string    `json:"status"`
	TotalChunks     int       `json:"total_chunks"`
	ProcessedChunks int       `json:"processed_chunks"`
	FailedChunks    int       `json:"failed_chunks"`
	Queued          bool      `json:"queued,omitempty"`
}

type EmbeddingProgressResponse struct {
	ProjectId uuid.UUID `json:"project_id"`
	Status    string    `json:"status"`
	Embedded  int64     `json:"embedded"`
	Total     int64     `json:"total"`
	Progress  float64   `json:"progress"`
}

// EmbeddingBatchProgress is pushed to websocket subscribers after each batch.
type EmbeddingBatchProgress struct {
	Batch           int     `json:"batch"`
	Batches         int     `json:"batches"`
	TotalChunks     int     `json:"total_chunks"`
	ProcessedChunks int     `json:"processed_chunks"`
	FailedChunks    int     `json:"failed_chunks"`
	Progress        float64 `json:"progress"`
	Done            bool    `json:"done"`
	Status          string  `json:"status,omitempty"`
}

// PublishEmbedProjectMessage is the job payload on the EMBED_PROJECT topic.
type PublishEmbedProjectMessage struct {
	ProjectId uuid.UUID `json:"project_id"`
}
