package dto

import (
	"time"

	"github.com/google/uuid"
)

type DocumentResponse struct {
	Id           uuid.UUID  `json:"id"`
	ProjectId    uuid.UUID  `json:"project_id"`
	Name         string     `json:"name"`
	MimeType     string     `json:"mime_type"`
	Size         int64      `json:"size"`
	PageCount    *int       `json:"page_count"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type IngestDocumentResult struct {
	DocumentId uuid.UUID `json:"document_id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Chunks     int       `json:"chunks"`
	Pages      int       `json:"pages"`
	Error      string    `json:"error,omitempty"`
}

type IngestResponse struct {
	ProjectId uuid.UUID              `json:"project_id"`
	Status    string                 `json:"status"`
	Documents []IngestDocumentResult `json:"documents"`
}
