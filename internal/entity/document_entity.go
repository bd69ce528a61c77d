package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusUploaded   DocumentStatus = "uploaded"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusProcessed  DocumentStatus = "processed"
	DocumentStatusError      DocumentStatus = "error"
)

type Document struct {
	Id           uuid.UUID
	ProjectId    uuid.UUID
	Name         string
	MimeType     string
	StoragePath  string
	Size         int64
	PageCount    *int // nil until parsed
	Status       DocumentStatus
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
