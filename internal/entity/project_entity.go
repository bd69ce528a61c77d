package entity

import (
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectStatusCreated    ProjectStatus = "created"
	ProjectStatusProcessing ProjectStatus = "processing"
	ProjectStatusProcessed  ProjectStatus = "processed"
	ProjectStatusEmbedding  ProjectStatus = "embedding"
	ProjectStatusEmbedded   ProjectStatus = "embedded"
	ProjectStatusError      ProjectStatus = "error"
)

type Project struct {
	Id          uuid.UUID
	Name        string
	Description string
	Status      ProjectStatus
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
