package model

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectId    uuid.UUID `gorm:"type:uuid;not null;index"`
	Name         string    `gorm:"type:varchar(512);not null"`
	MimeType     string    `gorm:"type:varchar(255);not null"`
	StoragePath  string    `gorm:"type:text;not null"`
	Size         int64     `gorm:"not null;default:0"`
	PageCount    *int
	Status       string    `gorm:"type:varchar(32);not null;default:'uploaded';index"`
	ErrorMessage string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	Chunks []Chunk `gorm:"foreignKey:DocumentId;references:Id;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (Document) TableName() string {
	return "documents"
}
