package mapper

import (
	"time"

	"doc-intelligence-be/internal/entity"
	"doc-intelligence-be/internal/model"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.Document{
		Id:           d.Id,
		ProjectId:    d.ProjectId,
		Name:         d.Name,
		MimeType:     d.MimeType,
		StoragePath:  d.StoragePath,
		Size:         d.Size,
		PageCount:    d.PageCount,
		Status:       entity.DocumentStatus(d.Status),
		ErrorMessage: d.ErrorMessage,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	status := string(d.Status)
	if status == "" {
		status = string(entity.DocumentStatusUploaded)
	}

	return &model.Document{
		Id:           d.Id,
		ProjectId:    d.ProjectId,
		Name:         d.Name,
		MimeType:     d.MimeType,
		StoragePath:  d.StoragePath,
		Size:         d.Size,
		PageCount:    d.PageCount,
		Status:       status,
		ErrorMessage: d.ErrorMessage,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *DocumentMapper) ToEntities(documents []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(documents))
	for i, d := range documents {
		entities[i] = m.ToEntity(d)
	}
	return entities
}
