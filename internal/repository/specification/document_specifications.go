package specification

import (
	"doc-intelligence-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ByProjectID filters documents or chunks that belong to a project.
type ByProjectID struct {
	ProjectID uuid.UUID
}

func (s ByProjectID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(clause.Eq{Column: column("project_id"), Value: s.ProjectID})
}

func (s ByProjectID) Matches(record interface{}) bool {
	switch r := record.(type) {
	case *entity.Document:
		return r.ProjectId == s.ProjectID
	case *entity.Chunk:
		return r.ProjectId == s.ProjectID
	}
	return false
}

type ByDocumentStatus struct {
	Statuses []entity.DocumentStatus
}

func (s ByDocumentStatus) Apply(db *gorm.DB) *gorm.DB {
	values := make([]interface{}, len(s.Statuses))
	for i, st := range s.Statuses {
		values[i] = string(st)
	}
	return db.Where(clause.IN{Column: column("status"), Values: values})
}

func (s ByDocumentStatus) Matches(record interface{}) bool {
	d, ok := record.(*entity.Document)
	if !ok {
		return false
	}
	for _, st := range s.Statuses {
		if d.Status == st {
			return true
		}
	}
	return false
}
