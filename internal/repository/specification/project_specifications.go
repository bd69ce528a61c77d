package specification

import (
	"doc-intelligence-be/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ByProjectStatus struct {
	Status entity.ProjectStatus
}

func (s ByProjectStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(clause.Eq{Column: column("status"), Value: string(s.Status)})
}

func (s ByProjectStatus) Matches(record interface{}) bool {
	p, ok := record.(*entity.Project)
	return ok && p.Status == s.Status
}
