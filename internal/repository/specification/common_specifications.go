package specification

import (
	"doc-intelligence-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// column qualifies name with the statement table so specifications stay
// unambiguous when a query joins other tables.
func column(name string) clause.Column {
	return clause.Column{Table: clause.CurrentTable, Name: name}
}

// ByID filters by ID
type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(clause.Eq{Column: column("id"), Value: s.ID})
}

func (s ByID) Matches(record interface{}) bool {
	switch r := record.(type) {
	case *entity.Project:
		return r.Id == s.ID
	case *entity.Document:
		return r.Id == s.ID
	case *entity.Chunk:
		return r.Id == s.ID
	}
	return false
}

// ByIDs filters by a list of IDs
type ByIDs struct {
	IDs []uuid.UUID
}

func (s ByIDs) Apply(db *gorm.DB) *gorm.DB {
	values := make([]interface{}, len(s.IDs))
	for i, id := range s.IDs {
		values[i] = id
	}
	return db.Where(clause.IN{Column: column("id"), Values: values})
}

func (s ByIDs) Matches(record interface{}) bool {
	for _, id := range s.IDs {
		if (ByID{ID: id}).Matches(record) {
			return true
		}
	}
	return false
}

// Pagination
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit).Offset(s.Offset)
}

func (s Pagination) Window() (int, int) {
	return s.Limit, s.Offset
}
