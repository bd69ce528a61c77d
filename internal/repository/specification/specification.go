package specification

import "gorm.io/gorm"

// Specification defines the interface for query specifications
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// Matcher is implemented by specifications that can also filter records held
// in memory. Records are *entity.Project, *entity.Document or *entity.Chunk.
type Matcher interface {
	Matches(record interface{}) bool
}

// Windower is implemented by specifications that limit a result set.
type Windower interface {
	Window() (limit, offset int)
}
