package scope

import "gorm.io/gorm"

func OrderByCreatedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// OrderByDocumentPosition orders chunks the way their documents were uploaded,
// then by position inside each document.
func OrderByDocumentPosition(db *gorm.DB) *gorm.DB {
	return db.
		Joins("JOIN documents ON documents.id = chunks.document_id").
		Order("documents.created_at ASC").
		Order("documents.id ASC").
		Order("chunks.chunk_index ASC")
}
