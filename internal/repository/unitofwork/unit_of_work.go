package unitofwork

import (
	"context"

	"doc-intelligence-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ProjectRepository() contract.ProjectRepository
	DocumentRepository() contract.DocumentRepository
	ChunkRepository() contract.ChunkRepository
}
