package memory

import (
	"context"
	"testing"

	"doc-intelligence-be/internal/entity"
	"doc-intelligence-be/internal/repository/specification"
	"doc-intelligence-be/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProjectWithDocs(t *testing.T, store *Store, docs int) (*entity.Project, []*entity.Document) {
	t.Helper()
	ctx := context.Background()
	uow := NewRepositoryFactory(store).NewUnitOfWork(ctx)

	project := &entity.Project{Name: "p"}
	require.NoError(t, uow.ProjectRepository().Create(ctx, project))

	var created []*entity.Document
	for i := 0; i < docs; i++ {
		d := &entity.Document{ProjectId: project.Id, Name: "doc", MimeType: "text/plain"}
		require.NoError(t, uow.DocumentRepository().Create(ctx, d))
		created = append(created, d)
	}
	return project, created
}

func TestChunkRepository_DocumentOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	project, docs := newProjectWithDocs(t, store, 2)
	chunks := NewRepositoryFactory(store).NewUnitOfWork(ctx).ChunkRepository()

	// Insert the second document's chunks first.
	require.NoError(t, chunks.CreateBulk(ctx, []*entity.Chunk{
		{ProjectId: project.Id, DocumentId: docs[1].Id, ChunkIndex: 1, Content: "b1"},
		{ProjectId: project.Id, DocumentId: docs[1].Id, ChunkIndex: 0, Content: "b0"},
	}))
	require.NoError(t, chunks.CreateBulk(ctx, []*entity.Chunk{
		{ProjectId: project.Id, DocumentId: docs[0].Id, ChunkIndex: 0, Content: "a0"},
	}))

	missing, err := chunks.FindMissingEmbeddings(ctx, project.Id)
	require.NoError(t, err)

	var contents []string
	for _, c := range missing {
		contents = append(contents, c.Content)
	}
	assert.Equal(t, []string{"a0", "b0", "b1"}, contents)
}

func TestChunkRepository_DuplicateIndexRejected(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	project, docs := newProjectWithDocs(t, store, 1)
	chunks := NewRepositoryFactory(store).NewUnitOfWork(ctx).ChunkRepository()

	require.NoError(t, chunks.CreateBulk(ctx, []*entity.Chunk{
		{ProjectId: project.Id, DocumentId: docs[0].Id, ChunkIndex: 0},
	}))
	err := chunks.CreateBulk(ctx, []*entity.Chunk{
		{ProjectId: project.Id, DocumentId: docs[0].Id, ChunkIndex: 0},
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestChunkRepository_UpdateEmbedding(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	project, docs := newProjectWithDocs(t, store, 1)
	chunks := NewRepositoryFactory(store).NewUnitOfWork(ctx).ChunkRepository()

	c := &entity.Chunk{ProjectId: project.Id, DocumentId: docs[0].Id}
	require.NoError(t, chunks.CreateBulk(ctx, []*entity.Chunk{c}))

	require.NoError(t, chunks.UpdateEmbedding(ctx, c.Id, []float32{1, 0}))
	require.NoError(t, chunks.UpdateEmbedding(ctx, c.Id, []float32{0, 1}))

	embedded, err := chunks.FindEmbedded(ctx, project.Id)
	require.NoError(t, err)
	require.Len(t, embedded, 1)
	assert.Equal(t, []float32{0, 1}, embedded[0].Embedding)
	assert.NotNil(t, embedded[0].EmbeddedAt)

	err = chunks.UpdateEmbedding(ctx, uuid.New(), []float32{1})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestProjectRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	project, docs := newProjectWithDocs(t, store, 2)
	uow := NewRepositoryFactory(store).NewUnitOfWork(ctx)

	require.NoError(t, uow.ChunkRepository().CreateBulk(ctx, []*entity.Chunk{
		{ProjectId: project.Id, DocumentId: docs[0].Id, ChunkIndex: 0},
		{ProjectId: project.Id, DocumentId: docs[1].Id, ChunkIndex: 0},
	}))

	require.NoError(t, uow.ProjectRepository().Delete(ctx, project.Id))

	docCount, err := uow.DocumentRepository().Count(ctx, specification.ByProjectID{ProjectID: project.Id})
	require.NoError(t, err)
	chunkCount, err := uow.ChunkRepository().Count(ctx, specification.ByProjectID{ProjectID: project.Id})
	require.NoError(t, err)
	assert.Zero(t, docCount)
	assert.Zero(t, chunkCount)
}

func TestFindAll_Specifications(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	project, docs := newProjectWithDocs(t, store, 3)
	repo := NewRepositoryFactory(store).NewUnitOfWork(ctx).DocumentRepository()

	require.NoError(t, repo.UpdateStatus(ctx, docs[1].Id, entity.DocumentStatusProcessed, ""))

	pending, err := repo.FindAll(ctx,
		specification.ByProjectID{ProjectID: project.Id},
		specification.ByDocumentStatus{Statuses: []entity.DocumentStatus{entity.DocumentStatusUploaded, entity.DocumentStatusError}},
	)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, docs[0].Id, pending[0].Id)
	assert.Equal(t, docs[2].Id, pending[1].Id)

	page, err := repo.FindAll(ctx, specification.ByProjectID{ProjectID: project.Id}, specification.Pagination{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, docs[1].Id, page[0].Id)

	one, err := repo.FindOne(ctx, specification.ByID{ID: uuid.New()})
	require.NoError(t, err)
	assert.Nil(t, one)
}
