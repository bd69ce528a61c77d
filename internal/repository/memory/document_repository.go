package memory

import (
	"context"
	"sort"
	"time"

	"doc-intelligence-be/internal/entity"
	"doc-intelligence-be/internal/repository/specification"
	"doc-intelligence-be/pkg/apperror"

	"github.com/google/uuid"
)

type DocumentRepository struct {
	store *Store
}

func cloneDocument(d *entity.Document) *entity.Document {
	c := *d
	if d.PageCount != nil {
		pages := *d.PageCount
		c.PageCount = &pages
	}
	return &c
}

func (r *DocumentRepository) Create(ctx context.Context, document *entity.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.projects[document.ProjectId]; !ok {
		return apperror.NotFound("project %s not found", document.ProjectId)
	}
	if document.Id == uuid.Nil {
		document.Id = uuid.New()
	}
	if document.Status == "" {
		document.Status = entity.DocumentStatusUploaded
	}
	stamp(&document.CreatedAt)
	r.store.track(document.Id)
	r.store.documents[document.Id] = cloneDocument(document)
	return nil
}

func (r *DocumentRepository) Update(ctx context.Context, document *entity.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.documents[document.Id]; !ok {
		return apperror.NotFound("document %s not found", document.Id)
	}
	now := time.Now()
	document.UpdatedAt = &now
	r.store.documents[document.Id] = cloneDocument(document)
	return nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.DocumentStatus, errorMessage string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.documents[id]
	if !ok {
		return apperror.NotFound("document %s not found", id)
	}
	updated := cloneDocument(existing)
	updated.Status = status
	updated.ErrorMessage = errorMessage
	now := time.Now()
	updated.UpdatedAt = &now
	r.store.documents[id] = updated
	return nil
}

// Delete cascades to the document's chunks.
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.documents, id)
	for chunkID, c := range r.store.chunks {
		if c.DocumentId == id {
			delete(r.store.chunks, chunkID)
		}
	}
	return nil
}

func (r *DocumentRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *DocumentRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*entity.Document, 0)
	for _, d := range r.store.documents {
		if matches(d, specs) {
			result = append(result, cloneDocument(d))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return r.store.order[result[i].Id] < r.store.order[result[j].Id]
	})
	return window(result, specs), nil
}

func (r *DocumentRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64
	for _, d := range r.store.documents {
		if matches(d, specs) {
			count++
		}
	}
	return count, nil
}
