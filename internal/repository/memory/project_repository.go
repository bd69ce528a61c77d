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

type ProjectRepository struct {
	store *Store
}

func cloneProject(p *entity.Project) *entity.Project {
	c := *p
	return &c
}

func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if project.Id == uuid.Nil {
		project.Id = uuid.New()
	}
	if project.Status == "" {
		project.Status = entity.ProjectStatusCreated
	}
	stamp(&project.CreatedAt)
	r.store.track(project.Id)
	r.store.projects[project.Id] = cloneProject(project)
	return nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *entity.Project) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.projects[project.Id]; !ok {
		return apperror.NotFound("project %s not found", project.Id)
	}
	now := time.Now()
	project.UpdatedAt = &now
	r.store.projects[project.Id] = cloneProject(project)
	return nil
}

func (r *ProjectRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ProjectStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.projects[id]
	if !ok {
		return apperror.NotFound("project %s not found", id)
	}
	updated := cloneProject(existing)
	updated.Status = status
	now := time.Now()
	updated.UpdatedAt = &now
	r.store.projects[id] = updated
	return nil
}

// Delete cascades to the project's documents and chunks.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.projects, id)
	for docID, d := range r.store.documents {
		if d.ProjectId == id {
			delete(r.store.documents, docID)
		}
	}
	for chunkID, c := range r.store.chunks {
		if c.ProjectId == id {
			delete(r.store.chunks, chunkID)
		}
	}
	return nil
}

func (r *ProjectRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Project, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *ProjectRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Project, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*entity.Project, 0, len(r.store.projects))
	for _, p := range r.store.projects {
		if matches(p, specs) {
			result = append(result, cloneProject(p))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return r.store.order[result[i].Id] > r.store.order[result[j].Id]
	})
	return window(result, specs), nil
}

func (r *ProjectRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64
	for _, p := range r.store.projects {
		if matches(p, specs) {
			count++
		}
	}
	return count, nil
}
