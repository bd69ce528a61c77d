package service

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"doc-intelligence-be/internal/dto"
	"doc-intelligence-be/internal/entity"
	"doc-intelligence-be/internal/pkg/logger"
	"doc-intelligence-be/internal/repository/specification"
	"doc-intelligence-be/internal/repository/unitofwork"
	"doc-intelligence-be/pkg/apperror"
	"doc-intelligence-be/pkg/embedding"
	"doc-intelligence-be/pkg/events"

	"github.com/google/uuid"
)

type IProjectService interface {
	Create(ctx context.Context, req *dto.CreateProjectRequest) (*dto.CreateProjectResponse, error)
	GetAll(ctx context.Context) ([]*dto.ProjectResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ProjectResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectService struct {
	uowFactory unitofwork.RepositoryFactory
	events     events.Publisher
	sidecar    *embedding.SidecarWriter
	uploadDir  string
	logger     logger.ILogger
}

func NewProjectService(
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher events.Publisher,
	sidecar *embedding.SidecarWriter,
	uploadDir string,
	log logger.ILogger,
) IProjectService {
	if eventPublisher == nil {
		eventPublisher = events.NopPublisher{}
	}
	return &projectService{
		uowFactory: uowFactory,
		events:     eventPublisher,
		sidecar:    sidecar,
		uploadDir:  uploadDir,
		logger:     log,
	}
}

func (c *projectService) Create(ctx context.Context, req *dto.CreateProjectRequest) (*dto.CreateProjectResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	project := entity.Project{
		Id:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Status:      entity.ProjectStatusCreated,
		CreatedAt:   time.Now(),
	}
	if err := uow.ProjectRepository().Create(ctx, &project); err != nil {
		return nil, err
	}

	return &dto.CreateProjectResponse{Id: project.Id}, nil
}

func (c *projectService) GetAll(ctx context.Context) ([]*dto.ProjectResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	projects, err := uow.ProjectRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.ProjectResponse, 0, len(projects))
	for _, project := range projects {
		res, err := c.describe(ctx, uow, project)
		if err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	return result, nil
}

func (c *projectService) Show(ctx context.Context, id uuid.UUID) (*dto.ProjectResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperror.NotFound("project %s not found", id)
	}

	return c.describe(ctx, uow, project)
}

// Delete removes the project with its documents and chunks, then the files
// stored for it.
func (c *projectService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if project == nil {
		return apperror.NotFound("project %s not found", id)
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ProjectRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if c.uploadDir != "" {
		if err := os.RemoveAll(filepath.Join(c.uploadDir, id.String())); err != nil {
			c.logger.Warn("ProjectService", "Failed to remove project uploads", map[string]interface{}{"project_id": id, "error": err.Error()})
		}
	}
	if c.sidecar != nil {
		if err := c.sidecar.Remove(id.String()); err != nil {
			c.logger.Warn("ProjectService", "Failed to remove embedding sidecar", map[string]interface{}{"project_id": id, "error": err.Error()})
		}
	}

	if err := c.events.Publish(ctx, events.New(events.ProjectDeleted, map[string]interface{}{
		"project_id": id.String(),
		"name":       project.Name,
	})); err != nil {
		c.logger.Warn("ProjectService", "Failed to publish event", map[string]interface{}{"type": events.ProjectDeleted, "error": err.Error()})
	}

	return nil
}

func (c *projectService) describe(ctx context.Context, uow unitofwork.UnitOfWork, project *entity.Project) (*dto.ProjectResponse, error) {
	documents, err := uow.DocumentRepository().Count(ctx, specification.ByProjectID{ProjectID: project.Id})
	if err != nil {
		return nil, err
	}
	embedded, total, err := countEmbedding(ctx, uow, project.Id)
	if err != nil {
		return nil, err
	}

	return &dto.ProjectResponse{
		Id:                project.Id,
		Name:              project.Name,
		Description:       project.Description,
		Status:            string(project.Status),
		DocumentCount:     documents,
		ChunkCount:        total,
		EmbeddedCount:     embedded,
		EmbeddingProgress: embeddingProgress(embedded, total),
		CreatedAt:         project.CreatedAt,
		UpdatedAt:         project.UpdatedAt,
	}, nil
}
