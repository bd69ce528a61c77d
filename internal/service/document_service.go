package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"doc-intelligence-be/internal/config"
	"doc-intelligence-be/internal/dto"
	"doc-intelligence-be/internal/entity"
	"doc-intelligence-be/internal/pkg/logger"
	"doc-intelligence-be/internal/repository/specification"
	"doc-intelligence-be/internal/repository/unitofwork"
	"doc-intelligence-be/pkg/apperror"
	"doc-intelligence-be/pkg/embedding"
	"doc-intelligence-be/pkg/events"
	"doc-intelligence-be/pkg/parser"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Upload(ctx context.Context, projectId uuid.UUID, file *multipart.FileHeader) (*dto.DocumentResponse, error)
	GetAll(ctx context.Context, projectId uuid.UUID) ([]*dto.DocumentResponse, error)
	Delete(ctx context.Context, projectId uuid.UUID, id uuid.UUID) error
}

type documentService struct {
	uowFactory unitofwork.RepositoryFactory
	parsers    *parser.Registry
	events     events.Publisher
	sidecar    *embedding.SidecarWriter
	storage    config.StorageConfig
	logger     logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	parsers *parser.Registry,
	eventPublisher events.Publisher,
	sidecar *embedding.SidecarWriter,
	storage config.StorageConfig,
	log logger.ILogger,
) IDocumentService {
	if eventPublisher == nil {
		eventPublisher = events.NopPublisher{}
	}
	return &documentService{
		uowFactory: uowFactory,
		parsers:    parsers,
		events:     eventPublisher,
		sidecar:    sidecar,
		storage:    storage,
		logger:     log,
	}
}

// Upload stores the file under <upload dir>/<project id>/ and registers it
// as an uploaded document waiting for ingestion.
func (s *documentService) Upload(ctx context.Context, projectId uuid.UUID, file *multipart.FileHeader) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: projectId})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperror.NotFound("project %s not found", projectId)
	}

	if s.storage.MaxUploadSize > 0 && file.Size > int64(s.storage.MaxUploadSize) {
		return nil, apperror.Validation("file too large (max %d bytes)", s.storage.MaxUploadSize)
	}

	mimeType := parser.DetectMIMEType(file.Filename, file.Header.Get("Content-Type"))
	if !s.parsers.Supports(mimeType) {
		return nil, apperror.Validation("unsupported document type %q", mimeType)
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dir := filepath.Join(s.storage.UploadDir, projectId.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	id := uuid.New()
	dstPath := filepath.Join(dir, id.String()+filepath.Ext(file.Filename))
	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(dstPath)
		return nil, err
	}

	document := entity.Document{
		Id:          id,
		ProjectId:   projectId,
		Name:        filepath.Base(file.Filename),
		MimeType:    mimeType,
		StoragePath: dstPath,
		Size:        size,
		Status:      entity.DocumentStatusUploaded,
		CreatedAt:   time.Now(),
	}
	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		os.Remove(dstPath)
		return nil, err
	}

	if err := s.events.Publish(ctx, events.New(events.DocumentUploaded, map[string]interface{}{
		"project_id":  projectId.String(),
		"document_id": id.String(),
		"name":        document.Name,
		"mime_type":   mimeType,
		"size":        size,
	})); err != nil {
		s.logger.Warn("DocumentService", "Failed to publish event", map[string]interface{}{"type": events.DocumentUploaded, "error": err.Error()})
	}

	s.logger.Info("DocumentService", fmt.Sprintf("Document %s uploaded", document.Name), map[string]interface{}{
		"project_id":  projectId,
		"document_id": id,
		"size":        size,
	})

	return toDocumentResponse(&document), nil
}

func (s *documentService) GetAll(ctx context.Context, projectId uuid.UUID) ([]*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: projectId})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperror.NotFound("project %s not found", projectId)
	}

	documents, err := uow.DocumentRepository().FindAll(ctx, specification.ByProjectID{ProjectID: projectId})
	if err != nil {
		return nil, err
	}

	result := make([]*dto.DocumentResponse, 0, len(documents))
	for _, document := range documents {
		result = append(result, toDocumentResponse(document))
	}
	return result, nil
}

// Delete removes the document, its chunks and the stored file.
func (s *documentService) Delete(ctx context.Context, projectId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByProjectID{ProjectID: projectId},
	)
	if err != nil {
		return err
	}
	if document == nil {
		return apperror.NotFound("document %s not found", id)
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if s.sidecar != nil {
		if err := s.sidecar.RemoveDocument(projectId.String(), id.String()); err != nil {
			s.logger.Warn("DocumentService", "Failed to prune sidecar", map[string]interface{}{"document_id": id, "error": err.Error()})
		}
	}
	if document.StoragePath != "" {
		if err := os.Remove(document.StoragePath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("DocumentService", "Failed to remove stored file", map[string]interface{}{"document_id": id, "error": err.Error()})
		}
	}
	return nil
}

func toDocumentResponse(document *entity.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:           document.Id,
		ProjectId:    document.ProjectId,
		Name:         document.Name,
		MimeType:     document.MimeType,
		Size:         document.Size,
		PageCount:    document.PageCount,
		Status:       string(document.Status),
		ErrorMessage: document.ErrorMessage,
		CreatedAt:    document.CreatedAt,
		UpdatedAt:    document.UpdatedAt,
	}
}
