package service

import (
	"context"
	"fmt"
	"time"

	"doc-intelligence-be/internal/config"
	"doc-intelligence-be/internal/dto"
	"doc-intelligence-be/internal/entity"
	"doc-intelligence-be/internal/pkg/logger"
	"doc-intelligence-be/internal/repository/specification"
	"doc-intelligence-be/internal/repository/unitofwork"
	"doc-intelligence-be/pkg/apperror"
	"doc-intelligence-be/pkg/chunker"
	"doc-intelligence-be/pkg/embedding"
	"doc-intelligence-be/pkg/events"
	"doc-intelligence-be/pkg/parser"

	"github.com/google/uuid"
)

type IIngestionService interface {
	Ingest(ctx context.Context, projectId uuid.UUID) (*dto.IngestResponse, error)
}

type ingestionService struct {
	uowFactory   unitofwork.RepositoryFactory
	parsers      *parser.Registry
	events       events.Publisher
	sidecar      *embedding.SidecarWriter
	chunking     config.ChunkingConfig
	parseTimeout time.Duration
	logger       logger.ILogger
}

func NewIngestionService(
	uowFactory unitofwork.RepositoryFactory,
	parsers *parser.Registry,
	eventPublisher events.Publisher,
	sidecar *embedding.SidecarWriter,
	chunking config.ChunkingConfig,
	parseTimeout time.Duration,
	log logger.ILogger,
) IIngestionService {
	if eventPublisher == nil {
		eventPublisher = events.NopPublisher{}
	}
	return &ingestionService{
		uowFactory:   uowFactory,
		parsers:      parsers,
		events:       eventPublisher,
		sidecar:      sidecar,
		chunking:     chunking,
		parseTimeout: parseTimeout,
		logger:       log,
	}
}

// Ingest parses and chunks every document of the project that is not yet
// processed. A failing document is marked error and the rest carry on.
func (s *ingestionService) Ingest(ctx context.Context, projectId uuid.UUID) (*dto.IngestResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: projectId})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperror.NotFound("project %s not found", projectId)
	}

	pending, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByProjectID{ProjectID: projectId},
		specification.ByDocumentStatus{Statuses: []entity.DocumentStatus{entity.DocumentStatusUploaded, entity.DocumentStatusError}},
	)
	if err != nil {
		return nil, err
	}

	res := &dto.IngestResponse{
		ProjectId: projectId,
		Status:    string(project.Status),
		Documents: make([]dto.IngestDocumentResult, 0, len(pending)),
	}
	if len(pending) == 0 {
		return res, nil
	}

	if err := uow.ProjectRepository().UpdateStatus(ctx, projectId, entity.ProjectStatusProcessing); err != nil {
		return nil, err
	}

	succeeded := 0
	for _, doc := range pending {
		result := s.ingestDocument(ctx, doc)
		if result.Status == string(entity.DocumentStatusProcessed) {
			succeeded++
		}
		res.Documents = append(res.Documents, result)
	}

	// Documents processed by earlier runs still make the project usable.
	processed, err := uow.DocumentRepository().Count(ctx,
		specification.ByProjectID{ProjectID: projectId},
		specification.ByDocumentStatus{Statuses: []entity.DocumentStatus{entity.DocumentStatusProcessed}},
	)
	if err != nil {
		return nil, err
	}

	status := entity.ProjectStatusProcessed
	eventType := events.ProjectProcessed
	if processed == 0 {
		status = entity.ProjectStatusError
		eventType = events.ProjectFailed
	}

	statusCtx := context.WithoutCancel(ctx)
	if err := s.uowFactory.NewUnitOfWork(statusCtx).ProjectRepository().UpdateStatus(statusCtx, projectId, status); err != nil {
		return nil, err
	}
	res.Status = string(status)

	s.publish(statusCtx, eventType, map[string]interface{}{
		"project_id": projectId.String(),
		"documents":  len(pending),
		"succeeded":  succeeded,
		"failed":     len(pending) - succeeded,
	})

	s.logger.Info("IngestionService", "Ingestion finished", map[string]interface{}{
		"project_id": projectId,
		"status":     status,
		"documents":  len(pending),
		"succeeded":  succeeded,
	})

	return res, nil
}

func (s *ingestionService) ingestDocument(ctx context.Context, doc *entity.Document) dto.IngestDocumentResult {
	result := dto.IngestDocumentResult{
		DocumentId: doc.Id,
		Name:       doc.Name,
	}

	chunks, pages, err := s.processDocument(ctx, doc)
	if err != nil {
		s.logger.Warn("IngestionService", fmt.Sprintf("Failed to ingest document %s", doc.Name), map[string]interface{}{
			"document_id": doc.Id,
			"error":       err.Error(),
		})

		failCtx := context.WithoutCancel(ctx)
		uow := s.uowFactory.NewUnitOfWork(failCtx)
		if uerr := uow.DocumentRepository().UpdateStatus(failCtx, doc.Id, entity.DocumentStatusError, err.Error()); uerr != nil {
			s.logger.Error("IngestionService", "Failed to mark document as error", map[string]interface{}{"document_id": doc.Id, "error": uerr.Error()})
		}
		s.publish(failCtx, events.DocumentFailed, map[string]interface{}{
			"project_id":  doc.ProjectId.String(),
			"document_id": doc.Id.String(),
			"error":       err.Error(),
		})

		result.Status = string(entity.DocumentStatusError)
		result.Error = err.Error()
		return result
	}

	s.publish(ctx, events.DocumentProcessed, map[string]interface{}{
		"project_id":  doc.ProjectId.String(),
		"document_id": doc.Id.String(),
		"chunks":      chunks,
		"pages":       pages,
	})

	result.Status = string(entity.DocumentStatusProcessed)
	result.Chunks = chunks
	result.Pages = pages
	return result
}

// processDocument replaces the document's chunks in one transaction, so a
// rerun never duplicates chunks.
func (s *ingestionService) processDocument(ctx context.Context, doc *entity.Document) (int, int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().UpdateStatus(ctx, doc.Id, entity.DocumentStatusProcessing, ""); err != nil {
		return 0, 0, err
	}

	parseCtx := ctx
	if s.parseTimeout > 0 {
		var cancel context.CancelFunc
		parseCtx, cancel = context.WithTimeout(ctx, s.parseTimeout)
		defer cancel()
	}

	parsed, err := s.parsers.ParseFile(parseCtx, doc.StoragePath, doc.MimeType)
	if err != nil {
		return 0, 0, err
	}

	segments, err := chunker.ChunkText(parsed.Text, s.chunking.ChunkSize, s.chunking.Overlap)
	if err != nil {
		return 0, 0, err
	}

	now := time.Now()
	chunks := make([]*entity.Chunk, 0, len(segments))
	for i, seg := range segments {
		chunks = append(chunks, &entity.Chunk{
			Id:          uuid.New(),
			ProjectId:   doc.ProjectId,
			DocumentId:  doc.Id,
			ChunkIndex:  i,
			PageNumber:  chunker.ExtractPageFromChunk(seg.Text, seg.Start, parsed.Text),
			Content:     seg.Text,
			StartOffset: seg.Start,
			EndOffset:   seg.End,
			Metadata: entity.ChunkMetadata{
				SchemaVersion: entity.ChunkMetadataSchemaVersion,
				Start:         seg.Start,
				End:           seg.End,
				ChunkSize:     s.chunking.ChunkSize,
				Overlap:       s.chunking.Overlap,
				Parser:        parsed.Parser,
				PageCount:     parsed.Pages,
			},
			CreatedAt: now,
		})
	}

	if err := uow.Begin(ctx); err != nil {
		return 0, 0, err
	}
	defer uow.Rollback()

	if err := uow.ChunkRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		return 0, 0, err
	}
	if len(chunks) > 0 {
		if err := uow.ChunkRepository().CreateBulk(ctx, chunks); err != nil {
			return 0, 0, err
		}
	}

	pages := parsed.Pages
	doc.PageCount = &pages
	doc.Status = entity.DocumentStatusProcessed
	doc.ErrorMessage = ""
	doc.UpdatedAt = &now
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return 0, 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, 0, err
	}
	s.pruneSidecar(doc)

	return len(chunks), pages, nil
}

// pruneSidecar drops mirrored vectors of chunks that were just replaced.
func (s *ingestionService) pruneSidecar(doc *entity.Document) {
	if s.sidecar == nil {
		return
	}
	if err := s.sidecar.RemoveDocument(doc.ProjectId.String(), doc.Id.String()); err != nil {
		s.logger.Warn("IngestionService", "Failed to prune sidecar", map[string]interface{}{"document_id": doc.Id, "error": err.Error()})
	}
}

func (s *ingestionService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if err := s.events.Publish(ctx, events.New(eventType, data)); err != nil {
		s.logger.Warn("IngestionService", "Failed to publish event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}
