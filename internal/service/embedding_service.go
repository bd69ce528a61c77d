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
	"doc-intelligence-be/pkg/embedding"
	"doc-intelligence-be/pkg/events"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

// Websocket message types pushed while a project is being embedded.
const (
	MessageEmbeddingProgress  = "EMBEDDING_PROGRESS"
	MessageEmbeddingCompleted = "EMBEDDING_COMPLETED"
)

// Embedder is satisfied by *embedding.Service.
type Embedder interface {
	Initialize(ctx context.Context) error
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ProgressNotifier pushes a frame to everyone watching a project.
// Implemented by the websocket hub.
type ProgressNotifier interface {
	SendToProject(projectID uuid.UUID, messageType string, data interface{})
}

type IEmbeddingService interface {
	GenerateEmbeddings(ctx context.Context, projectId uuid.UUID) (*dto.GenerateEmbeddingsResponse, error)
	Enqueue(ctx context.Context, projectId uuid.UUID) (*dto.GenerateEmbeddingsResponse, error)
	Progress(ctx context.Context, projectId uuid.UUID) (*dto.EmbeddingProgressResponse, error)
}

type embeddingService struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   Embedder
	publisher  IPublisherService
	events     events.Publisher
	notifier   ProgressNotifier
	sidecar    *embedding.SidecarWriter
	batch      config.BatchConfig
	logger     logger.ILogger
}

func NewEmbeddingService(
	uowFactory unitofwork.RepositoryFactory,
	embedder Embedder,
	publisher IPublisherService,
	eventPublisher events.Publisher,
	notifier ProgressNotifier,
	sidecar *embedding.SidecarWriter,
	batch config.BatchConfig,
	log logger.ILogger,
) IEmbeddingService {
	if batch.Size <= 0 {
		batch.Size = 5
	}
	if eventPublisher == nil {
		eventPublisher = events.NopPublisher{}
	}
	return &embeddingService{
		uowFactory: uowFactory,
		embedder:   embedder,
		publisher:  publisher,
		events:     eventPublisher,
		notifier:   notifier,
		sidecar:    sidecar,
		batch:      batch,
		logger:     log,
	}
}

// GenerateEmbeddings embeds every chunk of the project that has no vector
// yet. Failed chunks are counted and skipped. The project ends up embedded
// unless every attempted chunk failed.
func (s *embeddingService) GenerateEmbeddings(ctx context.Context, projectId uuid.UUID) (*dto.GenerateEmbeddingsResponse, error) {
	ctx, span := otel.Tracer("doc-intelligence-be/embedding").Start(ctx, "EmbeddingService.GenerateEmbeddings")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectId.String()))

	uow := s.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: projectId})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperror.NotFound("project %s not found", projectId)
	}

	if err := s.embedder.Initialize(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedder initialization failed")
		return nil, err
	}

	chunks, err := uow.ChunkRepository().FindMissingEmbeddings(ctx, projectId)
	if err != nil {
		return nil, err
	}

	res := &dto.GenerateEmbeddingsResponse{
		ProjectId:   projectId,
		Status:      string(project.Status),
		TotalChunks: len(chunks),
	}
	span.SetAttributes(attribute.Int("embedding.total_chunks", len(chunks)))

	if len(chunks) == 0 {
		s.logger.Info("EmbeddingService", "No chunks missing embeddings", map[string]interface{}{"project_id": projectId})
		return res, nil
	}

	if err := uow.ProjectRepository().UpdateStatus(ctx, projectId, entity.ProjectStatusEmbedding); err != nil {
		return nil, err
	}

	limit := rate.Inf
	if s.batch.Delay > 0 {
		limit = rate.Every(s.batch.Delay)
	}
	limiter := rate.NewLimiter(limit, 1)

	batches := (len(chunks) + s.batch.Size - 1) / s.batch.Size
	for b := 0; b < batches; b++ {
		start := b * s.batch.Size
		end := start + s.batch.Size
		if end > len(chunks) {
			end = len(chunks)
		}

		var mirrored []embedding.SidecarEntry
		for _, chunk := range chunks[start:end] {
			if err := limiter.Wait(ctx); err != nil {
				// The caller went away; stop here and settle the status below.
				s.logger.Warn("EmbeddingService", "Embedding run interrupted", map[string]interface{}{"project_id": projectId, "error": err.Error()})
				return s.finish(ctx, projectId, res, batches, err)
			}

			vector, err := s.embedder.GenerateEmbedding(ctx, chunk.Content)
			if err == nil {
				err = uow.ChunkRepository().UpdateEmbedding(ctx, chunk.Id, vector)
			}
			if err != nil {
				res.FailedChunks++
				s.logger.Warn("EmbeddingService", fmt.Sprintf("Failed to embed chunk %d", chunk.ChunkIndex), map[string]interface{}{
					"project_id":  projectId,
					"document_id": chunk.DocumentId,
					"chunk_id":    chunk.Id,
					"error":       err.Error(),
				})
				continue
			}

			res.ProcessedChunks++
			if s.sidecar != nil {
				mirrored = append(mirrored, sidecarEntry(chunk, vector))
			}
		}

		if len(mirrored) > 0 {
			if err := s.sidecar.Upsert(projectId.String(), mirrored); err != nil {
				s.logger.Warn("EmbeddingService", "Failed to update sidecar", map[string]interface{}{"project_id": projectId, "error": err.Error()})
			}
		}

		s.notify(projectId, MessageEmbeddingProgress, dto.EmbeddingBatchProgress{
			Batch:           b + 1,
			Batches:         batches,
			TotalChunks:     res.TotalChunks,
			ProcessedChunks: res.ProcessedChunks,
			FailedChunks:    res.FailedChunks,
			Progress:        float64(res.ProcessedChunks+res.FailedChunks) / float64(res.TotalChunks),
		})
	}

	return s.finish(ctx, projectId, res, batches, nil)
}

// finish records the final project status. It runs on a context detached
// from the request so an aborted run never leaves the project "embedding".
func (s *embeddingService) finish(ctx context.Context, projectId uuid.UUID, res *dto.GenerateEmbeddingsResponse, batches int, runErr error) (*dto.GenerateEmbeddingsResponse, error) {
	ctx = context.WithoutCancel(ctx)

	status := entity.ProjectStatusEmbedded
	eventType := events.ProjectEmbedded
	if res.ProcessedChunks == 0 && (res.FailedChunks > 0 || runErr != nil) {
		status = entity.ProjectStatusError
		eventType = events.ProjectFailed
	}
	res.Status = string(status)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ProjectRepository().UpdateStatus(ctx, projectId, status); err != nil {
		s.logger.Error("EmbeddingService", "Failed to update project status", map[string]interface{}{"project_id": projectId, "error": err.Error()})
		return nil, err
	}

	s.notify(projectId, MessageEmbeddingCompleted, dto.EmbeddingBatchProgress{
		Batch:           batches,
		Batches:         batches,
		TotalChunks:     res.TotalChunks,
		ProcessedChunks: res.ProcessedChunks,
		FailedChunks:    res.FailedChunks,
		Progress:        float64(res.ProcessedChunks+res.FailedChunks) / float64(res.TotalChunks),
		Done:            true,
		Status:          res.Status,
	})

	if err := s.events.Publish(ctx, events.New(eventType, map[string]interface{}{
		"project_id":       projectId.String(),
		"total_chunks":     res.TotalChunks,
		"processed_chunks": res.ProcessedChunks,
		"failed_chunks":    res.FailedChunks,
	})); err != nil {
		s.logger.Warn("EmbeddingService", "Failed to publish event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}

	s.logger.Info("EmbeddingService", "Embedding run finished", map[string]interface{}{
		"project_id":       projectId,
		"status":           res.Status,
		"total_chunks":     res.TotalChunks,
		"processed_chunks": res.ProcessedChunks,
		"failed_chunks":    res.FailedChunks,
	})

	if runErr != nil {
		return res, apperror.FromContext(runErr, apperror.KindInternal, "embedding run interrupted")
	}
	return res, nil
}

// Enqueue hands the run to the background consumer.
func (s *embeddingService) Enqueue(ctx context.Context, projectId uuid.UUID) (*dto.GenerateEmbeddingsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: projectId})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperror.NotFound("project %s not found", projectId)
	}

	missing, err := uow.ChunkRepository().Count(ctx, specification.ByProjectID{ProjectID: projectId}, specification.EmbeddingMissing{})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.SendMessage(ctx, dto.PublishEmbedProjectMessage{ProjectId: projectId}); err != nil {
		return nil, err
	}

	return &dto.GenerateEmbeddingsResponse{
		ProjectId:   projectId,
		Status:      string(project.Status),
		TotalChunks: int(missing),
		Queued:      true,
	}, nil
}

func (s *embeddingService) Progress(ctx context.Context, projectId uuid.UUID) (*dto.EmbeddingProgressResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: projectId})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperror.NotFound("project %s not found", projectId)
	}

	embedded, total, err := countEmbedding(ctx, uow, projectId)
	if err != nil {
		return nil, err
	}

	return &dto.EmbeddingProgressResponse{
		ProjectId: projectId,
		Status:    string(project.Status),
		Embedded:  embedded,
		Total:     total,
		Progress:  embeddingProgress(embedded, total),
	}, nil
}

func (s *embeddingService) notify(projectId uuid.UUID, messageType string, data interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.SendToProject(projectId, messageType, data)
}

func countEmbedding(ctx context.Context, uow unitofwork.UnitOfWork, projectId uuid.UUID) (embedded int64, total int64, err error) {
	byProject := specification.ByProjectID{ProjectID: projectId}

	total, err = uow.ChunkRepository().Count(ctx, byProject)
	if err != nil {
		return 0, 0, err
	}
	embedded, err = uow.ChunkRepository().Count(ctx, byProject, specification.EmbeddingPresent{})
	if err != nil {
		return 0, 0, err
	}
	return embedded, total, nil
}

func embeddingProgress(embedded, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(embedded) / float64(total)
}

func sidecarEntry(chunk *entity.Chunk, vector []float32) embedding.SidecarEntry {
	return embedding.SidecarEntry{
		ChunkID:   chunk.Id.String(),
		Embedding: vector,
		Metadata: embedding.SidecarMetadata{
			DocumentID: chunk.DocumentId.String(),
			ChunkIndex: chunk.ChunkIndex,
			PageNumber: chunk.PageNumber,
			Start:      chunk.StartOffset,
			End:        chunk.EndOffset,
		},
		CreatedAt: time.Now(),
	}
}
