// Package retriever ranks a project's embedded chunks against a query and
// turns the ranking into generator context and citations.
package retriever

import (
	"context"
	"sort"
	"strings"

	"doc-intelligence-be/internal/entity"
	"doc-intelligence-be/internal/pkg/logger"
	"doc-intelligence-be/internal/repository/specification"
	"doc-intelligence-be/internal/repository/unitofwork"
	"doc-intelligence-be/pkg/apperror"
	"doc-intelligence-be/pkg/embedding"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTopK          = 8
	MaxTopK              = 20
	DefaultMinSimilarity = 0.3
)

type Backend string

const (
	// BackendScan loads every embedded chunk and ranks in process.
	BackendScan Backend = "scan"
	// BackendPGVector ranks inside postgres with the pgvector <=> operator.
	BackendPGVector Backend = "pgvector"
)

// QueryEmbedder is satisfied by *embedding.Service.
type QueryEmbedder interface {
	GenerateQueryEmbedding(ctx context.Context, text string) ([]float32, error)
}

type Result struct {
	ChunkId      uuid.UUID `json:"chunk_id"`
	DocumentId   uuid.UUID `json:"document_id"`
	DocumentName string    `json:"document_name"`
	ChunkIndex   int       `json:"chunk_index"`
	PageNumber   int       `json:"page_number"`
	Content      string    `json:"content"`
	Similarity   float64   `json:"similarity"`
}

type Retriever struct {
	embedder QueryEmbedder
	factory  unitofwork.RepositoryFactory
	backend  Backend
	logger   logger.ILogger
	tracer   trace.Tracer
}

type Option func(*Retriever)

func WithBackend(b Backend) Option {
	return func(r *Retriever) {
		if b != "" {
			r.backend = b
		}
	}
}

func WithLogger(l logger.ILogger) Option {
	return func(r *Retriever) { r.logger = l }
}

func New(embedder QueryEmbedder, factory unitofwork.RepositoryFactory, opts ...Option) *Retriever {
	r := &Retriever{
		embedder: embedder,
		factory:  factory,
		backend:  BackendScan,
		tracer:   otel.Tracer("doc-intelligence-be/retriever"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.NewNopLogger()
	}
	return r
}

// NormalizeParams applies defaults to zero values and rejects anything
// outside topK in [1, MaxTopK] and minSimilarity in [0, 1].
func NormalizeParams(topK *int, minSimilarity *float64) (int, float64, error) {
	k := DefaultTopK
	if topK != nil {
		k = *topK
	}
	threshold := DefaultMinSimilarity
	if minSimilarity != nil {
		threshold = *minSimilarity
	}
	if k < 1 || k > MaxTopK {
		return 0, 0, apperror.Validation("top_k must be between 1 and %d, got %d", MaxTopK, k)
	}
	if threshold < 0 || threshold > 1 {
		return 0, 0, apperror.Validation("min_similarity must be between 0 and 1, got %g", threshold)
	}
	return k, threshold, nil
}

// RetrieveRelevantChunks returns at most topK chunks of the project whose
// similarity to query is at least minSimilarity, best first. Equal scores
// keep document order. A project with nothing embedded yields no results.
func (r *Retriever) RetrieveRelevantChunks(ctx context.Context, projectId uuid.UUID, query string, topK int, minSimilarity float64) ([]Result, error) {
	ctx, span := r.tracer.Start(ctx, "retriever.RetrieveRelevantChunks", trace.WithAttributes(
		attribute.String("project.id", projectId.String()),
		attribute.Int("retrieval.top_k", topK),
		attribute.Float64("retrieval.min_similarity", minSimilarity),
		attribute.String("retrieval.backend", string(r.backend)),
	))
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, apperror.Validation("query must not be empty")
	}
	if _, _, err := NormalizeParams(&topK, &minSimilarity); err != nil {
		return nil, err
	}

	queryVector, err := r.embedder.GenerateQueryEmbedding(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query embedding failed")
		return nil, err
	}

	uow := r.factory.NewUnitOfWork(ctx)

	var results []Result
	switch r.backend {
	case BackendPGVector:
		results, err = r.searchIndexed(ctx, uow, projectId, queryVector, topK, minSimilarity)
	default:
		results, err = r.scan(ctx, uow, projectId, queryVector, topK, minSimilarity)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		return nil, err
	}

	if err := r.attachDocumentNames(ctx, uow, results); err != nil {
		r.logger.Warn("RETRIEVER", "Failed to resolve document names", map[string]interface{}{
			"project_id": projectId.String(),
			"error":      err.Error(),
		})
	}

	span.SetAttributes(attribute.Int("retrieval.results", len(results)))
	return results, nil
}

func (r *Retriever) scan(ctx context.Context, uow unitofwork.UnitOfWork, projectId uuid.UUID, queryVector []float32, topK int, minSimilarity float64) ([]Result, error) {
	chunks, err := uow.ChunkRepository().FindEmbedded(ctx, projectId)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(chunks))
	skipped := 0
	for _, c := range chunks {
		score, err := embedding.CosineSimilarity(queryVector, c.Embedding)
		if err != nil {
			skipped++
			continue
		}
		if score < minSimilarity {
			continue
		}
		results = append(results, newResult(c, score))
	}
	if skipped > 0 {
		r.logger.Warn("RETRIEVER", "Skipped chunks with incompatible embeddings", map[string]interface{}{
			"project_id": projectId.String(),
			"skipped":    skipped,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (r *Retriever) searchIndexed(ctx context.Context, uow unitofwork.UnitOfWork, projectId uuid.UUID, queryVector []float32, topK int, minSimilarity float64) ([]Result, error) {
	scored, err := uow.ChunkRepository().SearchSimilarWithScore(ctx, projectId, queryVector, topK, minSimilarity)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(scored))
	for _, s := range scored {
		// pgvector computes in double precision; keep the same bounds as the scan.
		if s.Similarity < minSimilarity {
			continue
		}
		results = append(results, newResult(s.Chunk, clamp(s.Similarity)))
	}
	return results, nil
}

func (r *Retriever) attachDocumentNames(ctx context.Context, uow unitofwork.UnitOfWork, results []Result) error {
	if len(results) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, res := range results {
		if !seen[res.DocumentId] {
			seen[res.DocumentId] = true
			ids = append(ids, res.DocumentId)
		}
	}

	docs, err := uow.DocumentRepository().FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return err
	}
	names := make(map[uuid.UUID]string, len(docs))
	for _, d := range docs {
		names[d.Id] = d.Name
	}
	for i := range results {
		if name, ok := names[results[i].DocumentId]; ok {
			results[i].DocumentName = name
		}
	}
	return nil
}

func newResult(c *entity.Chunk, score float64) Result {
	return Result{
		ChunkId:    c.Id,
		DocumentId: c.DocumentId,
		ChunkIndex: c.ChunkIndex,
		PageNumber: c.PageNumber,
		Content:    c.Content,
		Similarity: score,
	}
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
