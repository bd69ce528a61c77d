package service

import (
	"context"

	"doc-intelligence-be/internal/dto"
	"doc-intelligence-be/internal/repository/specification"
	"doc-intelligence-be/internal/repository/unitofwork"
	"doc-intelligence-be/pkg/apperror"
	"doc-intelligence-be/pkg/rag/retriever"

	"github.com/google/uuid"
)

// Retriever is satisfied by *retriever.Retriever.
type Retriever interface {
	RetrieveRelevantChunks(ctx context.Context, projectId uuid.UUID, query string, topK int, minSimilarity float64) ([]retriever.Result, error)
}

type ISearchService interface {
	Search(ctx context.Context, projectId uuid.UUID, req *dto.SearchRequest) (*dto.SearchResponse, error)
}

type searchService struct {
	uowFactory    unitofwork.RepositoryFactory
	retriever     Retriever
	topK          int
	minSimilarity float64
}

// NewSearchService takes the defaults applied when a request omits top_k or
// min_similarity. An out-of-range default is replaced by the retriever's own.
func NewSearchService(uowFactory unitofwork.RepositoryFactory, r Retriever, topK int, minSimilarity float64) ISearchService {
	if _, _, err := retriever.NormalizeParams(&topK, nil); err != nil {
		topK = retriever.DefaultTopK
	}
	if _, _, err := retriever.NormalizeParams(nil, &minSimilarity); err != nil {
		minSimilarity = retriever.DefaultMinSimilarity
	}
	return &searchService{
		uowFactory:    uowFactory,
		retriever:     r,
		topK:          topK,
		minSimilarity: minSimilarity,
	}
}

func (s *searchService) Search(ctx context.Context, projectId uuid.UUID, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: projectId})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperror.NotFound("project %s not found", projectId)
	}

	topK, minSimilarity := req.TopK, req.MinSimilarity
	if topK == nil {
		topK = &s.topK
	}
	if minSimilarity == nil {
		minSimilarity = &s.minSimilarity
	}
	k, threshold, err := retriever.NormalizeParams(topK, minSimilarity)
	if err != nil {
		return nil, err
	}

	results, err := s.retriever.RetrieveRelevantChunks(ctx, projectId, req.Query, k, threshold)
	if err != nil {
		return nil, err
	}

	return &dto.SearchResponse{
		Results:   results,
		Context:   retriever.FormatRetrievalContext(results),
		Citations: retriever.ExtractCitations(results),
	}, nil
}
