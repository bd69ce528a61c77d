package service

import (
	"context"
	"errors"
	"testing"

	"doc-intelligence-be/internal/dto"
	"doc-intelligence-be/pkg/apperror"
	"doc-intelligence-be/pkg/rag/retriever"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRetriever struct {
	results []retriever.Result
	err     error
	topK    int
	min     float64
}

func (s *stubRetriever) RetrieveRelevantChunks(_ context.Context, _ uuid.UUID, _ string, topK int, minSimilarity float64) ([]retriever.Result, error) {
	s.topK, s.min = topK, minSimilarity
	return s.results, s.err
}

func TestSearchService_Search(t *testing.T) {
	_, factory := newTestFactory()
	project := createProject(t, factory)
	stub := &stubRetriever{results: []retriever.Result{
		{DocumentName: "report.pdf", PageNumber: 3, Content: "## Revenue\nRevenue grew 12%.", Similarity: 0.9},
		{DocumentName: "report.pdf", PageNumber: 3, Content: "Costs were flat.", Similarity: 0.5},
	}}
	svc := NewSearchService(factory, stub, 8, 0.3)

	res, err := svc.Search(context.Background(), project.Id, &dto.SearchRequest{Query: "revenue"})
	require.NoError(t, err)

	assert.Equal(t, 8, stub.topK)
	assert.Equal(t, 0.3, stub.min)
	assert.Len(t, res.Results, 2)
	assert.Contains(t, res.Context, "[Source 1: report.pdf, page 3]")
	require.Len(t, res.Citations, 1)
	assert.Equal(t, "Revenue", res.Citations[0].Section)
}

func TestSearchService_Params(t *testing.T) {
	_, factory := newTestFactory()
	project := createProject(t, factory)
	ctx := context.Background()

	three, zero, tooMany := 3, 0.0, 21

	stub := &stubRetriever{}
	svc := NewSearchService(factory, stub, 8, 0.3)

	_, err := svc.Search(ctx, project.Id, &dto.SearchRequest{Query: "q", TopK: &three, MinSimilarity: &zero})
	require.NoError(t, err)
	assert.Equal(t, 3, stub.topK)
	assert.Equal(t, 0.0, stub.min)

	_, err = svc.Search(ctx, project.Id, &dto.SearchRequest{Query: "q", TopK: &tooMany})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Search(ctx, uuid.New(), &dto.SearchRequest{Query: "q"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSearchService_ConfiguredDefaults(t *testing.T) {
	_, factory := newTestFactory()
	project := createProject(t, factory)

	tests := []struct {
		name    string
		topK    int
		min     float64
		wantK   int
		wantMin float64
	}{
		{name: "zero threshold is kept", topK: 5, min: 0.0, wantK: 5, wantMin: 0.0},
		{name: "full threshold is kept", topK: 20, min: 1.0, wantK: 20, wantMin: 1.0},
		{name: "invalid top_k falls back", topK: 0, min: 0.2, wantK: retriever.DefaultTopK, wantMin: 0.2},
		{name: "invalid threshold falls back", topK: 4, min: 1.5, wantK: 4, wantMin: retriever.DefaultMinSimilarity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubRetriever{}
			svc := NewSearchService(factory, stub, tt.topK, tt.min)

			_, err := svc.Search(context.Background(), project.Id, &dto.SearchRequest{Query: "q"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantK, stub.topK)
			assert.Equal(t, tt.wantMin, stub.min)
		})
	}
}

func TestSearchService_ProviderFailureAborts(t *testing.T) {
	_, factory := newTestFactory()
	project := createProject(t, factory)
	providerErr := apperror.Wrap(apperror.KindEmbeddingProvider, errors.New("503"), "query embedding failed")
	svc := NewSearchService(factory, &stubRetriever{err: providerErr}, 8, 0.3)

	res, err := svc.Search(context.Background(), project.Id, &dto.SearchRequest{Query: "q"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, apperror.ErrEmbeddingProvider)
}
