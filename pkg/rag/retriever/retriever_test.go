package retriever

import (
	"context"
	"errors"
	"math"
	"testing"

	"doc-intelligence-be/internal/entity"
	"doc-intelligence-be/internal/repository/memory"
	"doc-intelligence-be/internal/repository/unitofwork"
	"doc-intelligence-be/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (s *stubEmbedder) GenerateQueryEmbedding(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	return s.vector, s.err
}

// unit returns the 2-d unit vector whose cosine with (1, 0) is cos.
func unit(cos float64) []float32 {
	return []float32{float32(cos), float32(math.Sqrt(1 - cos*cos))}
}

type fixture struct {
	factory unitofwork.RepositoryFactory
	project *entity.Project
	doc     *entity.Document
}

func newFixture(t *testing.T, docName string, vectors ...[]float32) fixture {
	t.Helper()
	ctx := context.Background()
	factory := memory.NewRepositoryFactory(memory.NewStore())
	uow := factory.NewUnitOfWork(ctx)

	project := &entity.Project{Name: "p"}
	require.NoError(t, uow.ProjectRepository().Create(ctx, project))
	doc := &entity.Document{ProjectId: project.Id, Name: docName, MimeType: "text/plain"}
	require.NoError(t, uow.DocumentRepository().Create(ctx, doc))

	chunks := make([]*entity.Chunk, len(vectors))
	for i := range vectors {
		chunks[i] = &entity.Chunk{
			ProjectId:  project.Id,
			DocumentId: doc.Id,
			ChunkIndex: i,
			PageNumber: i + 1,
			Content:    "chunk",
		}
	}
	require.NoError(t, uow.ChunkRepository().CreateBulk(ctx, chunks))
	for i, v := range vectors {
		if v != nil {
			require.NoError(t, uow.ChunkRepository().UpdateEmbedding(ctx, chunks[i].Id, v))
		}
	}
	return fixture{factory: factory, project: project, doc: doc}
}

func TestRetrieve_OnlyAboveThreshold(t *testing.T) {
	// Ten embedded chunks, two of which clear 0.3.
	vectors := [][]float32{
		unit(0.1), unit(0.5), unit(-0.4), unit(0.2), unit(0.9),
		unit(0.0), unit(0.29), unit(-1), unit(0.05), unit(0.15),
	}
	fx := newFixture(t, "report.txt", vectors...)
	r := New(&stubEmbedder{vector: []float32{1, 0}}, fx.factory)

	results, err := r.RetrieveRelevantChunks(context.Background(), fx.project.Id, "q", 3, 0.3)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, 4, results[0].ChunkIndex)
	assert.Equal(t, 1, results[1].ChunkIndex)
	assert.InDelta(t, 0.9, results[0].Similarity, 1e-6)
	assert.InDelta(t, 0.5, results[1].Similarity, 1e-6)
	assert.Equal(t, "report.txt", results[0].DocumentName)
}

func TestRetrieve_RankingAndLimit(t *testing.T) {
	vectors := [][]float32{unit(0.6), unit(0.8), unit(0.6), unit(0.95), unit(0.7)}
	fx := newFixture(t, "a.txt", vectors...)
	r := New(&stubEmbedder{vector: []float32{1, 0}}, fx.factory)

	results, err := r.RetrieveRelevantChunks(context.Background(), fx.project.Id, "q", 4, 0)
	require.NoError(t, err)

	require.Len(t, results, 4)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
	// Equal scores keep chunk order.
	assert.Equal(t, []int{3, 1, 4, 0}, []int{results[0].ChunkIndex, results[1].ChunkIndex, results[2].ChunkIndex, results[3].ChunkIndex})
}

func TestRetrieve_NoEmbeddedChunks(t *testing.T) {
	fx := newFixture(t, "a.txt", nil, nil)
	r := New(&stubEmbedder{vector: []float32{1, 0}}, fx.factory)

	results, err := r.RetrieveRelevantChunks(context.Background(), fx.project.Id, "anything", 8, 0.3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieve_EmbedderFailureAborts(t *testing.T) {
	fx := newFixture(t, "a.txt", unit(1))
	providerErr := apperror.Wrap(apperror.KindEmbeddingProvider, errors.New("503"), "provider failed")
	r := New(&stubEmbedder{err: providerErr}, fx.factory)

	results, err := r.RetrieveRelevantChunks(context.Background(), fx.project.Id, "q", 8, 0.3)
	assert.Nil(t, results)
	assert.ErrorIs(t, err, apperror.ErrEmbeddingProvider)
}

func TestRetrieve_SkipsMismatchedDimensions(t *testing.T) {
	fx := newFixture(t, "a.txt", unit(0.9), []float32{1, 0, 0})
	r := New(&stubEmbedder{vector: []float32{1, 0}}, fx.factory)

	results, err := r.RetrieveRelevantChunks(context.Background(), fx.project.Id, "q", 8, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].ChunkIndex)
}

func TestRetrieve_InvalidParams(t *testing.T) {
	fx := newFixture(t, "a.txt")
	embedder := &stubEmbedder{vector: []float32{1, 0}}
	r := New(embedder, fx.factory)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		topK  int
		min   float64
	}{
		{"empty query", "  ", 8, 0.3},
		{"topK zero", "q", 0, 0.3},
		{"topK too large", "q", 21, 0.3},
		{"negative threshold", "q", 8, -0.1},
		{"threshold above one", "q", 8, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.RetrieveRelevantChunks(ctx, fx.project.Id, tt.query, tt.topK, tt.min)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
	assert.Zero(t, embedder.calls)
}

func TestRetrieve_PGVectorBackendUsesRepositorySearch(t *testing.T) {
	fx := newFixture(t, "a.txt", unit(0.2), unit(0.7), unit(0.9))
	r := New(&stubEmbedder{vector: []float32{1, 0}}, fx.factory, WithBackend(BackendPGVector))

	results, err := r.RetrieveRelevantChunks(context.Background(), fx.project.Id, "q", 5, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, results[0].ChunkIndex)
	assert.Equal(t, 1, results[1].ChunkIndex)
}

func TestNormalizeParams(t *testing.T) {
	k, threshold, err := NormalizeParams(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, k)
	assert.Equal(t, DefaultMinSimilarity, threshold)

	twenty := 20
	zero := 0.0
	k, threshold, err = NormalizeParams(&twenty, &zero)
	require.NoError(t, err)
	assert.Equal(t, 20, k)
	assert.Zero(t, threshold)

}
