package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"doc-intelligence-be/internal/entity"
	"doc-intelligence-be/internal/pkg/logger"
	"doc-intelligence-be/internal/repository/memory"
	"doc-intelligence-be/internal/repository/unitofwork"
	"doc-intelligence-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var nopLogger = logger.NewNopLogger()

// fakeEmbedder returns a fixed unit vector per text and fails for the texts
// listed in fail.
type fakeEmbedder struct {
	mu      sync.Mutex
	fail    map[string]bool
	initErr error
	calls   int
}

func (f *fakeEmbedder) Initialize(context.Context) error {
	return f.initErr
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail[text] {
		return nil, errors.New("provider rejected input")
	}
	return []float32{1, 0, 0, 0}, nil
}

func (f *fakeEmbedder) GenerateQueryEmbedding(ctx context.Context, text string) ([]float32, error) {
	return f.GenerateEmbedding(ctx, text)
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type frame struct {
	projectID   uuid.UUID
	messageType string
	data        interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	frames []frame
}

func (n *recordingNotifier) SendToProject(projectID uuid.UUID, messageType string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.frames = append(n.frames, frame{projectID: projectID, messageType: messageType, data: data})
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.frames))
	for _, f := range n.frames {
		out = append(out, f.messageType)
	}
	return out
}

type recordingEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingEvents) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType())
	}
	return out
}

func newTestFactory() (*memory.Store, unitofwork.RepositoryFactory) {
	store := memory.NewStore()
	return store, memory.NewRepositoryFactory(store)
}

func createProject(t *testing.T, factory unitofwork.RepositoryFactory) *entity.Project {
	t.Helper()
	ctx := context.Background()
	project := &entity.Project{Name: "Quarterly reports", Status: entity.ProjectStatusCreated}
	require.NoError(t, factory.NewUnitOfWork(ctx).ProjectRepository().Create(ctx, project))
	return project
}

func createDocument(t *testing.T, factory unitofwork.RepositoryFactory, projectID uuid.UUID, name, path string) *entity.Document {
	t.Helper()
	ctx := context.Background()
	doc := &entity.Document{
		ProjectId:   projectID,
		Name:        name,
		MimeType:    "text/plain",
		StoragePath: path,
		Status:      entity.DocumentStatusUploaded,
	}
	require.NoError(t, factory.NewUnitOfWork(ctx).DocumentRepository().Create(ctx, doc))
	return doc
}

// seedChunks creates one document with n chunks whose contents are
// "chunk-0" .. "chunk-<n-1>".
func seedChunks(t *testing.T, factory unitofwork.RepositoryFactory, projectID uuid.UUID, n int) []*entity.Chunk {
	t.Helper()
	ctx := context.Background()
	doc := createDocument(t, factory, projectID, "report.txt", "")

	chunks := make([]*entity.Chunk, 0, n)
	for i := 0; i < n; i++ {
		chunks = append(chunks, &entity.Chunk{
			Id:         uuid.New(),
			ProjectId:  projectID,
			DocumentId: doc.Id,
			ChunkIndex: i,
			PageNumber: 1,
			Content:    fmt.Sprintf("chunk-%d", i),
		})
	}
	require.NoError(t, factory.NewUnitOfWork(ctx).ChunkRepository().CreateBulk(ctx, chunks))
	return chunks
}
