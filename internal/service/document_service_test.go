package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"doc-intelligence-be/internal/config"
	"doc-intelligence-be/internal/entity"
	"doc-intelligence-be/pkg/apperror"
	"doc-intelligence-be/pkg/events"
	"doc-intelligence-be/pkg/parser"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["file"][0]
}

func TestDocumentService_Upload(t *testing.T) {
	_, factory := newTestFactory()
	project := createProject(t, factory)
	uploadDir := t.TempDir()
	bus := &recordingEvents{}
	svc := NewDocumentService(factory, parser.DefaultRegistry(), bus, nil, config.StorageConfig{UploadDir: uploadDir, MaxUploadSize: 1024}, nopLogger)
	ctx := context.Background()

	res, err := svc.Upload(ctx, project.Id, fileHeader(t, "minutes.md", "application/octet-stream", []byte("# Minutes\nAll good.")))
	require.NoError(t, err)

	assert.Equal(t, "minutes.md", res.Name)
	assert.Equal(t, "text/markdown", res.MimeType)
	assert.Equal(t, int64(19), res.Size)
	assert.Equal(t, string(entity.DocumentStatusUploaded), res.Status)
	assert.Nil(t, res.PageCount)

	stored := findDocument(t, factory, res.Id)
	assert.Equal(t, filepath.Join(uploadDir, project.Id.String()), filepath.Dir(stored.StoragePath))
	content, err := os.ReadFile(stored.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, "# Minutes\nAll good.", string(content))

	assert.Equal(t, []string{events.DocumentUploaded}, bus.types())

	list, err := svc.GetAll(ctx, project.Id)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, res.Id, list[0].Id)
}

func TestDocumentService_UploadRejected(t *testing.T) {
	_, factory := newTestFactory()
	project := createProject(t, factory)
	svc := NewDocumentService(factory, parser.DefaultRegistry(), nil, nil, config.StorageConfig{UploadDir: t.TempDir(), MaxUploadSize: 8}, nopLogger)
	ctx := context.Background()

	tests := []struct {
		name      string
		projectID uuid.UUID
		file      *multipart.FileHeader
		wantErr   error
	}{
		{"unsupported type", project.Id, fileHeader(t, "photo.png", "image/png", []byte("png")), apperror.ErrValidation},
		{"too large", project.Id, fileHeader(t, "big.txt", "text/plain", []byte("more than eight bytes")), apperror.ErrValidation},
		{"unknown project", uuid.New(), fileHeader(t, "a.txt", "text/plain", []byte("a")), apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.projectID, tt.file)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	list, err := svc.GetAll(ctx, project.Id)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDocumentService_Delete(t *testing.T) {
	_, factory := newTestFactory()
	project := createProject(t, factory)
	svc := NewDocumentService(factory, parser.DefaultRegistry(), nil, nil, config.StorageConfig{UploadDir: t.TempDir()}, nopLogger)
	ctx := context.Background()

	res, err := svc.Upload(ctx, project.Id, fileHeader(t, "a.txt", "text/plain", []byte("hello")))
	require.NoError(t, err)
	stored := findDocument(t, factory, res.Id)

	require.NoError(t, factory.NewUnitOfWork(ctx).ChunkRepository().CreateBulk(ctx, []*entity.Chunk{
		{Id: uuid.New(), ProjectId: project.Id, DocumentId: res.Id, ChunkIndex: 0, Content: "hello"},
	}))

	assert.ErrorIs(t, svc.Delete(ctx, uuid.New(), res.Id), apperror.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, project.Id, res.Id))

	assert.Empty(t, documentChunks(t, factory, res.Id))
	_, err = os.Stat(stored.StoragePath)
	assert.True(t, os.IsNotExist(err))
}
