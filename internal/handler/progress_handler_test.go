package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"doc-intelligence-be/internal/entity"
	"doc-intelligence-be/internal/pkg/logger"
	"doc-intelligence-be/internal/pkg/serverutils"
	"doc-intelligence-be/internal/repository/memory"
	internalWS "doc-intelligence-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressHandler_ServeWs(t *testing.T) {
	factory := memory.NewRepositoryFactory(memory.NewStore())
	ctx := context.Background()
	project := &entity.Project{Name: "p"}
	require.NoError(t, factory.NewUnitOfWork(ctx).ProjectRepository().Create(ctx, project))

	log := logger.NewNopLogger()
	h := NewProgressHandler(factory, internalWS.NewHub(nil, "test", log), log)

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler})
	h.RegisterRoutes(app.Group("/api"))

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"malformed id", "/api/projects/v1/nope/embeddings/ws", http.StatusBadRequest},
		{"unknown project", "/api/projects/v1/7d9f1c52-2a3b-4c1d-9e8f-0a1b2c3d4e5f/embeddings/ws", http.StatusNotFound},
		{"plain http request", "/api/projects/v1/" + project.Id.String() + "/embeddings/ws", http.StatusUpgradeRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
