package handler

import (
	"doc-intelligence-be/internal/pkg/logger"
	"doc-intelligence-be/internal/repository/specification"
	"doc-intelligence-be/internal/repository/unitofwork"
	internalWS "doc-intelligence-be/internal/websocket"
	"doc-intelligence-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ProgressHandler streams embedding progress and pipeline events of one
// project over a websocket.
type ProgressHandler struct {
	uowFactory unitofwork.RepositoryFactory
	hub        *internalWS.Hub
	logger     logger.ILogger
}

func NewProgressHandler(uowFactory unitofwork.RepositoryFactory, hub *internalWS.Hub, log logger.ILogger) *ProgressHandler {
	return &ProgressHandler{
		uowFactory: uowFactory,
		hub:        hub,
		logger:     log,
	}
}

// ServeWs checks the project before upgrading so a bad id gets a normal
// HTTP error instead of a socket that never receives anything.
func (h *ProgressHandler) ServeWs(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperror.Wrap(apperror.KindValidation, err, "invalid id")
	}

	uow := h.uowFactory.NewUnitOfWork(c.UserContext())
	project, err := uow.ProjectRepository().FindOne(c.UserContext(), specification.ByID{ID: projectID})
	if err != nil {
		return err
	}
	if project == nil {
		return apperror.NotFound("project %s not found", projectID)
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("ProgressHandler", "Starting WebSocket session", map[string]interface{}{"project_id": projectID})
		internalWS.ServeWs(h.hub, conn, projectID)
		h.logger.Info("ProgressHandler", "WebSocket session ended", map[string]interface{}{"project_id": projectID})
	})(c)
}

func (h *ProgressHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/projects/v1/:id/embeddings/ws", h.ServeWs)
}
