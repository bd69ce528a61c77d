package controller

import (
	"doc-intelligence-be/internal/pkg/serverutils"
	"doc-intelligence-be/internal/service"
	"doc-intelligence-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type documentController struct {
	service service.IDocumentService
}

func NewDocumentController(service service.IDocumentService) IDocumentController {
	return &documentController{service: service}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group(projectRoutes)
	h.Get(":id/documents", c.GetAll)
	h.Post(":id/documents", c.Upload)
	h.Delete(":id/documents/:documentId", c.Delete)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	projectId, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		return apperror.Wrap(apperror.KindValidation, err, "document file is required")
	}

	res, err := c.service.Upload(ctx.UserContext(), projectId, file)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload document", res))
}

func (c *documentController) GetAll(ctx *fiber.Ctx) error {
	projectId, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.GetAll(ctx.UserContext(), projectId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all document", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	projectId, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	documentId, err := uuidParam(ctx, "documentId")
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.UserContext(), projectId, documentId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete document", nil))
}
