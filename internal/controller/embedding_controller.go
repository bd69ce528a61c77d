package controller

import (
	"doc-intelligence-be/internal/dto"
	"doc-intelligence-be/internal/pkg/serverutils"
	"doc-intelligence-be/internal/service"
	"doc-intelligence-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

type IEmbeddingController interface {
	RegisterRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
	Progress(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
}

type embeddingController struct {
	service       service.IEmbeddingService
	searchService service.ISearchService
}

func NewEmbeddingController(service service.IEmbeddingService, searchService service.ISearchService) IEmbeddingController {
	return &embeddingController{service: service, searchService: searchService}
}

func (c *embeddingController) RegisterRoutes(r fiber.Router) {
	h := r.Group(projectRoutes)
	h.Post(":id/embeddings", c.Generate)
	h.Get(":id/embeddings/progress", c.Progress)
	h.Post(":id/search", c.Search)
}

// Generate runs the batch protocol inline, or queues it when ?async=true.
func (c *embeddingController) Generate(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	if ctx.QueryBool("async", false) {
		res, err := c.service.Enqueue(ctx.UserContext(), id)
		if err != nil {
			return err
		}
		body := serverutils.SuccessResponse("Embedding queued", res)
		body.Code = fiber.StatusAccepted
		return ctx.Status(fiber.StatusAccepted).JSON(body)
	}

	res, err := c.service.GenerateEmbeddings(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate embeddings", res))
}

func (c *embeddingController) Progress(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.Progress(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get embedding progress", res))
}

func (c *embeddingController) Search(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.KindValidation, err, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.searchService.Search(ctx.UserContext(), id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search project", res))
}
