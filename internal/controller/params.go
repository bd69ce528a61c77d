package controller

import (
	"doc-intelligence-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const projectRoutes = "/projects/v1"

func uuidParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperror.Wrap(apperror.KindValidation, err, "invalid %s", name)
	}
	return id, nil
}
