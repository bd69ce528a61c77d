package serverutils

import (
	"errors"
	"net/http"

	"doc-intelligence-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusForError maps an error to the HTTP status the API reports for it.
func StatusForError(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindEmbeddingProvider:
		return http.StatusBadGateway
	case apperror.KindDeadlineExceeded:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// ErrorBodyFor builds the {error, details} body for err.
func ErrorBodyFor(err error) (int, *ErrorBody) {
	status := StatusForError(err)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return status, ErrorResponse(status, fe.Message)
	}

	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		return status, ErrorResponse(status, http.StatusText(status))
	}

	var details interface{}
	if v := ValidationDetails(err); v != nil {
		details = v
	} else if appErr.Err != nil {
		details = appErr.Err.Error()
	}
	return status, ErrorResponseWithDetails(status, appErr.Message, details)
}

// ErrorHandler is installed as fiber's ErrorHandler so panics recovered by
// middleware and routing errors share the same body.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	status, body := ErrorBodyFor(err)
	return ctx.Status(status).JSON(body)
}

func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return ErrorHandler(ctx, err)
	}
}
