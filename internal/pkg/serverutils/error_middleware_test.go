package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"doc-intelligence-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(err error) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(ErrorHandlerMiddleware())
	app.Get("/", func(c *fiber.Ctx) error { return err })
	return app
}

func TestErrorHandlerMiddleware_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", apperror.NotFound("project missing"), http.StatusNotFound},
		{"validation", apperror.Validation("bad input"), http.StatusBadRequest},
		{"provider", apperror.Wrap(apperror.KindEmbeddingProvider, errors.New("503"), "provider failed"), http.StatusBadGateway},
		{"deadline", apperror.Wrap(apperror.KindDeadlineExceeded, errors.New("timeout"), "too slow"), http.StatusGatewayTimeout},
		{"configuration", apperror.Configuration("missing key"), http.StatusInternalServerError},
		{"fiber error", fiber.NewError(http.StatusRequestEntityTooLarge, "too big"), http.StatusRequestEntityTooLarge},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := newTestApp(tt.err).Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			raw, _ := io.ReadAll(resp.Body)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.status, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestErrorHandlerMiddleware_Details(t *testing.T) {
	cause := errors.New("upstream said no")
	resp, err := newTestApp(apperror.Wrap(apperror.KindEmbeddingProvider, cause, "embedding failed")).
		Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	var body ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "embedding failed", body.Error)
	assert.Equal(t, "upstream said no", body.Details)
}

func TestValidateRequest(t *testing.T) {
	type request struct {
		Name string `json:"name" validate:"required"`
		TopK *int   `json:"top_k" validate:"omitempty,min=1,max=20"`
	}
	tooMany := 50

	err := ValidateRequest(request{TopK: &tooMany})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	details := ValidationDetails(err)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be at most 20", details["top_k"])

	ok := 5
	assert.NoError(t, ValidateRequest(request{Name: "x", TopK: &ok}))
}
