package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/seriesdash/seriesdash/internal/logging"
	"github.com/seriesdash/seriesdash/internal/models"
)

func decodeError(t *testing.T, body io.Reader) models.ErrorResponse {
	t.Helper()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v (%s)", err, data)
	}
	return resp
}

func TestErrorHandler_FiberError(t *testing.T) {
	logger := logging.NewNop()

	tests := []struct {
		name           string
		fiberError     *fiber.Error
		expectedStatus int
		expectedCode   string
	}{
		{"BadRequest", fiber.ErrBadRequest, fiber.StatusBadRequest, "BAD_REQUEST"},
		{"NotFound", fiber.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
		{"TooLarge", fiber.ErrRequestEntityTooLarge, fiber.StatusRequestEntityTooLarge, "REQUEST_ENTITY_TOO_LARGE"},
		{"Internal", fiber.ErrInternalServerError, fiber.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
			app.Get("/test", func(c *fiber.Ctx) error { return tt.fiberError })

			resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
			if err != nil {
				t.Fatalf("Failed to perform request: %v", err)
			}
			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, resp.StatusCode)
			}
			body := decodeError(t, resp.Body)
			if body.Error.Code != tt.expectedCode {
				t.Errorf("Expected code %s, got %s", tt.expectedCode, body.Error.Code)
			}
			if body.Error.Path != "/test" {
				t.Errorf("Expected path /test, got %s", body.Error.Path)
			}
		})
	}
}

func TestErrorHandler_GenericError(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.NewNop())})
	app.Get("/test", func(c *fiber.Ctx) error { return errors.New("database exploded") })

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", resp.StatusCode)
	}
	body := decodeError(t, resp.Body)
	if body.Error.Message != "Internal Server Error" {
		t.Errorf("Internal error details must not leak, got %q", body.Error.Message)
	}
}

func TestErrorHandler_PanicRecovery(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.NewNop())})
	app.Use(recover.New())
	app.Get("/panic", func(c *fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("Expected 500 after panic, got %d", resp.StatusCode)
	}
	body := decodeError(t, resp.Body)
	if body.Error.Code != "INTERNAL_SERVER_ERROR" {
		t.Errorf("Unexpected code %s", body.Error.Code)
	}
}

func TestErrorCode(t *testing.T) {
	if got := errorCode(599); got != "ERROR" {
		t.Errorf("Unknown status should map to ERROR, got %s", got)
	}
	if got := errorCode(fiber.StatusTeapot); got != "IM_A_TEAPOT" {
		t.Errorf("Unexpected code %s", got)
	}
}
