package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/seriesdash/seriesdash/internal/config"
	"github.com/seriesdash/seriesdash/internal/logging"
	"github.com/seriesdash/seriesdash/internal/metrics"
	"github.com/seriesdash/seriesdash/internal/services"
)

func createTestHandler(t *testing.T) *Handler {
	t.Helper()
	return createTestHandlerWithConfig(t, *config.DefaultConfig())
}

func createTestHandlerWithConfig(t *testing.T, cfg config.Config) *Handler {
	t.Helper()
	logger := logging.NewNop()
	m := metrics.New()
	return New(logger, cfg,
		services.NewForecastService(logger, cfg.Forecast, nil, nil, m),
		services.NewDecomposeService(logger, ""),
		m)
}

func createTestApp(t *testing.T, h *Handler) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/health", h.Health)
	app.Get("/metrics", h.Metrics())
	app.Get("/v1/methods", h.ListMethods)
	app.Post("/v1/forecast", h.Forecast)
	app.Post("/v1/forecast/export", h.ForecastExport)
	app.Post("/v1/decompose", h.Decompose)
	app.Use(h.NotFound)
	return app
}

// multipartRequest builds a POST with csv as the "file" part (skipped when
// empty) and fields as form values.
func multipartRequest(t *testing.T, path, csv string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if csv != "" {
		part, err := w.CreateFormFile("file", "series.csv")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(csv)); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, path string, payload interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(req, 30000)
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return resp, body
}

func decodeJSON(t *testing.T, body []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("Failed to unmarshal response: %v (%s)", err, body)
	}
}
