package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/seriesdash/seriesdash/internal/models"
)

func TestHandler_Health(t *testing.T) {
	app := createTestApp(t, createTestHandler(t))

	resp, body := doRequest(t, app, httptest.NewRequest("GET", "/health", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status %d, got %d", fiber.StatusOK, resp.StatusCode)
	}

	var healthResp models.HealthResponse
	decodeJSON(t, body, &healthResp)
	if healthResp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", healthResp.Status)
	}
	if healthResp.Version != Version {
		t.Errorf("Expected version %q, got %q", Version, healthResp.Version)
	}
	if healthResp.Timestamp == "" {
		t.Error("Expected non-empty timestamp")
	}
}

func TestHandler_NotFound(t *testing.T) {
	app := createTestApp(t, createTestHandler(t))

	resp, body := doRequest(t, app, httptest.NewRequest("GET", "/nonexistent", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected status %d, got %d", fiber.StatusNotFound, resp.StatusCode)
	}

	var errResp models.ErrorResponse
	decodeJSON(t, body, &errResp)
	if errResp.Error.Code != "NOT_FOUND" {
		t.Errorf("Expected code 'NOT_FOUND', got '%s'", errResp.Error.Code)
	}
	if errResp.Error.Path != "/nonexistent" {
		t.Errorf("Expected path '/nonexistent', got '%s'", errResp.Error.Path)
	}
}

func TestHandler_Metrics(t *testing.T) {
	h := createTestHandler(t)
	app := createTestApp(t, h)

	// one run so the run counter has a sample
	doRequest(t, app, multipartRequest(t, "/v1/forecast", "1\n2\n3\n", map[string]string{"methods": "naive", "horizon": "2"}))

	resp, body := doRequest(t, app, httptest.NewRequest("GET", "/metrics", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `seriesdash_forecast_runs_total{state="completed"} 1`) {
		t.Errorf("Run counter missing from exposition:\n%s", body)
	}
}

func TestHandler_MetricsDisabled(t *testing.T) {
	h := createTestHandler(t)
	h.metrics = nil
	app := fiber.New()
	app.Get("/metrics", h.Metrics())

	resp, _ := doRequest(t, app, httptest.NewRequest("GET", "/metrics", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected 404 without metrics, got %d", resp.StatusCode)
	}
}

func TestHandler_ListMethods(t *testing.T) {
	app := createTestApp(t, createTestHandler(t))

	resp, body := doRequest(t, app, httptest.NewRequest("GET", "/v1/methods", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var list models.MethodListResponse
	decodeJSON(t, body, &list)
	if len(list.Methods) != 7 {
		t.Fatalf("Expected 7 methods, got %d", len(list.Methods))
	}
	first, last := list.Methods[0], list.Methods[6]
	if first.Name != "naive" || !first.Baseline || !first.Default {
		t.Errorf("Unexpected first method %+v", first)
	}
	if last.Name != "sarimax" || last.Baseline || last.Default {
		t.Errorf("Unexpected last method %+v", last)
	}
}
