package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seriesdash/seriesdash/internal/analytics/forecast"
	"github.com/seriesdash/seriesdash/internal/models"
)

// ListMethods returns the registered forecasting methods
// GET /v1/methods
func (h *Handler) ListMethods(c *fiber.Ctx) error {
	defaults := make(map[forecast.Method]bool)
	for _, m := range h.config.Forecast.Methods() {
		defaults[m] = true
	}

	methods := forecast.ListForecasters()
	resp := models.MethodListResponse{Methods: make([]models.MethodInfo, len(methods))}
	for i, m := range methods {
		resp.Methods[i] = models.MethodInfo{
			Name:     string(m),
			Label:    m.Label(),
			Baseline: m.IsBaseline(),
			Default:  defaults[m],
		}
	}
	return c.JSON(resp)
}
