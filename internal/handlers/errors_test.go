package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/seriesdash/seriesdash/internal/services"
)

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{services.CodeDataLoad, fiber.StatusBadRequest},
		{services.CodeInvalidRange, fiber.StatusBadRequest},
		{services.CodeInvalidRequest, fiber.StatusBadRequest},
		{services.CodeInvalidParameter, fiber.StatusBadRequest},
		{services.CodeNoData, fiber.StatusUnprocessableEntity},
		{services.CodeInternal, fiber.StatusInternalServerError},
		{"SOMETHING_ELSE", fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusForCode(tt.code); got != tt.want {
			t.Errorf("StatusForCode(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
