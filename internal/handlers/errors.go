package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/seriesdash/seriesdash/internal/loader"
	"github.com/seriesdash/seriesdash/internal/models"
	"github.com/seriesdash/seriesdash/internal/services"
)

// StatusForCode maps a service error code to its HTTP status.
func StatusForCode(code string) int {
	switch code {
	case services.CodeDataLoad, services.CodeInvalidRange, services.CodeInvalidRequest, services.CodeInvalidParameter:
		return fiber.StatusBadRequest
	case services.CodeNoData:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as an ErrorResponse. Upload failures become
// DATA_LOAD_FAILED; anything that is not a ServiceError is an internal
// error and its message is not exposed.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	var serr *services.ServiceError
	switch {
	case errors.As(err, &serr):
	case errors.Is(err, loader.ErrDataLoad):
		serr = services.WrapServiceError(services.CodeDataLoad, err)
	default:
		h.logger.WithContext(c.UserContext()).Error("Request failed", "path", c.Path(), "error", err)
		serr = services.NewServiceError(services.CodeInternal, "Internal Server Error")
	}

	return c.Status(StatusForCode(serr.Code)).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    serr.Code,
			Message: serr.Message,
			Path:    c.Path(),
			Details: serr.Details,
		},
	})
}

func badRequest(message string, err error) *services.ServiceError {
	serr := services.NewServiceError(services.CodeInvalidRequest, message)
	if err != nil {
		serr.Details = map[string]interface{}{"error": err.Error()}
	}
	return serr
}
