package handlers

import (
	"github.com/seriesdash/seriesdash/internal/config"
	"github.com/seriesdash/seriesdash/internal/logging"
	"github.com/seriesdash/seriesdash/internal/metrics"
	"github.com/seriesdash/seriesdash/internal/services"
)

// Version is reported by the health endpoint
var Version = "dev"

// Handler contains all HTTP handlers
type Handler struct {
	logger  *logging.Logger
	config  config.Config
	metrics *metrics.Metrics

	// Services
	forecastService  *services.ForecastService
	decomposeService *services.DecomposeService
}

// New creates a new handler instance
func New(
	logger *logging.Logger,
	cfg config.Config,
	forecastService *services.ForecastService,
	decomposeService *services.DecomposeService,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		logger:           logger,
		config:           cfg,
		metrics:          m,
		forecastService:  forecastService,
		decomposeService: decomposeService,
	}
}
