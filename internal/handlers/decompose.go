package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seriesdash/seriesdash/internal/analytics/decompose"
	"github.com/seriesdash/seriesdash/internal/loader"
	"github.com/seriesdash/seriesdash/internal/models"
	"github.com/seriesdash/seriesdash/internal/services"
)

// Decompose splits the uploaded series into trend, seasonal and residual
// POST /v1/decompose
func (h *Handler) Decompose(c *fiber.Ctx) error {
	var form models.DecomposeForm
	if err := bindForm(c, &form); err != nil {
		return h.respondError(c, err)
	}

	start, err := h.parseDate("start_date", form.StartDate)
	if err != nil {
		return h.respondError(c, err)
	}
	freq, err := h.parseFrequency(form.Frequency)
	if err != nil {
		return h.respondError(c, err)
	}
	model, err := decompose.ParseModel(form.Model)
	if err != nil {
		return h.respondError(c, services.NewServiceError(services.CodeInvalidParameter, err.Error()))
	}
	period := form.SeasonalPeriod
	if period == 0 {
		period = h.config.Forecast.SeasonalPeriod
	}

	series, err := h.loadSeries(c, form.Values, loader.Options{
		Start:     start,
		Frequency: freq,
		Column:    form.Column,
		Header:    form.Header,
	})
	if err != nil {
		return h.respondError(c, err)
	}

	out, err := h.decomposeService.Decompose(c.UserContext(), series, services.DecomposeRequest{
		Period: period,
		Model:  model,
	})
	if err != nil {
		return h.respondError(c, err)
	}

	timestamps := formatTimes(out.Timestamps, h.config.Upload.DateFormat)
	resp := models.DecomposeResponse{
		Model:            string(out.Model),
		Period:           out.Period,
		Timestamps:       timestamps,
		Observed:         out.Observed,
		Trend:            out.Trend,
		Seasonal:         out.Seasonal,
		Residual:         out.Residual,
		SeasonalStrength: out.Strength,
		Anomalies:        make([]models.AnomalyView, len(out.Anomalies)),
	}
	for i, a := range out.Anomalies {
		resp.Anomalies[i] = models.AnomalyView{
			Index:  a.Index,
			Period: timestamps[a.Index],
			Value:  a.Value,
			Score:  a.Score,
			Type:   string(a.Type),
		}
	}
	return c.JSON(resp)
}
