package handlers

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/seriesdash/seriesdash/internal/downsampling"
	"github.com/seriesdash/seriesdash/internal/models"
	"github.com/seriesdash/seriesdash/internal/services"
	"github.com/seriesdash/seriesdash/internal/utils"
)

// Forecast runs the selected methods over the uploaded series
// POST /v1/forecast
func (h *Handler) Forecast(c *fiber.Ctx) error {
	bundle, chart, err := h.runForecast(c)
	if err != nil {
		return h.respondError(c, err)
	}
	resp, err := h.forecastResponse(bundle, chart)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(resp)
}

// ForecastExport runs a forecast and returns the table as CSV
// POST /v1/forecast/export
func (h *Handler) ForecastExport(c *fiber.Ctx) error {
	bundle, _, err := h.runForecast(c)
	if err != nil {
		return h.respondError(c, err)
	}

	var buf bytes.Buffer
	if err := bundle.Table(h.config.Upload.DateFormat).WriteCSV(&buf); err != nil {
		return h.respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="forecast-%s.csv"`, bundle.RunID))
	return c.Send(buf.Bytes())
}

func (h *Handler) runForecast(c *fiber.Ctx) (*services.ForecastBundle, chartOptions, error) {
	series, req, chart, err := h.forecastInput(c)
	if err != nil {
		return nil, chart, err
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), utils.DefaultRequestTimeout)
	defer cancel()
	bundle, err := h.forecastService.Run(ctx, series, req)
	return bundle, chart, err
}

func (h *Handler) forecastResponse(b *services.ForecastBundle, chart chartOptions) (models.ForecastResponse, error) {
	layout := h.config.Upload.DateFormat
	future := formatTimes(b.ForecastTimes, layout)

	// Only the view is reduced; the bundle may be cached.
	times, values, err := downsampling.Reduce(b.Series.Timestamps(), b.Series.Values, chart.mode, chart.maxPoints)
	if err != nil {
		return models.ForecastResponse{}, err
	}

	resp := models.ForecastResponse{
		RunID:      b.RunID,
		State:      string(b.State),
		CacheHit:   b.CacheHit,
		DurationMS: b.Duration.Milliseconds(),
		Horizon:    b.Horizon,
		Series: models.SeriesView{
			Name:       b.Series.Name,
			Frequency:  string(b.Series.Frequency),
			Timestamps: formatTimes(times, layout),
			Values:     values,
			Points:     b.Series.Len(),
		},
		Forecasts: make([]models.ForecastLine, len(b.Results)),
		Warnings:  make([]models.Warning, len(b.Warnings)),
	}

	for _, p := range b.Preview(utils.PreviewRows, layout) {
		resp.Preview = append(resp.Preview, models.PreviewRow{Period: p.Period, Value: p.Value})
	}

	for i, r := range b.Results {
		resp.Forecasts[i] = models.ForecastLine{
			Method:     string(r.Method),
			Label:      r.Label,
			Timestamps: future,
			Values:     r.Values,
			LowerBound: r.LowerBound,
			UpperBound: r.UpperBound,
			Algorithm:  r.ModelInfo.Algorithm,
			Parameters: finiteParameters(r.ModelInfo.Parameters),
			MAE:        finiteOrZero(r.ModelInfo.MAE),
			RMSE:       finiteOrZero(r.ModelInfo.RMSE),
			MAPE:       finiteOrZero(r.ModelInfo.MAPE),
		}
	}

	for i, w := range b.Warnings {
		resp.Warnings[i] = models.Warning{
			Method:  string(w.Method),
			Label:   w.Label,
			Code:    w.Code,
			Message: w.Message,
		}
	}

	table := b.Table(layout)
	resp.Table = models.TableView{Columns: table.Columns, Rows: make([]models.TableRow, len(table.Rows))}
	for i, row := range table.Rows {
		resp.Table.Rows[i] = models.TableRow{Period: row.Period, Values: row.Values}
	}
	return resp, nil
}

func formatTimes(times []time.Time, layout string) []string {
	out := make([]string, len(times))
	for i, t := range times {
		out[i] = t.Format(layout)
	}
	return out
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// finiteParameters drops values JSON cannot encode.
func finiteParameters(params map[string]interface{}) map[string]interface{} {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		switch x := v.(type) {
		case float64:
			if math.IsNaN(x) || math.IsInf(x, 0) {
				out[k] = nil
				continue
			}
		case []float64:
			v = models.Floats(x)
		}
		out[k] = v
	}
	return out
}
