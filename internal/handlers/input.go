package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/seriesdash/seriesdash/internal/analytics"
	"github.com/seriesdash/seriesdash/internal/analytics/forecast"
	"github.com/seriesdash/seriesdash/internal/downsampling"
	"github.com/seriesdash/seriesdash/internal/loader"
	"github.com/seriesdash/seriesdash/internal/models"
	"github.com/seriesdash/seriesdash/internal/services"
)

// bindForm parses the body into form. Requests without a body or with an
// unsupported content type leave form untouched.
func bindForm(c *fiber.Ctx, form interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(form); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
		return badRequest("Failed to parse request body", err)
	}
	return nil
}

// loadSeries reads the uploaded "file" part, falling back to inline values.
// Name and MaxRows in opts are filled in here.
func (h *Handler) loadSeries(c *fiber.Ctx, values string, opts loader.Options) (*analytics.Series, error) {
	opts.Name = "values"
	opts.MaxRows = h.config.Upload.MaxRows

	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", loader.ErrDataLoad, err)
		}
		defer func() { _ = f.Close() }()
		opts.Name = fh.Filename
		return loader.ParseCSV(f, opts)
	}

	if strings.TrimSpace(values) != "" {
		return loader.ParseValues(values, opts)
	}
	return nil, fmt.Errorf("%w: upload a CSV file or provide values", loader.ErrDataLoad)
}

func (h *Handler) parseDate(name, value string) (time.Time, error) {
	t, err := h.config.Upload.ParseDate(value)
	if err != nil {
		return time.Time{}, services.NewServiceErrorWithDetails(services.CodeInvalidRange,
			fmt.Sprintf("invalid %s", name),
			map[string]interface{}{"error": err.Error(), "layout": h.config.Upload.DateFormat})
	}
	return t, nil
}

func (h *Handler) parseFrequency(value string) (analytics.Frequency, error) {
	if value == "" {
		value = h.config.Upload.Frequency
	}
	freq, err := analytics.ParseFrequency(value)
	if err != nil {
		return "", services.NewServiceError(services.CodeInvalidParameter, err.Error())
	}
	return freq, nil
}

// chartOptions controls how the observed series is rendered.
type chartOptions struct {
	maxPoints int
	mode      downsampling.Mode
}

func parseChartOptions(form *models.ForecastForm) (chartOptions, error) {
	if form.MaxPoints < 0 {
		return chartOptions{}, services.NewServiceError(services.CodeInvalidParameter, "max_points must not be negative")
	}
	mode, err := downsampling.ParseMode(strings.ToLower(strings.TrimSpace(form.Downsample)))
	if err != nil {
		return chartOptions{}, services.NewServiceError(services.CodeInvalidParameter, err.Error())
	}
	return chartOptions{maxPoints: form.MaxPoints, mode: mode}, nil
}

// forecastInput turns the request into a series and a ForecastRequest.
// Unset fields take the configured defaults.
func (h *Handler) forecastInput(c *fiber.Ctx) (*analytics.Series, services.ForecastRequest, chartOptions, error) {
	var form models.ForecastForm
	req := services.NewForecastRequest(h.config.Forecast)

	if err := bindForm(c, &form); err != nil {
		return nil, req, chartOptions{}, err
	}
	chart, err := parseChartOptions(&form)
	if err != nil {
		return nil, req, chart, err
	}

	start, err := h.parseDate("start_date", form.StartDate)
	if err != nil {
		return nil, req, chart, err
	}
	end, err := h.parseDate("end_date", form.EndDate)
	if err != nil {
		return nil, req, chart, err
	}
	freq, err := h.parseFrequency(form.Frequency)
	if err != nil {
		return nil, req, chart, err
	}

	if form.Horizon != 0 {
		req.Horizon = form.Horizon
	}
	if form.SeasonalPeriod != 0 {
		req.SeasonalPeriod = form.SeasonalPeriod
	}
	if form.Confidence != 0 {
		req.Confidence = form.Confidence
	}
	if form.Order != "" {
		order, err := forecast.ParseSARIMAOrder(form.Order)
		if err != nil {
			return nil, req, chart, services.NewServiceError(services.CodeInvalidParameter, err.Error())
		}
		req.Order = order
	}
	switch strings.ToLower(strings.TrimSpace(form.Methods)) {
	case "":
	case "none":
		req.Methods = nil
	default:
		methods, err := forecast.ParseMethods(form.Methods)
		if err != nil {
			return nil, req, chart, services.NewServiceErrorWithDetails(services.CodeInvalidRequest, err.Error(),
				map[string]interface{}{"available_methods": forecast.ListForecasters()})
		}
		req.Methods = methods
	}
	req.StartDate = start
	req.EndDate = end

	series, err := h.loadSeries(c, form.Values, loader.Options{
		Start:     start,
		Frequency: freq,
		Column:    form.Column,
		Header:    form.Header,
	})
	if err != nil {
		return nil, req, chart, err
	}
	return series, req, chart, nil
}
