package services

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seriesdash/seriesdash/internal/analytics"
	"github.com/seriesdash/seriesdash/internal/analytics/forecast"
	"github.com/seriesdash/seriesdash/internal/cache"
	"github.com/seriesdash/seriesdash/internal/config"
	"github.com/seriesdash/seriesdash/internal/logging"
	"github.com/seriesdash/seriesdash/internal/metrics"
	"github.com/seriesdash/seriesdash/internal/queue"
	"github.com/seriesdash/seriesdash/internal/utils"
)

// ResultCache holds finished bundles keyed by request fingerprint.
type ResultCache = cache.LRUWithTTL[string, *ForecastBundle]

// ForecastService runs the enabled forecasting methods over one series.
// It is safe for concurrent use; runs share nothing but the cache, the
// metrics and the event publisher.
type ForecastService struct {
	logger  *logging.Logger
	config  config.ForecastConfig
	cache   *ResultCache
	events  *queue.EventPublisher
	metrics *metrics.Metrics

	lookup func(forecast.Method) (forecast.Forecaster, error)
}

// NewForecastService creates a new ForecastService. resultCache, events
// and m may be nil.
func NewForecastService(
	logger *logging.Logger,
	cfg config.ForecastConfig,
	resultCache *ResultCache,
	events *queue.EventPublisher,
	m *metrics.Metrics,
) *ForecastService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ForecastService{
		logger:  logger,
		config:  cfg,
		cache:   resultCache,
		events:  events,
		metrics: m,
		lookup:  forecast.GetForecaster,
	}
}

// ForecastRequest is the user's run configuration. It is passed by value
// and never modified by the service.
type ForecastRequest struct {
	Horizon        int
	Methods        []forecast.Method
	StartDate      time.Time // zero means the series start
	EndDate        time.Time // zero means the series end
	RangeRequired  bool      // both StartDate and EndDate must be set
	SeasonalPeriod int
	Order          forecast.SARIMAOrder
	Confidence     float64 // zero means the configured level
}

// NewForecastRequest returns a request populated with cfg's defaults.
func NewForecastRequest(cfg config.ForecastConfig) ForecastRequest {
	return ForecastRequest{
		Horizon:        cfg.DefaultHorizon,
		Methods:        cfg.Methods(),
		SeasonalPeriod: cfg.SeasonalPeriod,
		Order:          cfg.Order,
		Confidence:     cfg.Confidence,
		RangeRequired:  cfg.RequireRange,
	}
}

// ForecastResult is one method's forecast, labelled for display.
type ForecastResult struct {
	Method     forecast.Method    `json:"method"`
	Label      string             `json:"label"`
	Values     []float64          `json:"values"`
	LowerBound []float64          `json:"lower_bound,omitempty"`
	UpperBound []float64          `json:"upper_bound,omitempty"`
	ModelInfo  forecast.ModelInfo `json:"model_info"`
}

// MethodWarning records a method that was skipped.
type MethodWarning struct {
	Method  forecast.Method `json:"method"`
	Label   string          `json:"label"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

// ForecastBundle is the outcome of a run. Results follow
// forecast.AllMethods order.
type ForecastBundle struct {
	RunID         string
	Series        *analytics.Series
	Horizon       int
	ForecastTimes []time.Time
	Results       []ForecastResult
	Warnings      []MethodWarning
	State         RunState
	CacheHit      bool
	StartedAt     time.Time
	Duration      time.Duration

	interrupted bool // a method stopped on cancellation or a deadline
}

// Succeeded lists the methods that produced a forecast.
func (b *ForecastBundle) Succeeded() []forecast.Method {
	out := make([]forecast.Method, len(b.Results))
	for i, r := range b.Results {
		out[i] = r.Method
	}
	return out
}

// Run validates req against series, then evaluates every enabled method in
// fixed order. Structural problems (no data, bad range or horizon) fail the
// whole run with a *ServiceError before any method runs. Per-method errors
// become warnings and never abort the run.
func (s *ForecastService) Run(ctx context.Context, series *analytics.Series, req ForecastRequest) (*ForecastBundle, error) {
	bundle := &ForecastBundle{
		RunID:     uuid.NewString(),
		State:     StateIdle,
		Horizon:   req.Horizon,
		StartedAt: time.Now(),
	}
	log := s.logger.WithContext(ctx).With("run_id", bundle.RunID)
	s.advance(log, bundle, StateConfiguring)

	if req.Confidence == 0 {
		req.Confidence = s.config.Confidence
	}
	window, serr := s.validate(series, req)
	if serr != nil {
		s.advance(log, bundle, StateFailed)
		bundle.Duration = time.Since(bundle.StartedAt)
		log.Warn("Forecast run rejected", "code", serr.Code, "error", serr.Message)
		s.finish(ctx, log, bundle, req)
		return nil, serr
	}
	bundle.Series = window
	bundle.ForecastTimes = window.ForecastTimestamps(req.Horizon)

	s.advance(log, bundle, StateProcessing)

	key := cacheKey(window, req)
	if cached, ok := s.cached(key); ok {
		bundle.Results = cached.Results
		bundle.Warnings = cached.Warnings
		bundle.CacheHit = true
	} else {
		s.evaluate(ctx, log, bundle, req)
	}

	s.advance(log, bundle, StateCompleted)
	bundle.Duration = time.Since(bundle.StartedAt)
	if !bundle.CacheHit && s.cache != nil && !bundle.interrupted && ctx.Err() == nil {
		s.cache.Set(key, bundle)
	}

	log.Info("Forecast completed",
		"observations", window.Len(),
		"horizon", req.Horizon,
		"methods", len(req.Methods),
		"succeeded", len(bundle.Results),
		"warnings", len(bundle.Warnings),
		"cache_hit", bundle.CacheHit,
		"latency_ms", bundle.Duration.Milliseconds())

	s.finish(ctx, log, bundle, req)
	return bundle, nil
}

func (s *ForecastService) advance(log *logging.Logger, b *ForecastBundle, next RunState) {
	if !b.State.CanTransition(next) {
		log.Error("Invalid run state transition", "from", b.State, "to", next)
	}
	b.State = next
}

func (s *ForecastService) cached(key string) (*ForecastBundle, bool) {
	if s.cache == nil {
		return nil, false
	}
	b, ok := s.cache.Get(key)
	s.metrics.ObserveCache(ok)
	return b, ok
}

// validate checks the structural preconditions and returns the window of
// series selected by the request's date range.
func (s *ForecastService) validate(series *analytics.Series, req ForecastRequest) (*analytics.Series, *ServiceError) {
	if series.Len() == 0 {
		return nil, NewServiceError(CodeNoData, "no observations to forecast")
	}

	maxHorizon := s.config.MaxHorizon
	if req.Horizon < 1 || (maxHorizon > 0 && req.Horizon > maxHorizon) {
		return nil, invalidRange("horizon must be between 1 and %d, got %d", maxHorizon, req.Horizon)
	}

	if req.SeasonalPeriod < 2 {
		return nil, NewServiceError(CodeInvalidParameter,
			fmt.Sprintf("seasonal_period must be at least 2, got %d", req.SeasonalPeriod))
	}

	if req.Confidence <= 0 || req.Confidence >= 1 {
		return nil, NewServiceError(CodeInvalidParameter,
			fmt.Sprintf("confidence must be between 0 and 1, got %g", req.Confidence))
	}

	for _, m := range req.Methods {
		if m.Rank() < 0 {
			return nil, NewServiceErrorWithDetails(CodeInvalidRequest,
				fmt.Sprintf("unknown method: %s", m),
				map[string]interface{}{"available_methods": forecast.ListForecasters()})
		}
	}

	return window(series, req)
}

// window applies the request's date range to series.
func window(series *analytics.Series, req ForecastRequest) (*analytics.Series, *ServiceError) {
	start, end := req.StartDate, req.EndDate

	if req.RangeRequired && (start.IsZero() || end.IsZero()) {
		return nil, invalidRange("a start and an end date are both required")
	}
	if start.IsZero() && !end.IsZero() {
		return nil, invalidRange("end date given without a start date")
	}
	if !end.IsZero() && end.Before(start) {
		return nil, invalidRange("end date %s is before start date %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	if start.IsZero() {
		return series, nil
	}

	times := series.Timestamps()
	from, to := -1, -1
	for i, ts := range times {
		if ts.Before(start) {
			continue
		}
		if !end.IsZero() && ts.After(end) {
			break
		}
		if from < 0 {
			from = i
		}
		to = i + 1
	}
	if from < 0 {
		return nil, NewServiceErrorWithDetails(CodeNoData, "no observations inside the selected date range",
			map[string]interface{}{
				"series_start": times[0].Format(time.DateOnly),
				"series_end":   times[len(times)-1].Format(time.DateOnly),
			})
	}
	if from == 0 && to == len(times) {
		return series, nil
	}
	return analytics.NewSeries(series.Name, series.Values[from:to], times[from], series.Frequency), nil
}

// evaluate runs the enabled methods in forecast.AllMethods order.
func (s *ForecastService) evaluate(ctx context.Context, log *logging.Logger, b *ForecastBundle, req ForecastRequest) {
	enabled := make(map[forecast.Method]bool, len(req.Methods))
	for _, m := range req.Methods {
		enabled[m] = true
	}

	cfg := forecast.ForecastConfig{
		Horizon:        req.Horizon,
		SeasonalPeriod: req.SeasonalPeriod,
		Confidence:     req.Confidence,
		Order:          req.Order,
	}

	for _, m := range forecast.AllMethods {
		if !enabled[m] {
			continue
		}

		began := time.Now()
		res, err := s.runMethod(ctx, m, b.Series, cfg)
		if err == nil && len(res.Predictions) != req.Horizon {
			err = fmt.Errorf("%w: %s returned %d values for horizon %d",
				analytics.ErrModelFit, m, len(res.Predictions), req.Horizon)
		}
		if err != nil {
			if interrupted(err) {
				b.interrupted = true
			}
			w := MethodWarning{Method: m, Label: m.Label(), Code: WarningCode(err), Message: err.Error()}
			b.Warnings = append(b.Warnings, w)
			s.metrics.ObserveMethod(string(m), w.Code, time.Since(began))
			log.Warn("Forecast method skipped", "method", m, "code", w.Code, "error", err)
			continue
		}

		s.metrics.ObserveMethod(string(m), "ok", time.Since(began))
		b.Results = append(b.Results, ForecastResult{
			Method:     m,
			Label:      m.Label(),
			Values:     res.Predictions,
			LowerBound: res.LowerBound,
			UpperBound: res.UpperBound,
			ModelInfo:  res.ModelInfo,
		})
	}
}

// runMethod fits one method on a private copy of the series, bounded by
// the configured fit timeout. A timed-out fit keeps running in the
// background but its result is discarded.
func (s *ForecastService) runMethod(ctx context.Context, m forecast.Method, series *analytics.Series, cfg forecast.ForecastConfig) (*forecast.ForecastResult, error) {
	f, err := s.lookup(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", analytics.ErrInvalidParameter, err)
	}

	values := series.Copy()
	timeout := s.config.FitTimeout
	if timeout <= 0 {
		return safeForecast(ctx, f, values, cfg)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		res *forecast.ForecastResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := safeForecast(ctx, f, values, cfg)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s did not finish within %s: %w", analytics.ErrModelFit, m, timeout, ctx.Err())
	}
}

// interrupted reports whether err comes from a cancelled or timed-out
// context rather than from the data.
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func safeForecast(ctx context.Context, f forecast.Forecaster, values []float64, cfg forecast.ForecastConfig) (res *forecast.ForecastResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %s panicked: %v", analytics.ErrModelFit, f.Name(), r)
		}
	}()
	return f.Forecast(ctx, values, cfg)
}

// WarningCode maps a method error to its warning code.
func WarningCode(err error) string {
	switch {
	case errors.Is(err, analytics.ErrInsufficientData):
		return CodeInsufficientData
	case errors.Is(err, analytics.ErrDegenerateSeries):
		return CodeDegenerateSeries
	case errors.Is(err, analytics.ErrInvalidParameter):
		return CodeInvalidParameter
	default:
		return CodeModelFit
	}
}

// finish records metrics and publishes the run event. Publish failures
// are logged only.
func (s *ForecastService) finish(ctx context.Context, log *logging.Logger, b *ForecastBundle, req ForecastRequest) {
	observations := b.Series.Len()
	s.metrics.ObserveRun(string(b.State), b.Duration, observations)

	if s.events == nil {
		return
	}
	methods := make([]string, len(req.Methods))
	for i, m := range req.Methods {
		methods[i] = string(m)
	}
	succeeded := make([]string, len(b.Results))
	for i, r := range b.Results {
		succeeded[i] = string(r.Method)
	}

	ev := queue.RunEvent{
		RunID:        b.RunID,
		RequestID:    logging.RequestID(ctx),
		State:        string(b.State),
		Methods:      methods,
		Succeeded:    succeeded,
		Warnings:     len(b.Warnings),
		Horizon:      req.Horizon,
		Observations: observations,
		CacheHit:     b.CacheHit,
		DurationMS:   b.Duration.Milliseconds(),
		FinishedAt:   time.Now().UTC(),
	}
	// the request may already be cancelled once the response is written
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), utils.PublishTimeout)
	defer cancel()
	if err := s.events.PublishRun(pubCtx, ev); err != nil {
		s.metrics.EventPublishFailed()
		log.Warn("Failed to publish run event", "subject", s.events.Subject(), "error", err)
	}
}

// cacheKey fingerprints the series window and every request field that
// affects the results.
func cacheKey(series *analytics.Series, req ForecastRequest) string {
	h := sha256.New()
	var buf [8]byte
	for _, v := range series.Values {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}

	names := make([]string, 0, len(req.Methods))
	for _, m := range forecast.Normalize(req.Methods) {
		names = append(names, string(m))
	}
	fmt.Fprintf(h, "|%s|%s|%d|%s|%d|%s|%g",
		series.Start.Format(time.RFC3339), series.Frequency,
		req.Horizon, strings.Join(names, ","),
		req.SeasonalPeriod, req.Order, req.Confidence)
	return hex.EncodeToString(h.Sum(nil))
}
