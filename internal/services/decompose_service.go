package services

import (
	"context"
	"errors"
	"time"

	"github.com/seriesdash/seriesdash/internal/analytics"
	"github.com/seriesdash/seriesdash/internal/analytics/anomaly"
	"github.com/seriesdash/seriesdash/internal/analytics/decompose"
	"github.com/seriesdash/seriesdash/internal/logging"
)

// DecomposeService splits a series into trend, seasonal and residual
// components and flags unusual residuals.
type DecomposeService struct {
	logger   *logging.Logger
	detector string
	detect   anomaly.DetectorConfig
}

// NewDecomposeService creates a DecomposeService that flags residuals
// with the named anomaly detector ("iqr" when empty).
func NewDecomposeService(logger *logging.Logger, detector string) *DecomposeService {
	if logger == nil {
		logger = logging.NewNop()
	}
	if detector == "" {
		detector = "iqr"
	}
	cfg := anomaly.DefaultConfig()
	if detector == "iqr" {
		cfg.Threshold = 1.5
	}
	return &DecomposeService{logger: logger, detector: detector, detect: cfg}
}

// DecomposeRequest selects the seasonal model.
type DecomposeRequest struct {
	Period int
	Model  decompose.Model
}

// Decomposition is a decomposed series with its calendar index.
type Decomposition struct {
	*decompose.Result
	Timestamps []time.Time      `json:"timestamps"`
	Strength   float64          `json:"seasonal_strength"`
	Anomalies  []anomaly.Result `json:"anomalies"`
}

// Decompose runs a classical decomposition. Fewer than two full cycles is
// an INVALID_PARAMETER error.
func (s *DecomposeService) Decompose(ctx context.Context, series *analytics.Series, req DecomposeRequest) (*Decomposition, error) {
	if series.Len() == 0 {
		return nil, NewServiceError(CodeNoData, "no observations to decompose")
	}
	if req.Model == "" {
		req.Model = decompose.Additive
	}

	res, err := decompose.Decompose(series.Values, req.Period, req.Model)
	if err != nil {
		code := CodeModelFit
		if errors.Is(err, analytics.ErrInvalidParameter) || errors.Is(err, analytics.ErrInsufficientData) {
			code = CodeInvalidParameter
		}
		return nil, WrapServiceError(code, err)
	}

	out := &Decomposition{
		Result:     res,
		Timestamps: series.Timestamps(),
		Strength:   res.Strength(),
		Anomalies:  []anomaly.Result{},
	}
	if found, err := anomaly.Detect(s.detector, res.Residual, s.detect); err == nil {
		out.Anomalies = found
	} else {
		s.logger.WithContext(ctx).Warn("Residual anomaly detection skipped", "detector", s.detector, "error", err)
	}

	s.logger.WithContext(ctx).Debug("Decomposition completed",
		"observations", series.Len(),
		"period", req.Period,
		"model", req.Model,
		"anomalies", len(out.Anomalies))
	return out, nil
}
