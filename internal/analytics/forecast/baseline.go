package forecast

import (
	"context"
	"fmt"
	"math"

	"github.com/seriesdash/seriesdash/internal/analytics"
	"gonum.org/v1/gonum/stat"
)

// ComputeBaseline produces the naive, mean or drift forecast for values.
//
//	naive: [last] * horizon
//	mean:  [mean(values)] * horizon
//	drift: last + i*(last-first)/(n-1), i = 1..horizon
//
// Drift assumes evenly spaced observations. It is a pure function and never
// modifies values.
func ComputeBaseline(values []float64, horizon int, method Method) ([]float64, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %d", analytics.ErrInvalidParameter, horizon)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s needs at least 1 observation", analytics.ErrInsufficientData, method)
	}

	n := len(values)
	last := values[n-1]
	out := make([]float64, horizon)

	switch method {
	case Naive:
		for i := range out {
			out[i] = last
		}
	case Mean:
		m := stat.Mean(values, nil)
		for i := range out {
			out[i] = m
		}
	case Drift:
		if n == 1 {
			return nil, fmt.Errorf("%w: drift needs at least 2 observations, have 1", analytics.ErrDegenerateSeries)
		}
		inc := driftIncrement(values)
		for i := range out {
			out[i] = last + float64(i+1)*inc
		}
	default:
		return nil, fmt.Errorf("%w: %q is not a baseline method", analytics.ErrInvalidParameter, method)
	}
	return out, nil
}

func driftIncrement(values []float64) float64 {
	n := len(values)
	return (values[n-1] - values[0]) / float64(n-1)
}

// BaselineForecaster wraps ComputeBaseline with one-step in-sample fits and
// residual based prediction intervals.
type BaselineForecaster struct {
	method Method
}

// NewBaselineForecaster returns the forecaster for naive, mean or drift.
func NewBaselineForecaster(m Method) *BaselineForecaster {
	return &BaselineForecaster{method: m}
}

func init() {
	for _, m := range []Method{Naive, Mean, Drift} {
		RegisterForecaster(NewBaselineForecaster(m))
	}
}

// Name returns the method identifier
func (f *BaselineForecaster) Name() Method {
	return f.method
}

// Forecast runs the baseline and attaches intervals.
func (f *BaselineForecaster) Forecast(_ context.Context, values []float64, config ForecastConfig) (*ForecastResult, error) {
	preds, err := ComputeBaseline(values, config.Horizon, f.method)
	if err != nil {
		return nil, err
	}

	n := len(values)
	fitted := f.fitted(values)
	sigma := residualStdError(values, fitted)

	lower := make([]float64, config.Horizon)
	upper := make([]float64, config.Horizon)
	for i := range preds {
		h := float64(i + 1)
		var se float64
		switch f.method {
		case Naive:
			se = sigma * math.Sqrt(h)
		case Mean:
			se = sigma * math.Sqrt(1+1/float64(n))
		case Drift:
			se = sigma * math.Sqrt(h*(1+h/float64(n-1)))
		}
		lower[i], upper[i] = predictionInterval(preds[i], se, config.Confidence)
	}

	res := &ForecastResult{
		Predictions: preds,
		LowerBound:  lower,
		UpperBound:  upper,
		Fitted:      fitted,
		ModelInfo: ModelInfo{
			Algorithm: string(f.method),
		},
	}
	if f.method == Drift {
		res.ModelInfo.Parameters = map[string]interface{}{"increment": driftIncrement(values)}
	}
	fillModelInfo(&res.ModelInfo, values, fitted)
	return res, nil
}

// fitted returns one-step-ahead in-sample values; positions with no
// forecast are NaN.
func (f *BaselineForecaster) fitted(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	out[0] = math.NaN()
	switch f.method {
	case Mean:
		m := stat.Mean(values, nil)
		for i := range out {
			out[i] = m
		}
	case Naive:
		for i := 1; i < n; i++ {
			out[i] = values[i-1]
		}
	case Drift:
		inc := 0.0
		if n > 1 {
			inc = driftIncrement(values)
		}
		for i := 1; i < n; i++ {
			out[i] = values[i-1] + inc
		}
	}
	return out
}
