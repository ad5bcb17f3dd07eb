package forecast

import (
	"context"
	"fmt"
	"math"

	"github.com/seriesdash/seriesdash/internal/analytics"
)

// smoothingGrid is searched when a smoothing parameter is left at zero.
var smoothingGrid = []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95}

// HoltForecaster implements Holt's linear trend (double exponential smoothing).
type HoltForecaster struct{}

// NewHoltForecaster creates a new Holt forecaster
func NewHoltForecaster() *HoltForecaster {
	return &HoltForecaster{}
}

func init() {
	RegisterForecaster(NewHoltForecaster())
}

// Name returns the method identifier
func (f *HoltForecaster) Name() Method {
	return Holt
}

type holtState struct {
	level, trend float64
	sse          float64
	fitted       []float64
}

// runHolt filters values with fixed alpha/beta. Level starts at y[0],
// trend at y[1]-y[0].
func runHolt(values []float64, alpha, beta float64) holtState {
	n := len(values)
	fitted := make([]float64, n)
	fitted[0] = math.NaN()

	level := values[0]
	trend := values[1] - values[0]
	sse := 0.0
	for t := 1; t < n; t++ {
		pred := level + trend
		fitted[t] = pred
		if t >= 2 {
			e := values[t] - pred
			sse += e * e
		}
		prevLevel := level
		level = alpha*values[t] + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
	}
	return holtState{level: level, trend: trend, sse: sse, fitted: fitted}
}

// Forecast fits alpha and beta by minimising one-step squared error.
func (f *HoltForecaster) Forecast(ctx context.Context, values []float64, config ForecastConfig) (*ForecastResult, error) {
	if err := config.validateHorizon(); err != nil {
		return nil, err
	}
	if len(values) < 3 {
		return nil, fmt.Errorf("%w: holt needs at least 3 observations, have %d", analytics.ErrInsufficientData, len(values))
	}

	alphas := candidates(config.Alpha)
	betas := candidates(config.Beta)

	best := holtState{sse: math.Inf(1)}
	bestAlpha, bestBeta := alphas[0], betas[0]
	for _, a := range alphas {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", analytics.ErrModelFit, err)
		}
		for _, b := range betas {
			st := runHolt(values, a, b)
			if st.sse < best.sse {
				best, bestAlpha, bestBeta = st, a, b
			}
		}
	}
	if math.IsInf(best.sse, 1) || math.IsNaN(best.sse) {
		return nil, fmt.Errorf("%w: holt smoothing diverged", analytics.ErrModelFit)
	}

	sigma := residualStdError(values, best.fitted)
	preds := make([]float64, config.Horizon)
	lower := make([]float64, config.Horizon)
	upper := make([]float64, config.Horizon)
	for i := range preds {
		h := float64(i + 1)
		preds[i] = best.level + h*best.trend
		// Holt variance multiplier: 1 + sum_{j<h} alpha^2 (1 + j beta)^2
		mult := 1.0
		for j := 1; j < i+1; j++ {
			c := bestAlpha * (1 + float64(j)*bestBeta)
			mult += c * c
		}
		lower[i], upper[i] = predictionInterval(preds[i], sigma*math.Sqrt(mult), config.Confidence)
	}

	res := &ForecastResult{
		Predictions: preds,
		LowerBound:  lower,
		UpperBound:  upper,
		Fitted:      best.fitted,
		ModelInfo: ModelInfo{
			Algorithm: string(Holt),
			Parameters: map[string]interface{}{
				"alpha": bestAlpha,
				"beta":  bestBeta,
				"level": best.level,
				"trend": best.trend,
			},
		},
	}
	fillModelInfo(&res.ModelInfo, values, best.fitted)
	if err := checkOutput(Holt, res, config.Horizon); err != nil {
		return nil, err
	}
	return res, nil
}

// candidates returns the fixed value when it is a valid smoothing
// parameter, otherwise the search grid.
func candidates(fixed float64) []float64 {
	if fixed > 0 && fixed <= 1 {
		return []float64{fixed}
	}
	return smoothingGrid
}
