package forecast

import (
	"context"
	"fmt"
	"math"

	"github.com/seriesdash/seriesdash/internal/analytics"
	"gonum.org/v1/gonum/stat"
)

// HoltWintersForecaster implements seasonal exponential smoothing: a level
// plus an additive seasonal component, with no trend term.
type HoltWintersForecaster struct{}

// NewHoltWintersForecaster creates a new Holt-Winters forecaster
func NewHoltWintersForecaster() *HoltWintersForecaster {
	return &HoltWintersForecaster{}
}

func init() {
	RegisterForecaster(NewHoltWintersForecaster())
}

// Name returns the method identifier
func (f *HoltWintersForecaster) Name() Method {
	return HoltWinters
}

type hwState struct {
	level    float64
	seasonal []float64 // indexed by t % period
	sse      float64
	fitted   []float64
}

// runHoltWinters initialises from the first cycle and filters from
// t = period onwards.
func runHoltWinters(values []float64, period int, alpha, gamma float64) hwState {
	n := len(values)
	first := stat.Mean(values[:period], nil)

	level := first
	seasonal := make([]float64, period)
	for i := 0; i < period; i++ {
		seasonal[i] = values[i] - first
	}

	fitted := make([]float64, n)
	for i := 0; i < period; i++ {
		fitted[i] = math.NaN()
	}

	sse := 0.0
	for t := period; t < n; t++ {
		idx := t % period
		pred := level + seasonal[idx]
		fitted[t] = pred
		e := values[t] - pred
		sse += e * e

		level = alpha*(values[t]-seasonal[idx]) + (1-alpha)*level
		seasonal[idx] = gamma*(values[t]-level) + (1-gamma)*seasonal[idx]
	}
	return hwState{level: level, seasonal: seasonal, sse: sse, fitted: fitted}
}

// Forecast requires two full seasonal cycles and picks alpha and gamma by
// grid search on in-sample squared error. Forecasts repeat the last seasonal
// pattern around the final level.
func (f *HoltWintersForecaster) Forecast(ctx context.Context, values []float64, config ForecastConfig) (*ForecastResult, error) {
	if err := config.validateHorizon(); err != nil {
		return nil, err
	}
	period := config.SeasonalPeriod
	if period < 2 {
		return nil, fmt.Errorf("%w: seasonal period must be at least 2, got %d", analytics.ErrInvalidParameter, period)
	}
	n := len(values)
	if n < 2*period {
		return nil, fmt.Errorf("%w: holt_winters with period %d needs at least %d observations (two full cycles), have %d",
			analytics.ErrInvalidParameter, period, 2*period, n)
	}

	alphas := candidates(config.Alpha)
	gammas := candidates(config.Gamma)

	best := hwState{sse: math.Inf(1)}
	var bestAlpha, bestGamma float64
	for _, a := range alphas {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", analytics.ErrModelFit, err)
		}
		for _, g := range gammas {
			st := runHoltWinters(values, period, a, g)
			if st.sse < best.sse {
				best, bestAlpha, bestGamma = st, a, g
			}
		}
	}
	if math.IsInf(best.sse, 1) || math.IsNaN(best.sse) {
		return nil, fmt.Errorf("%w: holt_winters smoothing diverged", analytics.ErrModelFit)
	}

	sigma := residualStdError(values, best.fitted)
	preds := make([]float64, config.Horizon)
	lower := make([]float64, config.Horizon)
	upper := make([]float64, config.Horizon)
	for i := range preds {
		h := i + 1
		preds[i] = best.level + best.seasonal[(n+h-1)%period]
		// Increase uncertainty for further predictions
		se := sigma * math.Sqrt(float64(h))
		lower[i], upper[i] = predictionInterval(preds[i], se, config.Confidence)
	}

	res := &ForecastResult{
		Predictions: preds,
		LowerBound:  lower,
		UpperBound:  upper,
		Fitted:      best.fitted,
		ModelInfo: ModelInfo{
			Algorithm: string(HoltWinters),
			Parameters: map[string]interface{}{
				"alpha":    bestAlpha,
				"gamma":    bestGamma,
				"period":   period,
				"trend":    "none",
				"seasonal": "additive",
			},
		},
	}
	fillModelInfo(&res.ModelInfo, values, best.fitted)
	if err := checkOutput(HoltWinters, res, config.Horizon); err != nil {
		return nil, err
	}
	return res, nil
}
