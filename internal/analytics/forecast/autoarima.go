package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/seriesdash/seriesdash/internal/analytics"
)

// Stepwise search limits.
const (
	autoMaxP  = 3
	autoMaxQ  = 3
	autoMaxSP = 1
	autoMaxSQ = 1
	autoMaxD  = 2

	seasonalACFThreshold = 0.5
)

// ARIMAForecaster selects a (seasonal) ARIMA order automatically by a
// stepwise AIC search. d is chosen with the KPSS test and the seasonal
// difference from the autocorrelation at the seasonal lag.
type ARIMAForecaster struct{}

// NewARIMAForecaster creates a new automatic ARIMA forecaster
func NewARIMAForecaster() *ARIMAForecaster {
	return &ARIMAForecaster{}
}

func init() {
	RegisterForecaster(NewARIMAForecaster())
}

// Name returns the method identifier
func (f *ARIMAForecaster) Name() Method {
	return ARIMA
}

// Forecast searches for the lowest-AIC order and forecasts with it.
func (f *ARIMAForecaster) Forecast(ctx context.Context, values []float64, config ForecastConfig) (*ForecastResult, error) {
	if err := config.validateHorizon(); err != nil {
		return nil, err
	}
	if len(values) < 20 {
		return nil, fmt.Errorf("%w: arima needs at least 20 observations, have %d", analytics.ErrInsufficientData, len(values))
	}

	model, err := selectOrder(ctx, values, config.SeasonalPeriod)
	if err != nil {
		return nil, err
	}

	res := model.result(config.Horizon, config.Confidence)
	res.ModelInfo.Algorithm = string(ARIMA)
	if err := checkOutput(ARIMA, res, config.Horizon); err != nil {
		return nil, err
	}
	return res, nil
}

// chooseDifferencing returns the non-seasonal and seasonal differencing
// orders for values.
func chooseDifferencing(values []float64, period int) (d, sd int) {
	x := values
	if period >= 2 && len(x) >= 2*period {
		acf := analytics.ACF(x, period)
		if acf != nil && len(acf) > period && math.Abs(acf[period]) > seasonalACFThreshold {
			sd = 1
			x = analytics.SeasonalDiff(x, period)
		}
	}
	for d < autoMaxD && len(x) > 10 && !analytics.IsLevelStationary(x) {
		x = analytics.Diff(x)
		d++
	}
	return d, sd
}

// selectOrder runs the stepwise search. Starting from a handful of
// standard orders, it moves one step at a time in p, q, P or Q while the
// AIC improves.
func selectOrder(ctx context.Context, values []float64, period int) (*sarimaModel, error) {
	d, sd := chooseDifferencing(values, period)
	seasonal := period >= 2 && len(values) >= 2*period

	m := 0
	if seasonal {
		m = period
	}

	mk := func(p, q, sp, sq int) SARIMAOrder {
		o := SARIMAOrder{P: p, D: d, Q: q, SP: sp, SD: sd, SQ: sq, M: m}
		if !seasonal {
			o.SP, o.SD, o.SQ, o.M = 0, 0, 0, 0
		}
		return o
	}

	tried := make(map[SARIMAOrder]bool)
	var best *sarimaModel
	var lastErr error

	try := func(o SARIMAOrder) error {
		if tried[o] {
			return nil
		}
		tried[o] = true
		if o.P > autoMaxP || o.Q > autoMaxQ || o.SP > autoMaxSP || o.SQ > autoMaxSQ {
			return nil
		}
		if o.P < 0 || o.Q < 0 || o.SP < 0 || o.SQ < 0 {
			return nil
		}
		if len(values) < o.minObservations() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", analytics.ErrModelFit, err)
		}
		model := newSARIMAModel(o)
		if err := model.fit(ctx, values); err != nil {
			if ctx.Err() != nil {
				return err
			}
			lastErr = err
			return nil
		}
		if math.IsNaN(model.aic) || math.IsInf(model.aic, 0) {
			return nil
		}
		if best == nil || model.aic < best.aic {
			best = model
		}
		return nil
	}

	starts := []SARIMAOrder{mk(0, 0, 0, 0), mk(1, 0, 1, 0), mk(0, 1, 0, 1), mk(1, 1, 1, 1), mk(2, 2, 1, 1)}
	for _, o := range starts {
		if err := try(o); err != nil {
			return nil, err
		}
	}
	if best == nil {
		if lastErr != nil && !errors.Is(lastErr, analytics.ErrInvalidParameter) {
			return nil, fmt.Errorf("%w: no candidate order could be fitted: %v", analytics.ErrModelFit, lastErr)
		}
		return nil, fmt.Errorf("%w: no candidate order could be fitted", analytics.ErrModelFit)
	}

	for improved := true; improved; {
		improved = false
		cur := best.order
		neighbours := []SARIMAOrder{
			mk(cur.P+1, cur.Q, cur.SP, cur.SQ), mk(cur.P-1, cur.Q, cur.SP, cur.SQ),
			mk(cur.P, cur.Q+1, cur.SP, cur.SQ), mk(cur.P, cur.Q-1, cur.SP, cur.SQ),
			mk(cur.P+1, cur.Q+1, cur.SP, cur.SQ), mk(cur.P-1, cur.Q-1, cur.SP, cur.SQ),
			mk(cur.P, cur.Q, cur.SP+1, cur.SQ), mk(cur.P, cur.Q, cur.SP-1, cur.SQ),
			mk(cur.P, cur.Q, cur.SP, cur.SQ+1), mk(cur.P, cur.Q, cur.SP, cur.SQ-1),
		}
		for _, o := range neighbours {
			if err := try(o); err != nil {
				return nil, err
			}
		}
		if best.order != cur {
			improved = true
		}
	}
	return best, nil
}
