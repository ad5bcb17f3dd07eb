// Package decompose splits a series into trend, seasonal and residual
// components using classical moving-average decomposition.
package decompose

import (
	"fmt"
	"math"

	"github.com/seriesdash/seriesdash/internal/analytics"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Model selects how the components combine.
type Model string

const (
	Additive       Model = "additive"       // y = T + S + R
	Multiplicative Model = "multiplicative" // y = T * S * R
)

// ParseModel accepts "additive" (the default for "") and "multiplicative".
func ParseModel(s string) (Model, error) {
	switch Model(s) {
	case "", Additive:
		return Additive, nil
	case Multiplicative:
		return Multiplicative, nil
	}
	return "", fmt.Errorf("%w: unknown decomposition model %q", analytics.ErrInvalidParameter, s)
}

// Result holds the components. Trend and Residual are NaN for the first
// and last period/2 positions where the centred average is undefined.
type Result struct {
	Model    Model     `json:"model"`
	Period   int       `json:"period"`
	Observed []float64 `json:"observed"`
	Trend    []float64 `json:"trend"`
	Seasonal []float64 `json:"seasonal"`
	Residual []float64 `json:"residual"`
}

// Decompose runs the classical decomposition. It needs at least two full
// cycles; multiplicative models also need strictly positive values.
func Decompose(values []float64, period int, model Model) (*Result, error) {
	n := len(values)
	if period < 2 {
		return nil, fmt.Errorf("%w: period must be at least 2, got %d", analytics.ErrInvalidParameter, period)
	}
	if n < 2*period {
		return nil, fmt.Errorf("%w: decomposition with period %d needs at least %d observations, have %d",
			analytics.ErrInvalidParameter, period, 2*period, n)
	}
	if model == Multiplicative && floats.Min(values) <= 0 {
		return nil, fmt.Errorf("%w: multiplicative decomposition needs positive values", analytics.ErrInvalidParameter)
	}

	res := &Result{
		Model:    model,
		Period:   period,
		Observed: append([]float64(nil), values...),
		Trend:    centredMovingAverage(values, period),
		Seasonal: make([]float64, n),
		Residual: make([]float64, n),
	}

	detrended := make([]float64, n)
	for i := range values {
		if model == Multiplicative {
			detrended[i] = values[i] / res.Trend[i]
		} else {
			detrended[i] = values[i] - res.Trend[i]
		}
	}

	pattern := seasonalPattern(detrended, period, model)
	for i := range values {
		res.Seasonal[i] = pattern[i%period]
		if model == Multiplicative {
			res.Residual[i] = values[i] / (res.Trend[i] * res.Seasonal[i])
		} else {
			res.Residual[i] = values[i] - res.Trend[i] - res.Seasonal[i]
		}
	}
	return res, nil
}

// DecomposeAdditive is Decompose with the additive model.
func DecomposeAdditive(values []float64, period int) (*Result, error) {
	return Decompose(values, period, Additive)
}

// centredMovingAverage uses a plain window for odd periods and a 2xm
// average (half weights at both ends) for even periods.
func centredMovingAverage(values []float64, period int) []float64 {
	n := len(values)
	out := make([]float64, n)
	half := period / 2
	for i := range out {
		if i < half || i+half >= n {
			out[i] = math.NaN()
			continue
		}
		if period%2 == 1 {
			out[i] = stat.Mean(values[i-half:i+half+1], nil)
			continue
		}
		sum := 0.5*values[i-half] + 0.5*values[i+half]
		sum += floats.Sum(values[i-half+1 : i+half])
		out[i] = sum / float64(period)
	}
	return out
}

// seasonalPattern averages each position of the cycle over the defined
// detrended values, then centres the pattern (zero sum or unit mean).
func seasonalPattern(detrended []float64, period int, model Model) []float64 {
	pattern := make([]float64, period)
	for pos := 0; pos < period; pos++ {
		var vals []float64
		for i := pos; i < len(detrended); i += period {
			if !math.IsNaN(detrended[i]) {
				vals = append(vals, detrended[i])
			}
		}
		if len(vals) > 0 {
			pattern[pos] = stat.Mean(vals, nil)
		}
	}

	m := stat.Mean(pattern, nil)
	for i := range pattern {
		if model == Multiplicative {
			pattern[i] /= m
		} else {
			pattern[i] -= m
		}
	}
	return pattern
}

// Strength measures how much of the detrended variance the seasonal
// component explains, in [0, 1].
func (r *Result) Strength() float64 {
	var s, rs []float64
	for i := range r.Residual {
		if math.IsNaN(r.Residual[i]) {
			continue
		}
		s = append(s, r.Seasonal[i]+r.Residual[i])
		rs = append(rs, r.Residual[i])
	}
	if len(s) < 2 {
		return 0
	}
	total := stat.Variance(s, nil)
	if total == 0 {
		return 0
	}
	return math.Max(0, 1-stat.Variance(rs, nil)/total)
}
