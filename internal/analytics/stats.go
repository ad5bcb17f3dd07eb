package analytics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// KPSSCritical5 is the 5% critical value of the level-stationarity KPSS test.
const KPSSCritical5 = 0.463

// Diff returns the first difference y[t] - y[t-1].
func Diff(values []float64) []float64 {
	return SeasonalDiff(values, 1)
}

// SeasonalDiff returns y[t] - y[t-lag]. The result is empty when the
// series is not longer than lag.
func SeasonalDiff(values []float64, lag int) []float64 {
	if lag <= 0 || len(values) <= lag {
		return []float64{}
	}
	out := make([]float64, len(values)-lag)
	for i := lag; i < len(values); i++ {
		out[i-lag] = values[i] - values[i-lag]
	}
	return out
}

// ACF returns the sample autocorrelation for lags 0..maxLag. It returns nil
// for constant or empty input.
func ACF(values []float64, maxLag int) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := stat.Mean(values, nil)
	centered := make([]float64, n)
	copy(centered, values)
	floats.AddConst(-mean, centered)

	denom := floats.Dot(centered, centered)
	if denom == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		acf[k] = floats.Dot(centered[k:], centered[:n-k]) / denom
	}
	return acf
}

// KPSS returns the level-stationarity KPSS statistic with a Bartlett
// long-run variance estimate. Larger values are evidence of a unit root.
func KPSS(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	lags := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	if lags >= n {
		lags = n - 1
	}

	resid := make([]float64, n)
	copy(resid, values)
	floats.AddConst(-stat.Mean(values, nil), resid)

	partial := make([]float64, n)
	floats.CumSum(partial, resid)

	s2 := floats.Dot(resid, resid) / float64(n)
	for l := 1; l <= lags; l++ {
		cov := floats.Dot(resid[l:], resid[:n-l]) / float64(n)
		s2 += 2 * (1 - float64(l)/float64(lags+1)) * cov
	}
	if s2 <= 0 {
		s2 = 1e-10
	}

	return floats.Dot(partial, partial) / (float64(n) * float64(n) * s2)
}

// IsLevelStationary reports whether KPSS fails to reject stationarity at 5%.
func IsLevelStationary(values []float64) bool {
	return KPSS(values) <= KPSSCritical5
}

// AllFinite reports whether every value is a real number.
func AllFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
