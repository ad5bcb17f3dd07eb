package anomaly

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// IQRDetector flags points outside [Q1 - k*IQR, Q3 + k*IQR]. It is robust
// to the outliers it is looking for, unlike the z-score.
type IQRDetector struct{}

func init() {
	RegisterDetector(&IQRDetector{})
}

// Name returns the algorithm name
func (d *IQRDetector) Name() string {
	return "iqr"
}

// Detect finds anomalies using the IQR fence. Thresholds of 3 or more are
// z-score style and fall back to the usual k = 1.5.
func (d *IQRDetector) Detect(values []float64, config DetectorConfig) []Result {
	vals, idx := finite(values)
	if len(vals) < config.MinDataPoints || len(vals) == 0 {
		return nil
	}

	q1, q3, iqr := CalculateIQR(vals)
	multiplier := config.Threshold
	if multiplier <= 0 || multiplier >= 3 {
		multiplier = 1.5
	}
	bounds := &Range{Min: q1 - multiplier*iqr, Max: q3 + multiplier*iqr}

	var results []Result
	for j, v := range vals {
		if v >= bounds.Min && v <= bounds.Max {
			continue
		}
		score := 1.0
		if iqr > 0 {
			if v < bounds.Min {
				score = (bounds.Min - v) / iqr
			} else {
				score = (v - bounds.Max) / iqr
			}
		}
		results = append(results, Result{
			Index:    idx[j],
			Value:    v,
			Score:    score,
			Type:     classify(v, bounds),
			Expected: bounds,
		})
	}
	return results
}

// CalculateIQR returns Q1, Q3, and IQR for a slice of values
func CalculateIQR(values []float64) (q1, q3, iqr float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 = stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q3 = stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	return q1, q3, q3 - q1
}
