package anomaly

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ZScoreDetector flags points more than Threshold standard deviations from
// the mean.
type ZScoreDetector struct{}

func init() {
	RegisterDetector(&ZScoreDetector{})
}

// Name returns the algorithm name
func (z *ZScoreDetector) Name() string {
	return "zscore"
}

// Detect finds anomalies using Z-Score method
func (z *ZScoreDetector) Detect(values []float64, config DetectorConfig) []Result {
	vals, idx := finite(values)
	if len(vals) < config.MinDataPoints || len(vals) == 0 {
		return nil
	}

	mean, stdDev := stat.PopMeanStdDev(vals, nil)
	if stdDev == 0 {
		return flatline(vals, idx)
	}

	bounds := &Range{
		Min: mean - config.Threshold*stdDev,
		Max: mean + config.Threshold*stdDev,
	}

	var results []Result
	for j, v := range vals {
		score := CalculateZScore(v, mean, stdDev)
		if math.Abs(score) <= config.Threshold {
			continue
		}
		results = append(results, Result{
			Index:    idx[j],
			Value:    v,
			Score:    math.Abs(score),
			Type:     classify(v, bounds),
			Expected: bounds,
		})
	}
	return results
}

// flatline reports every point of a constant series.
func flatline(vals []float64, idx []int) []Result {
	results := make([]Result, len(vals))
	for j, v := range vals {
		results[j] = Result{Index: idx[j], Value: v, Score: 1.0, Type: AnomalyTypeFlatline}
	}
	return results
}

// CalculateZScore calculates Z-Score for a single value given mean and stdDev
func CalculateZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}
