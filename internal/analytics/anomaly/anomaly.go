package anomaly

import (
	"fmt"
	"math"
	"sort"
)

// AnomalyType represents the type of anomaly detected
type AnomalyType string

const (
	AnomalyTypeSpike    AnomalyType = "spike"    // Above the expected range
	AnomalyTypeDrop     AnomalyType = "drop"     // Below the expected range
	AnomalyTypeFlatline AnomalyType = "flatline" // No variation at all
)

// Range represents expected value range
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DetectorConfig holds configuration for anomaly detection
type DetectorConfig struct {
	// Threshold is the number of standard deviations for zscore and the
	// IQR multiplier for iqr.
	Threshold float64

	// MinDataPoints minimum number of finite values required for detection
	MinDataPoints int
}

// DefaultConfig returns default detector configuration
func DefaultConfig() DetectorConfig {
	return DetectorConfig{
		Threshold:     3.0,
		MinDataPoints: 10,
	}
}

// Detector flags unusual values in a series. NaN entries (such as the
// undefined edges of a decomposition residual) are ignored.
type Detector interface {
	Name() string
	Detect(values []float64, config DetectorConfig) []Result
}

// Result describes one flagged value.
type Result struct {
	Index    int         `json:"index"`
	Value    float64     `json:"value"`
	Score    float64     `json:"score"` // higher = more abnormal
	Type     AnomalyType `json:"type"`
	Expected *Range      `json:"expected,omitempty"`
}

var detectorRegistry = make(map[string]Detector)

// RegisterDetector adds a detector to the registry
func RegisterDetector(d Detector) {
	detectorRegistry[d.Name()] = d
}

// GetDetector returns a detector by name
func GetDetector(name string) (Detector, error) {
	if d, ok := detectorRegistry[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("unknown anomaly detector: %s", name)
}

// ListDetectors returns the registered detector names, sorted.
func ListDetectors() []string {
	names := make([]string, 0, len(detectorRegistry))
	for name := range detectorRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect runs the named detector.
func Detect(name string, values []float64, config DetectorConfig) ([]Result, error) {
	d, err := GetDetector(name)
	if err != nil {
		return nil, err
	}
	return d.Detect(values, config), nil
}

// finite returns the non-NaN values and their original indices.
func finite(values []float64) ([]float64, []int) {
	out := make([]float64, 0, len(values))
	idx := make([]int, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
		idx = append(idx, i)
	}
	return out, idx
}

func classify(v float64, bounds *Range) AnomalyType {
	if v > bounds.Max {
		return AnomalyTypeSpike
	}
	return AnomalyTypeDrop
}
