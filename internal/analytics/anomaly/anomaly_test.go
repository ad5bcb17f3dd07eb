package anomaly

import (
	"math"
	"testing"
)

func TestZScoreDetector_DetectSpike(t *testing.T) {
	detector := &ZScoreDetector{}
	config := DefaultConfig()
	config.MinDataPoints = 5
	config.Threshold = 2.0

	values := []float64{10, 10, 10, 10, 10, 10, 100, 10, 10, 10}
	results := detector.Detect(values, config)

	if len(results) != 1 {
		t.Fatalf("Expected exactly one anomaly, got %d", len(results))
	}
	if results[0].Index != 6 || results[0].Type != AnomalyTypeSpike {
		t.Errorf("Expected spike at index 6, got %+v", results[0])
	}
}

func TestZScoreDetector_DetectDrop(t *testing.T) {
	config := DefaultConfig()
	config.MinDataPoints = 5
	config.Threshold = 2.0

	values := []float64{50, 50, 50, 50, 50, 50, 0, 50, 50, 50}
	results := (&ZScoreDetector{}).Detect(values, config)

	if len(results) != 1 || results[0].Type != AnomalyTypeDrop {
		t.Fatalf("Expected one drop, got %+v", results)
	}
}

func TestZScoreDetector_SkipsNaN(t *testing.T) {
	config := DefaultConfig()
	config.MinDataPoints = 5
	config.Threshold = 2.0

	nan := math.NaN()
	values := []float64{nan, nan, 10, 10, 10, 10, 10, 10, 90, 10, 10, nan}
	results := (&ZScoreDetector{}).Detect(values, config)

	if len(results) != 1 || results[0].Index != 8 {
		t.Fatalf("Expected the spike at original index 8, got %+v", results)
	}
}

func TestZScoreDetector_Flatline(t *testing.T) {
	config := DefaultConfig()
	config.MinDataPoints = 3

	results := (&ZScoreDetector{}).Detect([]float64{4, 4, 4, 4}, config)
	if len(results) != 4 {
		t.Fatalf("Expected every point flagged as flatline, got %d", len(results))
	}
	for _, r := range results {
		if r.Type != AnomalyTypeFlatline {
			t.Errorf("Expected flatline, got %s", r.Type)
		}
	}
}

func TestIQRDetector_Detect(t *testing.T) {
	config := DefaultConfig()
	config.MinDataPoints = 5
	config.Threshold = 1.5

	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 50}
	results := (&IQRDetector{}).Detect(values, config)

	if len(results) != 1 || results[0].Index != 9 {
		t.Fatalf("Expected outlier at index 9, got %+v", results)
	}
	if results[0].Expected == nil || results[0].Expected.Max >= 50 {
		t.Errorf("Expected upper fence below 50, got %+v", results[0].Expected)
	}
}

func TestDetectors_MinDataPoints(t *testing.T) {
	config := DefaultConfig()
	for _, name := range ListDetectors() {
		res, err := Detect(name, []float64{1, 100, 1}, config)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if res != nil {
			t.Errorf("%s: expected nil below MinDataPoints, got %v", name, res)
		}
	}
}

func TestCalculateIQR(t *testing.T) {
	q1, q3, iqr := CalculateIQR([]float64{4, 1, 3, 2})
	if q3 < q1 || math.Abs(iqr-(q3-q1)) > 1e-12 {
		t.Errorf("Inconsistent quartiles: q1=%v q3=%v iqr=%v", q1, q3, iqr)
	}
	if _, _, iqr := CalculateIQR(nil); iqr != 0 {
		t.Errorf("Empty input should yield zero IQR")
	}
}

func TestRegistry(t *testing.T) {
	names := ListDetectors()
	if len(names) != 2 || names[0] != "iqr" || names[1] != "zscore" {
		t.Errorf("Unexpected detectors: %v", names)
	}
	if _, err := GetDetector("prophet"); err == nil {
		t.Error("Expected error for unknown detector")
	}
}
