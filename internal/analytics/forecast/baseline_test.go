package forecast

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/seriesdash/seriesdash/internal/analytics"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func equalSlices(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestComputeBaseline(t *testing.T) {
	values := []float64{10, 20, 30}
	tests := []struct {
		method Method
		want   []float64
	}{
		{Naive, []float64{30, 30, 30}},
		{Mean, []float64{20, 20, 20}},
		{Drift, []float64{40, 50, 60}},
	}
	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			got, err := ComputeBaseline(values, 3, tt.method)
			if err != nil {
				t.Fatalf("ComputeBaseline failed: %v", err)
			}
			if !equalSlices(got, tt.want, 1e-9) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestComputeBaseline_SingleObservation(t *testing.T) {
	values := []float64{7}

	naive, err := ComputeBaseline(values, 2, Naive)
	if err != nil || !equalSlices(naive, []float64{7, 7}, 0) {
		t.Errorf("naive on one point: %v, %v", naive, err)
	}
	mean, err := ComputeBaseline(values, 2, Mean)
	if err != nil || !equalSlices(mean, []float64{7, 7}, 0) {
		t.Errorf("mean on one point: %v, %v", mean, err)
	}
	if _, err := ComputeBaseline(values, 2, Drift); !errors.Is(err, analytics.ErrDegenerateSeries) {
		t.Errorf("drift on one point should be degenerate, got %v", err)
	}
}

func TestComputeBaseline_Errors(t *testing.T) {
	if _, err := ComputeBaseline(nil, 3, Naive); !errors.Is(err, analytics.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
	if _, err := ComputeBaseline([]float64{1, 2}, 0, Naive); !errors.Is(err, analytics.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for zero horizon, got %v", err)
	}
	if _, err := ComputeBaseline([]float64{1, 2}, 3, Holt); !errors.Is(err, analytics.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for non-baseline method, got %v", err)
	}
}

func TestComputeBaseline_Invariants(t *testing.T) {
	values := []float64{3, 9, 4, 12, 8, 5, 11}
	reordered := []float64{12, 3, 11, 5, 9, 8, 4}

	a, _ := ComputeBaseline(values, 4, Mean)
	b, _ := ComputeBaseline(reordered, 4, Mean)
	if !equalSlices(a, b, 1e-9) {
		t.Errorf("Mean should not depend on order: %v vs %v", a, b)
	}

	naive, _ := ComputeBaseline(values, 5, Naive)
	for _, v := range naive {
		if v != values[len(values)-1] {
			t.Errorf("Naive should repeat the last value, got %v", naive)
		}
	}

	drift, _ := ComputeBaseline(values, 6, Drift)
	inc := (values[len(values)-1] - values[0]) / float64(len(values)-1)
	prev := values[len(values)-1]
	for i, v := range drift {
		if math.Abs(v-prev-inc) > 1e-9 {
			t.Errorf("Drift step %d: expected increment %v, got %v", i, inc, v-prev)
		}
		prev = v
	}
}

func TestComputeBaseline_DoesNotModifyInput(t *testing.T) {
	values := []float64{1, 5, 2}
	for _, m := range []Method{Naive, Mean, Drift} {
		if _, err := ComputeBaseline(values, 3, m); err != nil {
			t.Fatalf("%s failed: %v", m, err)
		}
	}
	if !equalSlices(values, []float64{1, 5, 2}, 0) {
		t.Errorf("Input modified: %v", values)
	}
}

func TestBaselineForecaster_Intervals(t *testing.T) {
	data := []float64{10, 12, 11, 13, 12, 14, 13, 15}
	config := DefaultForecastConfig()
	config.Horizon = 4

	for _, m := range []Method{Naive, Mean, Drift} {
		f := NewBaselineForecaster(m)
		res, err := f.Forecast(testContext(t), data, config)
		if err != nil {
			t.Fatalf("%s forecast failed: %v", m, err)
		}
		if len(res.Predictions) != 4 || len(res.LowerBound) != 4 || len(res.UpperBound) != 4 {
			t.Fatalf("%s: wrong output lengths", m)
		}
		for i := range res.Predictions {
			if res.LowerBound[i] > res.Predictions[i] || res.UpperBound[i] < res.Predictions[i] {
				t.Errorf("%s: prediction %d outside its interval", m, i)
			}
		}
		if !math.IsNaN(res.Fitted[0]) && m != Mean {
			t.Errorf("%s: first fitted value should be NaN", m)
		}
		if res.ModelInfo.DataPoints != len(data) {
			t.Errorf("%s: expected %d data points, got %d", m, len(data), res.ModelInfo.DataPoints)
		}
	}

	naive, _ := NewBaselineForecaster(Naive).Forecast(testContext(t), data, config)
	if w0, w3 := naive.UpperBound[0]-naive.LowerBound[0], naive.UpperBound[3]-naive.LowerBound[3]; w3 <= w0 {
		t.Errorf("Naive intervals should widen with the horizon: %v then %v", w0, w3)
	}
}

func BenchmarkBaselineDrift(b *testing.B) {
	data := generateLinearData(1000, 0.5, 10)
	for i := 0; i < b.N; i++ {
		_, _ = ComputeBaseline(data, 24, Drift)
	}
}
