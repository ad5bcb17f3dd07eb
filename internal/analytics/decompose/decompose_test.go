package decompose

import (
	"errors"
	"math"
	"testing"

	"github.com/seriesdash/seriesdash/internal/analytics"
)

func seasonalSeries(n, period int) []float64 {
	pattern := []float64{3, -1, 4, -2, 0, -4}
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 0.5*float64(i) + pattern[i%period]
	}
	return out
}

func TestAdditive_RecoversComponents(t *testing.T) {
	values := seasonalSeries(36, 6)
	res, err := DecomposeAdditive(values, 6)
	if err != nil {
		t.Fatalf("Additive failed: %v", err)
	}

	// NaN edges of period/2 on each side
	for _, i := range []int{0, 1, 2, 33, 34, 35} {
		if !math.IsNaN(res.Trend[i]) || !math.IsNaN(res.Residual[i]) {
			t.Errorf("Expected NaN trend and residual at %d", i)
		}
	}
	for i := 3; i < 33; i++ {
		want := 100 + 0.5*float64(i)
		if math.Abs(res.Trend[i]-want) > 1e-9 {
			t.Errorf("Trend[%d] = %v, want %v", i, res.Trend[i], want)
		}
		if math.Abs(res.Residual[i]) > 1e-9 {
			t.Errorf("Residual[%d] = %v, want 0", i, res.Residual[i])
		}
	}
	pattern := []float64{3, -1, 4, -2, 0, -4}
	for i := 0; i < 6; i++ {
		if math.Abs(res.Seasonal[i]-pattern[i]) > 1e-9 {
			t.Errorf("Seasonal[%d] = %v, want %v", i, res.Seasonal[i], pattern[i])
		}
	}
	if s := res.Strength(); s < 0.99 {
		t.Errorf("Expected strong seasonality, got %v", s)
	}
}

func TestAdditive_Reconstruction(t *testing.T) {
	values := seasonalSeries(30, 5)
	for i := range values {
		values[i] += math.Sin(float64(i) * 2.1)
	}
	res, err := DecomposeAdditive(values, 5)
	if err != nil {
		t.Fatalf("Additive failed: %v", err)
	}
	for i := range values {
		if math.IsNaN(res.Trend[i]) {
			continue
		}
		sum := res.Trend[i] + res.Seasonal[i] + res.Residual[i]
		if math.Abs(sum-values[i]) > 1e-9 {
			t.Errorf("Components at %d sum to %v, observed %v", i, sum, values[i])
		}
	}
}

func TestMultiplicative(t *testing.T) {
	values := make([]float64, 48)
	factors := []float64{1.2, 0.8, 1.1, 0.9}
	for i := range values {
		values[i] = 50 * factors[i%4]
	}
	res, err := Decompose(values, 4, Multiplicative)
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}
	for i := 0; i < 4; i++ {
		if math.Abs(res.Seasonal[i]-factors[i]) > 1e-9 {
			t.Errorf("Seasonal[%d] = %v, want %v", i, res.Seasonal[i], factors[i])
		}
	}

	values[3] = -1
	if _, err := Decompose(values, 4, Multiplicative); !errors.Is(err, analytics.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for non-positive values, got %v", err)
	}
}

func TestDecompose_Errors(t *testing.T) {
	if _, err := DecomposeAdditive(seasonalSeries(23, 6), 12); !errors.Is(err, analytics.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for short series, got %v", err)
	}
	if _, err := DecomposeAdditive(seasonalSeries(30, 6), 1); !errors.Is(err, analytics.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for period 1, got %v", err)
	}
	if _, err := ParseModel("stl"); err == nil {
		t.Error("Expected error for unknown model")
	}
	if m, _ := ParseModel(""); m != Additive {
		t.Errorf("Empty model should default to additive, got %s", m)
	}
}
