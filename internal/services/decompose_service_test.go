package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/seriesdash/seriesdash/internal/analytics"
	"github.com/seriesdash/seriesdash/internal/analytics/decompose"
	"github.com/seriesdash/seriesdash/internal/logging"
)

func TestDecomposeService_Decompose(t *testing.T) {
	service := NewDecomposeService(logging.NewNop(), "")

	values := make([]float64, 48)
	for i := range values {
		values[i] = 50 + 0.2*float64(i) + 8*math.Sin(2*math.Pi*float64(i%12)/12)
	}
	values[30] += 40 // one outlier

	out, err := service.Decompose(context.Background(), monthlySeries(values...), DecomposeRequest{Period: 12})
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}
	if out.Model != decompose.Additive {
		t.Errorf("Expected additive default, got %s", out.Model)
	}
	if len(out.Timestamps) != 48 || len(out.Trend) != 48 {
		t.Fatalf("Unexpected lengths: %d timestamps, %d trend", len(out.Timestamps), len(out.Trend))
	}
	if out.Strength <= 0 || out.Strength > 1 {
		t.Errorf("Seasonal strength out of range: %v", out.Strength)
	}

	found := false
	for _, a := range out.Anomalies {
		found = found || a.Index == 30
	}
	if !found {
		t.Errorf("Expected the outlier at index 30 to be flagged, got %+v", out.Anomalies)
	}
}

func TestDecomposeService_Errors(t *testing.T) {
	service := NewDecomposeService(nil, "zscore")
	ctx := context.Background()

	_, err := service.Decompose(ctx, monthlySeries(), DecomposeRequest{Period: 12})
	var serr *ServiceError
	if !errors.As(err, &serr) || serr.Code != CodeNoData {
		t.Errorf("Expected NO_DATA, got %v", err)
	}

	_, err = service.Decompose(ctx, monthlySeries(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), DecomposeRequest{Period: 12})
	if !errors.As(err, &serr) || serr.Code != CodeInvalidParameter {
		t.Errorf("Expected INVALID_PARAMETER for fewer than two cycles, got %v", err)
	}
	if !errors.Is(err, analytics.ErrInvalidParameter) {
		t.Error("Expected the analytics sentinel to be reachable")
	}
}

func TestDecomposeService_UnknownDetector(t *testing.T) {
	service := NewDecomposeService(logging.NewNop(), "isolation_forest")

	values := make([]float64, 24)
	for i := range values {
		values[i] = float64(i % 4)
	}
	out, err := service.Decompose(context.Background(), monthlySeries(values...), DecomposeRequest{Period: 4})
	if err != nil {
		t.Fatalf("Unknown detector must not fail the decomposition: %v", err)
	}
	if out.Anomalies == nil || len(out.Anomalies) != 0 {
		t.Errorf("Expected an empty anomaly list, got %v", out.Anomalies)
	}
}
