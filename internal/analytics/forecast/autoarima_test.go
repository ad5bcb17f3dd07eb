package forecast

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/seriesdash/seriesdash/internal/analytics"
)

func TestARIMAForecaster_Name(t *testing.T) {
	if NewARIMAForecaster().Name() != ARIMA {
		t.Errorf("Expected name 'arima'")
	}
}

func TestChooseDifferencing(t *testing.T) {
	trend := generateLinearData(60, 1.5, 3)
	for i := range trend {
		trend[i] += 0.5 * math.Sin(float64(i)*1.7)
	}
	d, sd := chooseDifferencing(trend, 0)
	if d < 1 {
		t.Errorf("Trending series should be differenced, got d=%d", d)
	}
	if sd != 0 {
		t.Errorf("No seasonal differencing without a period, got %d", sd)
	}

	seasonal := make([]float64, 72)
	for i := range seasonal {
		seasonal[i] = 50 + 20*math.Sin(2*math.Pi*float64(i%12)/12)
	}
	_, sd = chooseDifferencing(seasonal, 12)
	if sd != 1 {
		t.Errorf("Strong seasonal series should get a seasonal difference, got %d", sd)
	}
}

func TestARIMAForecaster_TrendData(t *testing.T) {
	data := generateLinearData(60, 2, 10)
	for i := range data {
		data[i] += math.Sin(float64(i) * 1.3)
	}
	config := DefaultForecastConfig()
	config.Horizon = 6
	config.SeasonalPeriod = 12

	res, err := NewARIMAForecaster().Forecast(testContext(t), data, config)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	assertFinite(t, "predictions", res.Predictions)
	// Forecasts should continue upward from the last observation
	if res.Predictions[5] <= data[len(data)-1] {
		t.Errorf("Expected upward continuation, last=%v forecast=%v", data[len(data)-1], res.Predictions)
	}
	if _, ok := res.ModelInfo.Parameters["order"]; !ok {
		t.Errorf("Selected order missing from model info")
	}
}

func TestARIMAForecaster_SeasonalData(t *testing.T) {
	data := generateSeasonalTestData(96, 12)
	config := DefaultForecastConfig()
	config.Horizon = 12

	res, err := NewARIMAForecaster().Forecast(testContext(t), data, config)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	if len(res.Predictions) != 12 {
		t.Fatalf("Expected 12 predictions, got %d", len(res.Predictions))
	}
	assertFinite(t, "predictions", res.Predictions)
	for i := range res.Predictions {
		if res.LowerBound[i] > res.UpperBound[i] {
			t.Errorf("Interval %d inverted", i)
		}
	}
}

func TestARIMAForecaster_InsufficientData(t *testing.T) {
	_, err := NewARIMAForecaster().Forecast(testContext(t), generateLinearData(10, 1, 0), DefaultForecastConfig())
	if !errors.Is(err, analytics.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestARIMAForecaster_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewARIMAForecaster().Forecast(ctx, generateSeasonalTestData(60, 12), DefaultForecastConfig())
	if !errors.Is(err, analytics.ErrModelFit) {
		t.Errorf("Expected ErrModelFit on cancelled context, got %v", err)
	}
}
