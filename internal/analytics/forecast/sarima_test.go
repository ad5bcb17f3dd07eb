package forecast

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/seriesdash/seriesdash/internal/analytics"
)

func TestSARIMAXForecaster_Name(t *testing.T) {
	if NewSARIMAXForecaster().Name() != SARIMAX {
		t.Errorf("Expected name 'sarimax'")
	}
}

func TestSARIMAXForecaster_DefaultOrder(t *testing.T) {
	data := generateSeasonalTestData(96, 12)
	config := DefaultForecastConfig()
	config.Horizon = 24

	res, err := NewSARIMAXForecaster().Forecast(testContext(t), data, config)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	if len(res.Predictions) != 24 {
		t.Fatalf("Expected 24 predictions, got %d", len(res.Predictions))
	}
	assertFinite(t, "predictions", res.Predictions)
	if res.ModelInfo.Parameters["order"] != "(2,0,0)x(1,1,1,12)" {
		t.Errorf("Unexpected order in model info: %v", res.ModelInfo.Parameters["order"])
	}

	// Forecasts should stay in the neighbourhood of the last cycle
	last := data[len(data)-12:]
	for i := 0; i < 12; i++ {
		if math.Abs(res.Predictions[i]-last[i]) > 25 {
			t.Errorf("Prediction %d (%v) far from last cycle value %v", i, res.Predictions[i], last[i])
		}
	}
}

func TestSARIMAXForecaster_TooShort(t *testing.T) {
	config := DefaultForecastConfig()
	_, err := NewSARIMAXForecaster().Forecast(testContext(t), generateSeasonalTestData(40, 12), config)
	if !errors.Is(err, analytics.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for a short series, got %v", err)
	}
}

func TestSARIMAXForecaster_SeasonalPeriodFillsOrder(t *testing.T) {
	data := generateSeasonalTestData(60, 4)
	config := DefaultForecastConfig()
	config.Horizon = 4
	config.SeasonalPeriod = 4
	config.Order = SARIMAOrder{P: 1, SP: 1, SD: 1}

	res, err := NewSARIMAXForecaster().Forecast(testContext(t), data, config)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	if res.ModelInfo.Parameters["order"] != "(1,0,0)x(1,1,0,4)" {
		t.Errorf("Seasonal period not applied: %v", res.ModelInfo.Parameters["order"])
	}
}

func TestSARIMAXForecaster_DifferencedOrderHasNoDrift(t *testing.T) {
	// A one-off level shift leaves the seasonal differences with a positive
	// mean. Without a constant the forecast repeats the last cycle.
	period := 4
	pattern := []float64{1, 5, 2, 8}
	data := make([]float64, 40)
	for i := range data {
		data[i] = pattern[i%period]
		if i >= 20 {
			data[i] += 10
		}
	}
	config := DefaultForecastConfig()
	config.Horizon = 12
	config.Order = SARIMAOrder{SD: 1, M: period}

	res, err := NewSARIMAXForecaster().Forecast(testContext(t), data, config)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	if res.ModelInfo.Parameters["intercept"] != 0.0 {
		t.Errorf("Expected no constant, got intercept %v", res.ModelInfo.Parameters["intercept"])
	}
	last := data[len(data)-period:]
	for i, p := range res.Predictions {
		if math.Abs(p-last[i%period]) > 1e-9 {
			t.Errorf("Prediction %d: expected %v, got %v", i, last[i%period], p)
		}
	}
}

func TestSARIMAModel_ConstantKeptForAutoSearch(t *testing.T) {
	m := newSARIMAModel(SARIMAOrder{D: 1})
	if err := m.fit(context.Background(), generateLinearData(40, 3, 1)); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if math.Abs(m.intercept-3) > 1e-9 {
		t.Errorf("Expected the mean difference 3 as intercept, got %v", m.intercept)
	}
}

func TestSARIMAModel_IntegrateUndoesDifferencing(t *testing.T) {
	// A pure line has a constant first difference; integrating that constant
	// must extend the line.
	data := generateLinearData(40, 3, 1)
	m := newSARIMAModel(SARIMAOrder{D: 1})
	if err := m.fit(context.Background(), data); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	got := m.integrate([]float64{3, 3, 3})
	want := []float64{121, 124, 127}
	if !equalSlices(got, want, 1e-9) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestSARIMAModel_SeasonalIntegrate(t *testing.T) {
	period := 4
	data := make([]float64, 40)
	pattern := []float64{1, 5, 2, 8}
	for i := range data {
		data[i] = pattern[i%period] + float64(i/period)
	}
	m := newSARIMAModel(SARIMAOrder{SD: 1, M: period})
	if err := m.fit(context.Background(), data); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	// Seasonal differences are all 1, so the next cycle is the last plus 1
	got := m.integrate([]float64{1, 1, 1, 1})
	want := []float64{11, 15, 12, 18}
	if !equalSlices(got, want, 1e-9) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestSARIMAModel_InformationCriteriaFinite(t *testing.T) {
	// A constant differenced series has zero residual variance
	m := newSARIMAModel(SARIMAOrder{D: 1})
	if err := m.fit(context.Background(), generateLinearData(40, 2, 0)); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if math.IsNaN(m.aic) || math.IsInf(m.aic, 0) {
		t.Errorf("AIC should be finite, got %v", m.aic)
	}
}

func TestSARIMAModel_FittedValues(t *testing.T) {
	data := generateSeasonalTestData(80, 12)
	m := newSARIMAModel(SARIMAOrder{P: 1, D: 1})
	if err := m.fit(context.Background(), data); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	fitted := m.fittedValues()
	if len(fitted) != len(data) {
		t.Fatalf("Expected %d fitted values, got %d", len(data), len(fitted))
	}
	if !math.IsNaN(fitted[0]) {
		t.Errorf("Position consumed by differencing should be NaN")
	}
	finite := 0
	for _, v := range fitted {
		if !math.IsNaN(v) {
			finite++
		}
	}
	if finite < len(data)-3 {
		t.Errorf("Too few fitted values: %d", finite)
	}
}

func TestSARIMAModel_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := newSARIMAModel(SARIMAOrder{P: 1})
	if err := m.fit(ctx, generateSeasonalTestData(60, 12)); !errors.Is(err, analytics.ErrModelFit) {
		t.Errorf("Expected ErrModelFit on cancelled context, got %v", err)
	}
}

func BenchmarkSARIMAXForecast(b *testing.B) {
	data := generateSeasonalTestData(144, 12)
	config := DefaultForecastConfig()
	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		_, _ = NewSARIMAXForecaster().Forecast(ctx, data, config)
	}
}
