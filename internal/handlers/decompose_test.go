package handlers

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/seriesdash/seriesdash/internal/models"
	"github.com/seriesdash/seriesdash/internal/services"
)

func seasonalCSV(n, period int, spikeAt int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		v := 100 + 0.5*float64(i) + 10*math.Sin(2*math.Pi*float64(i%period)/float64(period))
		if i == spikeAt {
			v += 80
		}
		fmt.Fprintf(&b, "%.4f\n", v)
	}
	return b.String()
}

func TestHandler_Decompose(t *testing.T) {
	app := createTestApp(t, createTestHandler(t))

	req := multipartRequest(t, "/v1/decompose", seasonalCSV(48, 12, 30), map[string]string{
		"start_date":      "2020-01-01",
		"seasonal_period": "12",
	})
	resp, body := doRequest(t, app, req)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}

	// NaN trend edges are encoded as null, so decode into pointers
	var out struct {
		models.DecomposeResponse
		Trend []*float64 `json:"trend"`
	}
	decodeJSON(t, body, &out)

	if out.Model != "additive" || out.Period != 12 {
		t.Errorf("Unexpected header: model=%s period=%d", out.Model, out.Period)
	}
	if len(out.Timestamps) != 48 || len(out.Trend) != 48 || len(out.Seasonal) != 48 {
		t.Fatalf("Component lengths should match the series")
	}
	if out.Trend[0] != nil || out.Trend[24] == nil {
		t.Errorf("Expected null trend at the edge and a value in the middle")
	}
	found := false
	for _, a := range out.Anomalies {
		if a.Index == 30 {
			found = true
			if a.Period != out.Timestamps[30] {
				t.Errorf("Anomaly period %s does not match timestamp %s", a.Period, out.Timestamps[30])
			}
		}
	}
	if !found {
		t.Errorf("Expected the spike at index 30 to be flagged, got %+v", out.Anomalies)
	}
}

// The spike in the fixture above inflates the residual variance, so
// strength is checked on a clean cycle.
func TestHandler_Decompose_SeasonalStrength(t *testing.T) {
	app := createTestApp(t, createTestHandler(t))

	req := multipartRequest(t, "/v1/decompose", seasonalCSV(48, 12, -1), map[string]string{
		"seasonal_period": "12",
	})
	resp, body := doRequest(t, app, req)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}

	var out struct {
		SeasonalStrength float64 `json:"seasonal_strength"`
	}
	decodeJSON(t, body, &out)
	if out.SeasonalStrength < 0.9 {
		t.Errorf("Expected strong seasonality, got %v", out.SeasonalStrength)
	}
}

func TestHandler_Decompose_Errors(t *testing.T) {
	app := createTestApp(t, createTestHandler(t))

	tests := []struct {
		name   string
		csv    string
		fields map[string]string
		status int
		code   string
	}{
		{"no data", "", nil, fiber.StatusBadRequest, services.CodeDataLoad},
		{"unknown model", seasonalCSV(48, 12, -1), map[string]string{"model": "log"}, fiber.StatusBadRequest, services.CodeInvalidParameter},
		{"too short", seasonalCSV(20, 12, -1), map[string]string{"seasonal_period": "12"}, fiber.StatusBadRequest, services.CodeInvalidParameter},
		{"bad date", seasonalCSV(48, 12, -1), map[string]string{"start_date": "yesterday"}, fiber.StatusBadRequest, services.CodeInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, app, multipartRequest(t, "/v1/decompose", tt.csv, tt.fields))
			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, resp.StatusCode, body)
			}
			var errResp models.ErrorResponse
			decodeJSON(t, body, &errResp)
			if errResp.Error.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, errResp.Error.Code)
			}
		})
	}
}
