package models

import (
	"math"
	"strconv"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// MethodInfo describes one forecasting method
type MethodInfo struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Baseline bool   `json:"baseline"`
	Default  bool   `json:"default"`
}

// MethodListResponse lists the available methods in evaluation order
type MethodListResponse struct {
	Methods []MethodInfo `json:"methods"`
}

// PreviewRow is one raw input row
type PreviewRow struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// SeriesView is the observed series ready for plotting. Points counts the
// observations before any chart downsampling.
type SeriesView struct {
	Name       string    `json:"name,omitempty"`
	Frequency  string    `json:"frequency"`
	Points     int       `json:"points"`
	Timestamps []string  `json:"timestamps"`
	Values     []float64 `json:"values"`
}

// ForecastLine is one labelled forecast line
type ForecastLine struct {
	Method     string                 `json:"method"`
	Label      string                 `json:"label"`
	Timestamps []string               `json:"timestamps"`
	Values     Floats                 `json:"values"`
	LowerBound Floats                 `json:"lower_bound,omitempty"`
	UpperBound Floats                 `json:"upper_bound,omitempty"`
	Algorithm  string                 `json:"algorithm"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	MAE        float64                `json:"mae"`
	RMSE       float64                `json:"rmse"`
	MAPE       float64                `json:"mape"`
}

// TableView is the forecast table: one row per period, one column per method
type TableView struct {
	Columns []string   `json:"columns"`
	Rows    []TableRow `json:"rows"`
}

// TableRow is one forecast period
type TableRow struct {
	Period string `json:"period"`
	Values Floats `json:"values"`
}

// Warning reports a skipped method
type Warning struct {
	Method  string `json:"method"`
	Label   string `json:"label"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ForecastResponse is the chart-ready result of a forecast run
type ForecastResponse struct {
	RunID      string         `json:"run_id"`
	State      string         `json:"state"`
	CacheHit   bool           `json:"cache_hit"`
	DurationMS int64          `json:"duration_ms"`
	Horizon    int            `json:"horizon"`
	Preview    []PreviewRow   `json:"preview"`
	Series     SeriesView     `json:"series"`
	Forecasts  []ForecastLine `json:"forecasts"`
	Table      TableView      `json:"table"`
	Warnings   []Warning      `json:"warnings"`
}

// AnomalyView is a flagged residual
type AnomalyView struct {
	Index  int     `json:"index"`
	Period string  `json:"period"`
	Value  float64 `json:"value"`
	Score  float64 `json:"score"`
	Type   string  `json:"type"`
}

// DecomposeResponse holds the decomposition components. Positions where
// the centred trend is undefined are null.
type DecomposeResponse struct {
	Model            string        `json:"model"`
	Period           int           `json:"period"`
	Timestamps       []string      `json:"timestamps"`
	Observed         Floats        `json:"observed"`
	Trend            Floats        `json:"trend"`
	Seasonal         Floats        `json:"seasonal"`
	Residual         Floats        `json:"residual"`
	SeasonalStrength float64       `json:"seasonal_strength"`
	Anomalies        []AnomalyView `json:"anomalies"`
}

// Floats marshals NaN and infinities as null.
type Floats []float64

// MarshalJSON implements json.Marshaler
func (f Floats) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, 2+len(f)*8)
	buf = append(buf, '[')
	for i, v := range f {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}
