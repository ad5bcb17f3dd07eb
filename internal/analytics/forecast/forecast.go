package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/seriesdash/seriesdash/internal/analytics"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Method identifies a forecasting method. The set is closed.
type Method string

const (
	Naive       Method = "naive"
	Mean        Method = "mean"
	Drift       Method = "drift"
	Holt        Method = "holt"
	HoltWinters Method = "holt_winters"
	ARIMA       Method = "arima"
	SARIMAX     Method = "sarimax"
)

// AllMethods lists every method in evaluation order. Results are always
// reported in this order regardless of how the caller listed them.
var AllMethods = []Method{Naive, Mean, Drift, Holt, HoltWinters, ARIMA, SARIMAX}

var methodLabels = map[Method]string{
	Naive:       "Naive",
	Mean:        "Mean",
	Drift:       "Drift",
	Holt:        "Holt",
	HoltWinters: "HW Additive",
	ARIMA:       "ARIMA",
	SARIMAX:     "SARIMAX",
}

// Label is the display name used for chart legends and table columns.
func (m Method) Label() string {
	if l, ok := methodLabels[m]; ok {
		return l
	}
	return string(m)
}

// IsBaseline reports whether the method needs no parameter fitting.
func (m Method) IsBaseline() bool {
	return m == Naive || m == Mean || m == Drift
}

// Rank is the position of m in AllMethods, or -1.
func (m Method) Rank() int {
	for i, known := range AllMethods {
		if known == m {
			return i
		}
	}
	return -1
}

// ParseMethod resolves a method name. "hw" is accepted for holt_winters.
func ParseMethod(s string) (Method, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "hw" || name == "holt-winters" {
		return HoltWinters, nil
	}
	m := Method(name)
	if m.Rank() < 0 {
		return "", fmt.Errorf("unknown method %q", s)
	}
	return m, nil
}

// ParseMethods parses a comma separated list. Duplicates collapse and the
// result is sorted into evaluation order.
func ParseMethods(list string) ([]Method, error) {
	var out []Method
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		m, err := ParseMethod(part)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return Normalize(out), nil
}

// Normalize removes duplicates and unknown methods and sorts into evaluation order.
func Normalize(methods []Method) []Method {
	seen := make(map[Method]bool, len(methods))
	out := make([]Method, 0, len(methods))
	for _, m := range methods {
		if m.Rank() < 0 || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank() < out[j].Rank() })
	return out
}

// SARIMAOrder is (p, d, q) x (P, D, Q, m).
type SARIMAOrder struct {
	P  int `json:"p" mapstructure:"p"`
	D  int `json:"d" mapstructure:"d"`
	Q  int `json:"q" mapstructure:"q"`
	SP int `json:"seasonal_p" mapstructure:"seasonal_p"`
	SD int `json:"seasonal_d" mapstructure:"seasonal_d"`
	SQ int `json:"seasonal_q" mapstructure:"seasonal_q"`
	M  int `json:"m" mapstructure:"m"`
}

// DefaultSARIMAOrder is (2,0,0)x(1,1,1,12).
func DefaultSARIMAOrder() SARIMAOrder {
	return SARIMAOrder{P: 2, D: 0, Q: 0, SP: 1, SD: 1, SQ: 1, M: 12}
}

func (o SARIMAOrder) String() string {
	return fmt.Sprintf("(%d,%d,%d)x(%d,%d,%d,%d)", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}

// ParseSARIMAOrder reads "p,d,q,P,D,Q,m". Brackets, x and spaces are ignored,
// so "(2,0,0)x(1,1,1,12)" also parses.
func ParseSARIMAOrder(s string) (SARIMAOrder, error) {
	clean := strings.NewReplacer("(", "", ")", ",", "x", ",", "X", ",", " ", "").Replace(s)
	var nums []int
	for _, part := range strings.Split(clean, ",") {
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return SARIMAOrder{}, fmt.Errorf("invalid order component %q", part)
		}
		nums = append(nums, v)
	}
	if len(nums) != 7 {
		return SARIMAOrder{}, fmt.Errorf("order needs 7 components (p,d,q,P,D,Q,m), got %d", len(nums))
	}
	o := SARIMAOrder{P: nums[0], D: nums[1], Q: nums[2], SP: nums[3], SD: nums[4], SQ: nums[5], M: nums[6]}
	return o, o.Validate()
}

// Validate rejects negative components and seasonal terms without a period.
func (o SARIMAOrder) Validate() error {
	for _, v := range []int{o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M} {
		if v < 0 {
			return fmt.Errorf("%w: negative order component in %s", analytics.ErrInvalidParameter, o)
		}
	}
	if (o.SP > 0 || o.SD > 0 || o.SQ > 0) && o.M < 2 {
		return fmt.Errorf("%w: seasonal terms need m >= 2 in %s", analytics.ErrInvalidParameter, o)
	}
	if o.D > 2 || o.SD > 1 {
		return fmt.Errorf("%w: differencing order too high in %s", analytics.ErrInvalidParameter, o)
	}
	return nil
}

// minObservations is the shortest series the CSS fit accepts for this order.
func (o SARIMAOrder) minObservations() int {
	return o.P + o.Q + o.D + (o.SP+o.SD+o.SQ)*o.M + 20
}

// ModelInfo contains metadata about the fitted model
type ModelInfo struct {
	Algorithm  string                 `json:"algorithm"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	MAPE       float64                `json:"mape,omitempty"` // in-sample, percent
	MAE        float64                `json:"mae,omitempty"`
	RMSE       float64                `json:"rmse,omitempty"`
	DataPoints int                    `json:"data_points"`
}

// ForecastResult is what a forecaster returns. Predictions always holds
// exactly Horizon values.
type ForecastResult struct {
	Predictions []float64 `json:"predictions"`
	LowerBound  []float64 `json:"lower_bound,omitempty"`
	UpperBound  []float64 `json:"upper_bound,omitempty"`
	Fitted      []float64 `json:"fitted,omitempty"`
	ModelInfo   ModelInfo `json:"model_info"`
}

// ForecastConfig holds configuration for forecasting
type ForecastConfig struct {
	Horizon        int         // Number of periods to forecast
	SeasonalPeriod int         // Observations per seasonal cycle
	Confidence     float64     // Prediction interval level (0-1)
	Order          SARIMAOrder // Explicit order for the sarimax method

	// Smoothing parameters for Holt and Holt-Winters. Zero means "optimise".
	Alpha float64
	Beta  float64
	Gamma float64
}

// DefaultForecastConfig returns default forecast configuration
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		Horizon:        24,
		SeasonalPeriod: 12,
		Confidence:     0.95,
		Order:          DefaultSARIMAOrder(),
	}
}

func (c ForecastConfig) validateHorizon() error {
	if c.Horizon <= 0 {
		return fmt.Errorf("%w: horizon must be positive, got %d", analytics.ErrInvalidParameter, c.Horizon)
	}
	return nil
}

// Forecaster interface for all forecasting algorithms
type Forecaster interface {
	// Name returns the method identifier
	Name() Method
	// Forecast fits the series and predicts config.Horizon values ahead.
	// Implementations must not modify values.
	Forecast(ctx context.Context, values []float64, config ForecastConfig) (*ForecastResult, error)
}

var forecasterRegistry = make(map[Method]Forecaster)

// RegisterForecaster adds a forecaster to the registry
func RegisterForecaster(f Forecaster) {
	forecasterRegistry[f.Name()] = f
}

// GetForecaster returns a forecaster by method
func GetForecaster(m Method) (Forecaster, error) {
	if f, ok := forecasterRegistry[m]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("unknown forecaster: %s", m)
}

// ListForecasters returns registered methods in evaluation order.
func ListForecasters() []Method {
	out := make([]Method, 0, len(forecasterRegistry))
	for _, m := range AllMethods {
		if _, ok := forecasterRegistry[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// CalculateMAPE calculates Mean Absolute Percentage Error, skipping zero actuals.
func CalculateMAPE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	count := 0
	for i := range actual {
		if actual[i] != 0 {
			sum += math.Abs((actual[i] - predicted[i]) / actual[i])
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return (sum / float64(count)) * 100
}

// CalculateMAE calculates Mean Absolute Error
func CalculateMAE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}
	return floats.Distance(actual, predicted, 1) / float64(len(actual))
}

// CalculateRMSE calculates Root Mean Squared Error
func CalculateRMSE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}
	d := floats.Distance(actual, predicted, 2)
	return d / math.Sqrt(float64(len(actual)))
}

// zScore maps the confidence level onto the usual normal quantiles.
func zScore(confidence float64) float64 {
	switch {
	case confidence >= 0.99:
		return 2.576
	case confidence >= 0.95:
		return 1.96
	case confidence >= 0.90:
		return 1.645
	case confidence >= 0.80:
		return 1.282
	default:
		return 1.96
	}
}

func predictionInterval(value, stdError, confidence float64) (lower, upper float64) {
	margin := zScore(confidence) * stdError
	return value - margin, value + margin
}

// residualStdError is the sample standard deviation of actual-fitted over
// the positions where fitted is defined (non-NaN).
func residualStdError(actual, fitted []float64) float64 {
	var resid []float64
	for i := range actual {
		if i < len(fitted) && !math.IsNaN(fitted[i]) {
			resid = append(resid, actual[i]-fitted[i])
		}
	}
	if len(resid) < 2 {
		return 0
	}
	_, sd := stat.MeanStdDev(resid, nil)
	return sd
}

// fillModelInfo computes in-sample accuracy over the fitted positions.
func fillModelInfo(info *ModelInfo, actual, fitted []float64) {
	var a, f []float64
	for i := range actual {
		if i < len(fitted) && !math.IsNaN(fitted[i]) {
			a = append(a, actual[i])
			f = append(f, fitted[i])
		}
	}
	info.MAPE = CalculateMAPE(a, f)
	info.MAE = CalculateMAE(a, f)
	info.RMSE = CalculateRMSE(a, f)
	info.DataPoints = len(actual)
}

// checkOutput rejects forecasts with the wrong length or non-finite values.
func checkOutput(m Method, res *ForecastResult, horizon int) error {
	if len(res.Predictions) != horizon {
		return fmt.Errorf("%w: %s returned %d values for horizon %d", analytics.ErrModelFit, m, len(res.Predictions), horizon)
	}
	if !analytics.AllFinite(res.Predictions) {
		return fmt.Errorf("%w: %s produced non-finite forecasts", analytics.ErrModelFit, m)
	}
	return nil
}
