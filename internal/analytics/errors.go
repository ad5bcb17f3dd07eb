package analytics

import "errors"

// Error taxonomy shared by the forecasting and decomposition routines.
// Callers match with errors.Is; messages carry the detail.
var (
	// ErrInsufficientData means the series is shorter than the method needs.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDegenerateSeries means the series has a shape the method cannot use,
	// e.g. a single observation for drift.
	ErrDegenerateSeries = errors.New("degenerate series")

	// ErrModelFit means a model could not be fitted or produced non-finite output.
	ErrModelFit = errors.New("model fit failed")

	// ErrInvalidParameter means a method parameter is out of range for the series.
	ErrInvalidParameter = errors.New("invalid parameter")
)
