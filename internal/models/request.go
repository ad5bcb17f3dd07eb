package models

// ForecastForm holds the fields of a forecast or export request. It binds
// from multipart forms (with the CSV under "file"), url-encoded forms and
// JSON bodies. Values is an inline alternative to the file: numbers
// separated by commas, whitespace or newlines.
type ForecastForm struct {
	Horizon        int     `json:"horizon" form:"horizon"`
	Methods        string  `json:"methods" form:"methods"` // comma separated, empty means the configured defaults
	StartDate      string  `json:"start_date" form:"start_date"`
	EndDate        string  `json:"end_date" form:"end_date"`
	SeasonalPeriod int     `json:"seasonal_period" form:"seasonal_period"`
	Order          string  `json:"order" form:"order"` // (p,d,q)x(P,D,Q,m)
	Confidence     float64 `json:"confidence" form:"confidence"`
	Frequency      string  `json:"frequency" form:"frequency"`
	Column         int     `json:"column" form:"column"`
	Header         bool    `json:"header" form:"header"` // the uploaded CSV starts with a header row
	Values         string  `json:"values" form:"values"`
	MaxPoints      int     `json:"max_points" form:"max_points"` // observed series chart limit, 0 means all points
	Downsample     string  `json:"downsample" form:"downsample"` // none, auto, lttb, minmax, avg, m4
}

// DecomposeForm holds the fields of a decomposition request.
type DecomposeForm struct {
	StartDate      string `json:"start_date" form:"start_date"`
	SeasonalPeriod int    `json:"seasonal_period" form:"seasonal_period"`
	Model          string `json:"model" form:"model"` // additive, multiplicative
	Frequency      string `json:"frequency" form:"frequency"`
	Column         int    `json:"column" form:"column"`
	Header         bool   `json:"header" form:"header"`
	Values         string `json:"values" form:"values"`
}
