// Package analytics provides the series types and statistical helpers shared by
// the forecasting, decomposition and anomaly packages.
package analytics

import (
	"fmt"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// TimeSeriesPoint is a single observation with its calendar position.
type TimeSeriesPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// TimeSeriesData is an ordered list of points.
type TimeSeriesData []TimeSeriesPoint

// Values extracts just the values from the time series
func (ts TimeSeriesData) Values() []float64 {
	values := make([]float64, len(ts))
	for i, p := range ts {
		values[i] = p.Value
	}
	return values
}

// Times extracts just the times from the time series
func (ts TimeSeriesData) Times() []time.Time {
	times := make([]time.Time, len(ts))
	for i, p := range ts {
		times[i] = p.Time
	}
	return times
}

// Len returns the number of data points
func (ts TimeSeriesData) Len() int {
	return len(ts)
}

// Mean calculates the mean of all values
func (ts TimeSeriesData) Mean() float64 {
	if len(ts) == 0 {
		return 0
	}
	return stat.Mean(ts.Values(), nil)
}

// StdDev calculates the sample standard deviation of all values
func (ts TimeSeriesData) StdDev() float64 {
	if len(ts) < 2 {
		return 0
	}
	return stat.StdDev(ts.Values(), nil)
}

// Frequency is the sampling interval used to stamp positions with dates.
type Frequency string

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// ParseFrequency accepts the long names and the pandas-style aliases D, W, M, Q, Y.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "m", "monthly":
		return Monthly, nil
	case "d", "daily":
		return Daily, nil
	case "w", "weekly":
		return Weekly, nil
	case "q", "quarterly":
		return Quarterly, nil
	case "y", "a", "yearly", "annual":
		return Yearly, nil
	default:
		return "", fmt.Errorf("unknown frequency %q", s)
	}
}

// At returns the timestamp of position i for a series starting at start.
// Month based frequencies are anchored on period ends, so a monthly series
// starting 2000-01-01 has its first observation on 2000-01-31.
func (f Frequency) At(start time.Time, i int) time.Time {
	switch f {
	case Daily:
		return start.AddDate(0, 0, i)
	case Weekly:
		return start.AddDate(0, 0, 7*i)
	case Quarterly:
		return monthEnd(start, 3*i+quarterOffset(start))
	case Yearly:
		return time.Date(start.Year()+i, 12, 31, 0, 0, 0, 0, start.Location())
	default:
		return monthEnd(start, i)
	}
}

func monthEnd(start time.Time, months int) time.Time {
	// day 0 of the following month is the last day of the target month
	return time.Date(start.Year(), start.Month()+time.Month(months)+1, 0, 0, 0, 0, 0, start.Location())
}

func quarterOffset(start time.Time) int {
	return (3 - int(start.Month())%3) % 3
}

// Series is an uploaded univariate series. It is treated as immutable once
// loaded: consumers read Values and copy before transforming.
type Series struct {
	Name      string
	Values    []float64
	Start     time.Time
	Frequency Frequency
}

// NewSeries builds a series that owns a copy of values.
func NewSeries(name string, values []float64, start time.Time, freq Frequency) *Series {
	v := make([]float64, len(values))
	copy(v, values)
	if freq == "" {
		freq = Monthly
	}
	return &Series{Name: name, Values: v, Start: start, Frequency: freq}
}

// Len returns the number of observations.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

// Copy returns a private copy of the observations.
func (s *Series) Copy() []float64 {
	v := make([]float64, len(s.Values))
	copy(v, s.Values)
	return v
}

// Timestamps stamps every observation with its calendar date.
func (s *Series) Timestamps() []time.Time {
	out := make([]time.Time, len(s.Values))
	for i := range s.Values {
		out[i] = s.Frequency.At(s.Start, i)
	}
	return out
}

// ForecastTimestamps continues the calendar index for h future periods.
func (s *Series) ForecastTimestamps(h int) []time.Time {
	if h <= 0 {
		return nil
	}
	n := len(s.Values)
	out := make([]time.Time, h)
	for i := 0; i < h; i++ {
		out[i] = s.Frequency.At(s.Start, n+i)
	}
	return out
}

// Points pairs the observations with their timestamps.
func (s *Series) Points() TimeSeriesData {
	times := s.Timestamps()
	out := make(TimeSeriesData, len(s.Values))
	for i, v := range s.Values {
		out[i] = TimeSeriesPoint{Time: times[i], Value: v}
	}
	return out
}
