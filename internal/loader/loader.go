// Package loader turns uploaded CSV data into an analytics.Series.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/seriesdash/seriesdash/internal/analytics"
)

// ErrDataLoad is returned for any unreadable or invalid upload.
var ErrDataLoad = errors.New("data load failed")

// DefaultStart anchors the synthetic index of uploads that carry no dates.
var DefaultStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Options controls parsing.
type Options struct {
	Name      string
	Start     time.Time           // zero means DefaultStart
	Frequency analytics.Frequency // empty means monthly
	MaxRows   int                 // zero means unlimited
	Column    int                 // zero-based column holding the values
	Header    bool                // the first non-blank row is a header
}

// ParseCSV reads a CSV and takes the values from opts.Column. Blank lines
// are skipped, as is the first row when opts.Header is set. Any non-numeric,
// NaN or infinite value fails the whole load with the offending line number.
func ParseCSV(r io.Reader, opts Options) (*analytics.Series, error) {
	if opts.Start.IsZero() {
		opts.Start = DefaultStart
	}
	if opts.Frequency == "" {
		opts.Frequency = analytics.Monthly
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var values []float64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDataLoad, err)
		}
		line, _ := reader.FieldPos(0)

		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if opts.Header {
			opts.Header = false
			continue
		}
		if opts.Column >= len(record) {
			return nil, fmt.Errorf("%w: line %d has no column %d", ErrDataLoad, line, opts.Column+1)
		}
		field := strings.TrimSpace(record[opts.Column])

		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			if len(values) == 0 {
				return nil, fmt.Errorf("%w: line %d: %q is not a number (is it a header row?)", ErrDataLoad, line, field)
			}
			return nil, fmt.Errorf("%w: line %d: %q is not a number", ErrDataLoad, line, field)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: line %d: value %q is not finite", ErrDataLoad, line, field)
		}

		values = append(values, v)
		if opts.MaxRows > 0 && len(values) > opts.MaxRows {
			return nil, fmt.Errorf("%w: more than %d rows", ErrDataLoad, opts.MaxRows)
		}
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no numeric values found", ErrDataLoad)
	}
	return analytics.NewSeries(opts.Name, values, opts.Start, opts.Frequency), nil
}

// ParseValues parses a plain list of numbers separated by commas,
// semicolons or whitespace, as accepted by the JSON and CLI inputs.
func ParseValues(s string, opts Options) (*analytics.Series, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
	return ParseCSV(strings.NewReader(strings.Join(fields, "\n")), Options{
		Name:      opts.Name,
		Start:     opts.Start,
		Frequency: opts.Frequency,
		MaxRows:   opts.MaxRows,
	})
}
