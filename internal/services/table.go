package services

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// ForecastTable is the tabular view of a bundle: one row per forecast
// period and one column per successful method.
type ForecastTable struct {
	Columns []string   `json:"columns"`
	Rows    []TableRow `json:"rows"`
}

// TableRow is one forecast period.
type TableRow struct {
	Period string    `json:"period"`
	Values []float64 `json:"values"`
}

// Table builds the forecast table for b. Periods use layout.
func (b *ForecastBundle) Table(layout string) *ForecastTable {
	if layout == "" {
		layout = time.DateOnly
	}
	t := &ForecastTable{Columns: make([]string, len(b.Results))}
	for i, r := range b.Results {
		t.Columns[i] = r.Label
	}

	t.Rows = make([]TableRow, len(b.ForecastTimes))
	for i, ts := range b.ForecastTimes {
		row := TableRow{Period: ts.Format(layout), Values: make([]float64, len(b.Results))}
		for j, r := range b.Results {
			row.Values[j] = r.Values[i]
		}
		t.Rows[i] = row
	}
	return t
}

// WriteCSV writes the table with a "period" header column.
func (t *ForecastTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{"period"}, t.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for _, row := range t.Rows {
		record[0] = row.Period
		for i, v := range row.Values {
			record[i+1] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// PreviewRow is one raw input row.
type PreviewRow struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// Preview returns the first n observations of b's series; n <= 0 means all.
func (b *ForecastBundle) Preview(n int, layout string) []PreviewRow {
	points := b.Series.Points()
	if layout == "" {
		layout = time.DateOnly
	}
	if n <= 0 || n > len(points) {
		n = len(points)
	}
	out := make([]PreviewRow, n)
	for i := 0; i < n; i++ {
		out[i] = PreviewRow{Period: points[i].Time.Format(layout), Value: points[i].Value}
	}
	return out
}
