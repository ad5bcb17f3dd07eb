package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seriesdash/seriesdash/internal/analytics"
	"github.com/seriesdash/seriesdash/internal/analytics/forecast"
	"github.com/seriesdash/seriesdash/internal/config"
	"github.com/seriesdash/seriesdash/internal/loader"
	"github.com/seriesdash/seriesdash/internal/logging"
	"github.com/seriesdash/seriesdash/internal/services"
)

// seriesFlags are the input flags shared by forecast and decompose
type seriesFlags struct {
	file      string
	start     string
	frequency string
	column    int
	header    bool
}

func (f *seriesFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "CSV file with one value per row (- for stdin)")
	cmd.Flags().StringVar(&f.start, "start", "", "Date of the first observation")
	cmd.Flags().StringVar(&f.frequency, "frequency", "", "Index frequency: D, W, M, Q or Y")
	cmd.Flags().IntVar(&f.column, "column", 0, "Zero-based CSV column holding the values")
	cmd.Flags().BoolVar(&f.header, "header", false, "Skip the first row of the CSV")
	_ = cmd.MarkFlagRequired("file")
}

// load reads the series described by the flags.
func (f *seriesFlags) load(cmd *cobra.Command, cfg *config.Config) (*analytics.Series, error) {
	start, err := cfg.Upload.ParseDate(f.start)
	if err != nil {
		return nil, fmt.Errorf("invalid --start: %w", err)
	}
	freqName := f.frequency
	if freqName == "" {
		freqName = cfg.Upload.Frequency
	}
	freq, err := analytics.ParseFrequency(freqName)
	if err != nil {
		return nil, err
	}

	var r io.Reader = cmd.InOrStdin()
	name := "stdin"
	if f.file != "-" {
		file, err := os.Open(f.file)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", loader.ErrDataLoad, err)
		}
		defer func() { _ = file.Close() }()
		r, name = file, f.file
	}

	return loader.ParseCSV(r, loader.Options{
		Name:      name,
		Start:     start,
		Frequency: freq,
		MaxRows:   cfg.Upload.MaxRows,
		Column:    f.column,
		Header:    f.header,
	})
}

func cliLogger(cmd *cobra.Command) *logging.Logger {
	return logging.NewWithWriter(cmd.ErrOrStderr(), zerolog.ErrorLevel)
}

func forecastCmd(opts *rootOptions) *cobra.Command {
	var (
		input          seriesFlags
		horizon        int
		methods        string
		end            string
		seasonalPeriod int
		order          string
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast a CSV series offline and print the forecast table",
		Long: `Runs the selected methods over a CSV series without starting the server.
The forecast table is written to stdout as CSV, one row per future period
and one column per successful method. Skipped methods are reported on stderr.`,
		Example: "  seriesdash forecast --file passengers.csv --start 1949-01-01 --horizon 24 --methods naive,drift,holt_winters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			series, err := input.load(cmd, cfg)
			if err != nil {
				return err
			}

			req := services.NewForecastRequest(cfg.Forecast)
			if cmd.Flags().Changed("horizon") {
				req.Horizon = horizon
			}
			if cmd.Flags().Changed("seasonal-period") {
				req.SeasonalPeriod = seasonalPeriod
			}
			if methods != "" {
				if strings.EqualFold(methods, "none") {
					req.Methods = nil
				} else if req.Methods, err = forecast.ParseMethods(methods); err != nil {
					return err
				}
			}
			if order != "" {
				if req.Order, err = forecast.ParseSARIMAOrder(order); err != nil {
					return err
				}
			}
			if req.StartDate, err = cfg.Upload.ParseDate(input.start); err != nil {
				return err
			}
			if req.EndDate, err = cfg.Upload.ParseDate(end); err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}

			return runForecast(cmd.Context(), cmd, cfg, series, req)
		},
	}

	input.register(cmd)
	cmd.Flags().IntVar(&horizon, "horizon", 0, "Number of periods to forecast (default from config)")
	cmd.Flags().StringVarP(&methods, "methods", "m", "", "Comma separated methods (default from config, none for no methods)")
	cmd.Flags().StringVar(&end, "end", "", "Last observation to fit on")
	cmd.Flags().IntVar(&seasonalPeriod, "seasonal-period", 0, "Seasonal period (default from config)")
	cmd.Flags().StringVar(&order, "order", "", "SARIMAX order as (p,d,q)x(P,D,Q,m)")

	return cmd
}

func runForecast(ctx context.Context, cmd *cobra.Command, cfg *config.Config, series *analytics.Series, req services.ForecastRequest) error {
	if ctx == nil {
		ctx = context.Background()
	}
	service := services.NewForecastService(cliLogger(cmd), cfg.Forecast, nil, nil, nil)

	bundle, err := service.Run(ctx, series, req)
	if err != nil {
		return err
	}

	for _, w := range bundle.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s skipped (%s): %s\n", w.Label, w.Code, w.Message)
	}
	return bundle.Table(cfg.Upload.DateFormat).WriteCSV(cmd.OutOrStdout())
}
