package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/seriesdash/seriesdash/internal/analytics/decompose"
	"github.com/seriesdash/seriesdash/internal/config"
	"github.com/seriesdash/seriesdash/internal/services"
)

func decomposeCmd(opts *rootOptions) *cobra.Command {
	var (
		input  seriesFlags
		period int
		model  string
	)

	cmd := &cobra.Command{
		Use:   "decompose",
		Short: "Split a CSV series into trend, seasonal and residual components",
		Long: `Prints one CSV row per observation with the observed value and its
components. Trend and residual are empty where the centred average is
undefined. Residual anomalies are reported on stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			series, err := input.load(cmd, cfg)
			if err != nil {
				return err
			}
			m, err := decompose.ParseModel(model)
			if err != nil {
				return err
			}
			if period == 0 {
				period = cfg.Forecast.SeasonalPeriod
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			service := services.NewDecomposeService(cliLogger(cmd), cfg.Forecast.Detector)
			out, err := service.Decompose(ctx, series, services.DecomposeRequest{Period: period, Model: m})
			if err != nil {
				return err
			}

			layout := cfg.Upload.DateFormat
			w := csv.NewWriter(cmd.OutOrStdout())
			if err := w.Write([]string{"period", "observed", "trend", "seasonal", "residual"}); err != nil {
				return err
			}
			for i, ts := range out.Timestamps {
				if err := w.Write([]string{
					ts.Format(layout),
					formatCell(out.Observed[i]),
					formatCell(out.Trend[i]),
					formatCell(out.Seasonal[i]),
					formatCell(out.Residual[i]),
				}); err != nil {
					return err
				}
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "seasonal strength: %.3f\n", out.Strength)
			for _, a := range out.Anomalies {
				fmt.Fprintf(cmd.ErrOrStderr(), "anomaly: %s residual %.4g (%s, score %.2f)\n",
					out.Timestamps[a.Index].Format(layout), a.Value, a.Type, a.Score)
			}
			return nil
		},
	}

	input.register(cmd)
	cmd.Flags().IntVar(&period, "seasonal-period", 0, "Seasonal period (default from config)")
	cmd.Flags().StringVar(&model, "model", "additive", "Decomposition model: additive or multiplicative")

	return cmd
}

func formatCell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
