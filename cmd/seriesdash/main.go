package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

// rootOptions holds the flags shared by every subcommand
type rootOptions struct {
	configPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "seriesdash",
		Short: "Time-series forecasting dashboard backend",
		Long: `seriesdash fits baseline and model-based forecasters to an uploaded
series and returns chart-ready forecasts, a forecast table and warnings
for every method that could not be fitted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")

	rootCmd.AddCommand(serveCmd(opts))
	rootCmd.AddCommand(forecastCmd(opts))
	rootCmd.AddCommand(decomposeCmd(opts))
	rootCmd.AddCommand(eventsCmd(opts))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "seriesdash %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
		},
	}
}
