package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seriesdash/seriesdash/internal/config"
	"github.com/seriesdash/seriesdash/internal/handlers"
	"github.com/seriesdash/seriesdash/internal/logging"
	"github.com/seriesdash/seriesdash/internal/metrics"
	"github.com/seriesdash/seriesdash/internal/router"
	"github.com/seriesdash/seriesdash/internal/utils"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts.configPath)
		},
	}
}

func serve(parent context.Context, configPath string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.SetGlobal(logger)
	handlers.Version = Version
	logger.Info("seriesdash starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	rt, err := newServiceRuntime(cfg, logger, metrics.New())
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	app := router.New(logger, rt.deps, *cfg)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go rt.runJanitor(ctx, cfg.Cache.TTL)

	// Start server in goroutine
	listenErr := make(chan error, 1)
	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
	return nil
}
