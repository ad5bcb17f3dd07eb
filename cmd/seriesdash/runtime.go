package main

import (
	"context"
	"fmt"
	"time"

	"github.com/seriesdash/seriesdash/internal/cache"
	"github.com/seriesdash/seriesdash/internal/compression"
	"github.com/seriesdash/seriesdash/internal/config"
	"github.com/seriesdash/seriesdash/internal/logging"
	"github.com/seriesdash/seriesdash/internal/metrics"
	"github.com/seriesdash/seriesdash/internal/queue"
	"github.com/seriesdash/seriesdash/internal/router"
	"github.com/seriesdash/seriesdash/internal/services"
	"github.com/seriesdash/seriesdash/internal/utils"
)

// serviceRuntime owns everything serve builds from the configuration.
type serviceRuntime struct {
	logger  *logging.Logger
	results *services.ResultCache
	events  *queue.EventPublisher
	deps    router.Dependencies
}

func newServiceRuntime(cfg *config.Config, logger *logging.Logger, m *metrics.Metrics) (*serviceRuntime, error) {
	rt := &serviceRuntime{logger: logger}

	if cfg.Cache.Enabled {
		results, err := cache.NewLRUWithTTL[string, *services.ForecastBundle](cfg.Cache.Size, cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create result cache: %w", err)
		}
		rt.results = results
		logger.Info("Result cache enabled", "size", cfg.Cache.Size, "ttl", cfg.Cache.TTL)
	}

	if cfg.Queue.Enabled {
		algo, err := compression.ParseAlgorithm(cfg.Queue.Compress)
		if err != nil {
			return nil, err
		}
		logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
		pub, err := queue.NewPublisher(cfg.Queue)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to queue: %w", err)
		}
		rt.events = queue.NewEventPublisher(pub, cfg.Queue.Subject, algo, utils.PublishTimeout)
		logger.Info("Run events enabled", "subject", cfg.Queue.Subject, "compression", algo.String())
	}

	rt.deps = router.Dependencies{
		ForecastService:  services.NewForecastService(logger, cfg.Forecast, rt.results, rt.events, m),
		DecomposeService: services.NewDecomposeService(logger, cfg.Forecast.Detector),
		Metrics:          m,
	}
	return rt, nil
}

// runJanitor drops expired results every interval until ctx is done.
func (rt *serviceRuntime) runJanitor(ctx context.Context, interval time.Duration) {
	if rt.results == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rt.results.CleanupExpired(); n > 0 {
				stats := rt.results.Stats()
				rt.logger.Debug("Expired results removed", "removed", n, "size", stats.Size, "hits", stats.Hits, "misses", stats.Misses)
			}
		}
	}
}

func (rt *serviceRuntime) Close() error {
	return rt.events.Close()
}
