package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/seriesdash/seriesdash/internal/analytics/forecast"
	"github.com/seriesdash/seriesdash/internal/utils"
	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")              // Current directory
		v.AddConfigPath("./configs")      // Project configs directory
		v.AddConfigPath("/etc/seriesdash") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides (SERIESDASH_FORECAST_MAX_HORIZON, ...)
	v.SetEnvPrefix("SERIESDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.body_limit_mb", d.Server.BodyLimitMB)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.rate_burst", d.Server.RateBurst)

	// Forecast defaults
	v.SetDefault("forecast.default_horizon", d.Forecast.DefaultHorizon)
	v.SetDefault("forecast.max_horizon", d.Forecast.MaxHorizon)
	v.SetDefault("forecast.seasonal_period", d.Forecast.SeasonalPeriod)
	v.SetDefault("forecast.fit_timeout", d.Forecast.FitTimeout)
	v.SetDefault("forecast.confidence", d.Forecast.Confidence)
	v.SetDefault("forecast.default_methods", d.Forecast.DefaultMethods)
	v.SetDefault("forecast.order.p", d.Forecast.Order.P)
	v.SetDefault("forecast.order.d", d.Forecast.Order.D)
	v.SetDefault("forecast.order.q", d.Forecast.Order.Q)
	v.SetDefault("forecast.order.seasonal_p", d.Forecast.Order.SP)
	v.SetDefault("forecast.order.seasonal_d", d.Forecast.Order.SD)
	v.SetDefault("forecast.order.seasonal_q", d.Forecast.Order.SQ)
	v.SetDefault("forecast.order.m", d.Forecast.Order.M)
	v.SetDefault("forecast.anomaly_detector", d.Forecast.Detector)
	v.SetDefault("forecast.require_range", d.Forecast.RequireRange)

	// Upload defaults
	v.SetDefault("upload.max_rows", d.Upload.MaxRows)
	v.SetDefault("upload.date_format", d.Upload.DateFormat)
	v.SetDefault("upload.frequency", d.Upload.Frequency)

	// Cache defaults
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.size", d.Cache.Size)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	// Queue defaults
	v.SetDefault("queue.enabled", d.Queue.Enabled)
	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.subject", d.Queue.Subject)
	v.SetDefault("queue.compress", d.Queue.Compress)

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			HTTPPort:     8050,
			BodyLimitMB:  16,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
			RateLimit:    0,
			RateBurst:    20,
		},
		Forecast: ForecastConfig{
			DefaultHorizon: 24,
			MaxHorizon:     480,
			SeasonalPeriod: 12,
			FitTimeout:     30 * time.Second,
			Confidence:     0.95,
			DefaultMethods: []string{"naive", "mean", "drift", "holt", "holt_winters", "arima"},
			Order:          forecast.DefaultSARIMAOrder(),
			Detector:       "iqr",
		},
		Upload: UploadConfig{
			MaxRows:    100000,
			DateFormat: "2006-01-02",
			Frequency:  "M",
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    256,
			TTL:     15 * time.Minute,
		},
		Queue: QueueConfig{
			Enabled:  false,
			Type:     string(utils.QueueTypeMemory),
			URL:      "nats://localhost:4222",
			Subject:  utils.DefaultRunSubject,
			Compress: "snappy",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
