package config

import (
	"fmt"
	"time"

	"github.com/seriesdash/seriesdash/internal/analytics/anomaly"
	"github.com/seriesdash/seriesdash/internal/analytics/forecast"
	"github.com/seriesdash/seriesdash/internal/utils"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"` // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"`
	BodyLimitMB  int           `mapstructure:"body_limit_mb"` // Max upload size
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"` // Requests per second per client, 0 disables
	RateBurst    int           `mapstructure:"rate_burst"`
}

// ForecastConfig holds the defaults applied to forecast requests
type ForecastConfig struct {
	DefaultHorizon int                  `mapstructure:"default_horizon"`
	MaxHorizon     int                  `mapstructure:"max_horizon"`
	SeasonalPeriod int                  `mapstructure:"seasonal_period"`
	FitTimeout     time.Duration        `mapstructure:"fit_timeout"` // Per-method wall clock limit, 0 disables
	Confidence     float64              `mapstructure:"confidence"`
	DefaultMethods []string             `mapstructure:"default_methods"`
	Order          forecast.SARIMAOrder `mapstructure:"order"`
	Detector       string               `mapstructure:"anomaly_detector"` // Residual detector for decompositions
	RequireRange   bool                 `mapstructure:"require_range"`    // Reject runs without both start and end date
}

// UploadConfig limits accepted CSV uploads
type UploadConfig struct {
	MaxRows    int    `mapstructure:"max_rows"`
	DateFormat string `mapstructure:"date_format"` // Go layout for start_date/end_date
	Frequency  string `mapstructure:"frequency"`   // Index frequency for uploads without dates
}

// CacheConfig configures the forecast result cache
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Size    int           `mapstructure:"size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// QueueConfig represents run event publishing configuration
type QueueConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"`     // memory, nats, redis, kafka
	URL      string `mapstructure:"url"`      // Broker URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Subject  string `mapstructure:"subject"`  // Subject, stream or topic for run events
	Compress string `mapstructure:"compress"` // none, snappy
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	// Redis-specific options
	RedisDB int `mapstructure:"redis_db"`

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast config: %w", err)
	}

	if err := c.Upload.Validate(); err != nil {
		return fmt.Errorf("upload config: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.BodyLimitMB < 1 {
		return fmt.Errorf("body_limit_mb must be at least 1")
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative")
	}

	return nil
}

// Validate validates forecast defaults
func (c *ForecastConfig) Validate() error {
	if c.MaxHorizon < 1 {
		return fmt.Errorf("max_horizon must be at least 1")
	}

	if c.DefaultHorizon < 1 || c.DefaultHorizon > c.MaxHorizon {
		return fmt.Errorf("default_horizon must be between 1 and max_horizon (%d)", c.MaxHorizon)
	}

	if c.SeasonalPeriod < 2 {
		return fmt.Errorf("seasonal_period must be at least 2")
	}

	if c.Confidence <= 0 || c.Confidence >= 1 {
		return fmt.Errorf("confidence must be between 0 and 1")
	}

	if c.FitTimeout < 0 {
		return fmt.Errorf("fit_timeout cannot be negative")
	}

	for _, m := range c.DefaultMethods {
		if _, err := forecast.ParseMethod(m); err != nil {
			return fmt.Errorf("default_methods: %w", err)
		}
	}

	if err := c.Order.Validate(); err != nil {
		return fmt.Errorf("order: %w", err)
	}

	if c.Detector != "" {
		if _, err := anomaly.GetDetector(c.Detector); err != nil {
			return fmt.Errorf("anomaly_detector: %w", err)
		}
	}

	return nil
}

// Methods returns the parsed default methods in evaluation order.
func (c *ForecastConfig) Methods() []forecast.Method {
	out := make([]forecast.Method, 0, len(c.DefaultMethods))
	for _, name := range c.DefaultMethods {
		if m, err := forecast.ParseMethod(name); err == nil {
			out = append(out, m)
		}
	}
	return forecast.Normalize(out)
}

// Validate validates upload limits
func (c *UploadConfig) Validate() error {
	if c.MaxRows < 1 {
		return fmt.Errorf("max_rows must be at least 1")
	}

	if c.DateFormat == "" {
		return fmt.Errorf("date_format is required")
	}

	return nil
}

// Validate validates cache configuration
func (c *CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Size < 1 {
		return fmt.Errorf("cache.size must be at least 1")
	}

	if c.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if _, err := utils.ParseQueueType(c.Type); err != nil {
		return err
	}

	if c.Subject == "" {
		return fmt.Errorf("queue.subject is required")
	}

	if c.Compress != "" && c.Compress != "none" && c.Compress != "snappy" {
		return fmt.Errorf("queue.compress must be 'none' or 'snappy'")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
