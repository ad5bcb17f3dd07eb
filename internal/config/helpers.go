package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// BodyLimit is the upload limit in bytes
func (c *ServerConfig) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

// ParseDate parses a request date with the configured layout.
// An empty string yields the zero time.
func (c *UploadConfig) ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(c.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q does not match layout %s", s, c.DateFormat)
	}
	return t, nil
}
