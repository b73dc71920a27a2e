package geocode

import (
	"fmt"
	"time"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "memorymap/1.0 (+https://github.com/lifemap/memorymap)"
)

// Config configures place resolution.
type Config struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// UserAgent identifies the service as the Nominatim usage policy requires.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	// Timeout bounds each remote call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// RateLimit is the maximum number of remote calls per second.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	// CacheTTL applies to resolutions memoized in Redis.
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 1
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 7 * 24 * time.Hour
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Enabled && c.BaseURL == "" {
		return fmt.Errorf("geocode.base_url is required")
	}
	return nil
}
