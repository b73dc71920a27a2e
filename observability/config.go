package observability

import "fmt"

// Config configures tracing and metrics.
type Config struct {
	ServiceName    string `yaml:"-" mapstructure:"-"`
	ServiceVersion string `yaml:"-" mapstructure:"-"`
	Environment    string `yaml:"-" mapstructure:"-"`

	TracingEnabled bool `yaml:"tracing_enabled" mapstructure:"tracing_enabled"`
	// Endpoint is the OTLP HTTP collector host:port.
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`

	MetricsEnabled bool   `yaml:"metrics_enabled" mapstructure:"metrics_enabled"`
	Namespace      string `yaml:"namespace" mapstructure:"namespace"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1
	}
	if c.Namespace == "" {
		c.Namespace = "memorymap"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("observability.sample_rate must be within [0,1] (got: %v)", c.SampleRate)
	}
	return nil
}
