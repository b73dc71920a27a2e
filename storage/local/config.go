package local

import "fmt"

// Defaults for local storage.
const (
	DefaultBasePath  = "uploads"
	DefaultPublicURL = "/uploads"
)

// Config holds local filesystem storage configuration.
type Config struct {
	// BasePath is the root directory for stored objects.
	BasePath string `mapstructure:"base_path" json:"base_path"`

	// PublicURL is the URL prefix under which the server exposes BasePath.
	PublicURL string `mapstructure:"public_url" json:"public_url"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.PublicURL == "" {
		c.PublicURL = DefaultPublicURL
	}
}

// Validate checks that the local configuration is valid.
func (c *Config) Validate() error {
	if c.BasePath == "" {
		return fmt.Errorf("local: base_path is required")
	}
	return nil
}

// Location is the directory objects are written to.
func (c *Config) Location() string { return c.BasePath }
