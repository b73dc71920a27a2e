package transcription

import (
	"fmt"
	"slices"
)

// Engine names.
const (
	EngineFasterWhisper = "fasterwhisper"
	EngineWhisper       = "whisper"
	EngineOpenAI        = "openai"
)

// Config configures the transcription pipeline.
type Config struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Engine  string `yaml:"engine" mapstructure:"engine"`
	// DefaultModel is used when a request names none.
	DefaultModel string `yaml:"default_model" mapstructure:"default_model"`
	Device       string `yaml:"device" mapstructure:"device"`
	// ComputeType overrides the device-derived precision.
	ComputeType    string `yaml:"compute_type" mapstructure:"compute_type"`
	DefaultThreads int    `yaml:"default_threads" mapstructure:"default_threads"`
	Language       string `yaml:"language" mapstructure:"language"`
	FFmpegPath     string `yaml:"ffmpeg_path" mapstructure:"ffmpeg_path"`
	TempDir        string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Engine == "" {
		c.Engine = EngineFasterWhisper
	}
	if c.DefaultModel == "" {
		c.DefaultModel = "small"
	}
	if c.Device == "" {
		c.Device = DeviceCPU
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	engines := []string{EngineFasterWhisper, EngineWhisper, EngineOpenAI}
	if !slices.Contains(engines, c.Engine) {
		return fmt.Errorf("transcription.engine must be one of %v (got: %s)", engines, c.Engine)
	}
	if c.DefaultThreads < 0 {
		return fmt.Errorf("transcription.default_threads must not be negative")
	}
	return nil
}
