package main

import (
	"fmt"

	"github.com/lifemap/memorymap/config"
	"github.com/lifemap/memorymap/database"
	"github.com/lifemap/memorymap/geocode"
	"github.com/lifemap/memorymap/logger"
	"github.com/lifemap/memorymap/memory"
	"github.com/lifemap/memorymap/observability"
	"github.com/lifemap/memorymap/redis"
	"github.com/lifemap/memorymap/server"
	"github.com/lifemap/memorymap/storage"
	"github.com/lifemap/memorymap/storage/local"
	"github.com/lifemap/memorymap/storage/s3"
	"github.com/lifemap/memorymap/transcription"
	"github.com/lifemap/memorymap/transcription/fasterwhisper"
	"github.com/lifemap/memorymap/transcription/openai"
	"github.com/lifemap/memorymap/transcription/whisper"
	"github.com/lifemap/memorymap/util"
)

const serviceName = "memorymapd"

// Config is the service configuration.
type Config struct {
	config.ServiceConfig `mapstructure:",squash"`

	Server        server.Config         `mapstructure:"server"`
	Database      database.Config       `mapstructure:"database"`
	Redis         redis.Config          `mapstructure:"redis"`
	Storage       StorageConfig         `mapstructure:"storage"`
	Transcription TranscriptionConfig   `mapstructure:"transcription"`
	Geocode       geocode.Config        `mapstructure:"geocode"`
	Analysis      memory.AnalysisConfig `mapstructure:"analysis"`
	Observability observability.Config  `mapstructure:"observability"`

	// MaxFileSize caps a single upload, e.g. "10MB".
	MaxFileSize string `mapstructure:"max_file_size"`
}

// StorageConfig selects the object store and carries each backend's settings.
type StorageConfig struct {
	storage.Config `mapstructure:",squash"`
	Local          local.Config `mapstructure:"local"`
	S3             s3.Config    `mapstructure:"s3"`
}

// ProviderConfig returns the settings of the selected backend.
func (c *StorageConfig) ProviderConfig() any {
	if c.Provider == storage.ProviderS3 {
		return &c.S3
	}
	return &c.Local
}

// TranscriptionConfig is the pipeline config plus each engine's settings.
type TranscriptionConfig struct {
	transcription.Config `mapstructure:",squash"`
	FasterWhisper        fasterwhisper.Config `mapstructure:"fasterwhisper"`
	Whisper              whisper.Config       `mapstructure:"whisper"`
	OpenAI               openai.Config        `mapstructure:"openai"`
}

// ApplyDefaults fills in every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Redis.ApplyDefaults()
	if c.MaxFileSize != "" {
		c.Storage.MaxFileSize = util.ParseSize(c.MaxFileSize, storage.DefaultMaxFileSize)
	}
	c.Storage.Config.ApplyDefaults()
	c.Storage.Local.ApplyDefaults()
	c.Storage.S3.ApplyDefaults()
	c.Transcription.Config.ApplyDefaults()
	c.Geocode.ApplyDefaults()
	c.Analysis.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Observability.ServiceName = c.Name
	c.Observability.ServiceVersion = c.Version
	c.Observability.Environment = c.Environment
}

// Validate checks every enabled section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if c.Redis.Enabled {
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if err := c.Geocode.Validate(); err != nil {
		return fmt.Errorf("geocode: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	if c.Storage.Enabled {
		if err := c.Storage.Config.Validate(); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		if c.Storage.Provider == storage.ProviderS3 {
			if err := c.Storage.S3.Validate(); err != nil {
				return fmt.Errorf("storage: %w", err)
			}
		} else if err := c.Storage.Local.Validate(); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}
	if c.Transcription.Enabled {
		if err := c.Transcription.Config.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	opts := []config.LoaderOption{
		config.WithEnvPrefix("MEMORYMAP"),
		config.WithDefault("database.enabled", true),
		config.WithDefault("database.auto_migrate", true),
		config.WithDefault("storage.enabled", true),
		config.WithDefault("transcription.enabled", true),
		config.WithDefault("geocode.enabled", true),
		config.WithDefault("observability.metrics_enabled", true),
		config.WithDefault("max_file_size", "10MB"),
		config.WithEnvAlias("database.driver", "DATABASE_TYPE"),
		config.WithEnvAlias("database.dsn", "DATABASE_URL"),
		config.WithEnvAlias("storage.local.base_path", "UPLOAD_DIR"),
		config.WithEnvAlias("max_file_size", "MAX_FILE_SIZE"),
		config.WithEnvAlias("transcription.enabled", "ENABLE_TRANSCRIPTION"),
		config.WithEnvAlias("geocode.enabled", "ENABLE_GEOCODING"),
		config.WithEnvAlias("redis.addr", "REDIS_ADDR"),
		config.WithEnvAlias("transcription.openai.api_key", "OPENAI_API_KEY"),
		config.WithEnvAlias("server.port", "PORT"),
	}
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if err := config.Load(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newEngine builds the configured speech-to-text engine.
func newEngine(cfg TranscriptionConfig, log *logger.Logger) (transcription.Engine, error) {
	switch cfg.Engine {
	case transcription.EngineFasterWhisper:
		fw := cfg.FasterWhisper
		if fw.Threads == 0 {
			fw.Threads = cfg.DefaultThreads
		}
		return fasterwhisper.New(fw, log), nil
	case transcription.EngineWhisper:
		return whisper.New(cfg.Whisper, log)
	case transcription.EngineOpenAI:
		return openai.New(cfg.OpenAI, log)
	default:
		return nil, fmt.Errorf("unknown transcription engine %q", cfg.Engine)
	}
}
