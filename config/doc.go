// Package config loads service configuration from a YAML file, an optional
// .env file, and environment variables, in that order of increasing priority.
//
//	type Config struct {
//	    config.ServiceConfig `mapstructure:",squash"`
//	    Server server.Config `mapstructure:"server"`
//	}
//
//	var cfg Config
//	err := config.Load("memorymapd", &cfg, config.WithEnvPrefix("MEMORYMAP"))
package config
