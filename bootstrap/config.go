package bootstrap

import "github.com/lifemap/memorymap/config"

// Config is satisfied by any pointer to a struct embedding
// config.ServiceConfig that also implements ApplyDefaults and Validate for
// its own sections.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
