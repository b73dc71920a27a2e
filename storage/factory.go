package storage

import (
	"fmt"
	"sync"

	"github.com/lifemap/memorymap/logger"
)

// StorageFactory creates a Storage from the common config and the
// backend's own config, which it type-asserts.
type StorageFactory func(cfg Config, providerCfg any, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]StorageFactory)
)

// RegisterFactory registers the factory for a provider name. Backends call
// it from init.
func RegisterFactory(name string, f StorageFactory) {
	factoriesMu.Lock()
	factories[name] = f
	factoriesMu.Unlock()
}

// New creates the backend named by cfg.Provider. providerCfg carries the
// backend settings (*local.Config or *s3.Config); the backend package must
// be imported so its factory is registered.
func New(cfg Config, providerCfg any, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNop()
	}
	l := log.WithComponent("storage")

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q (not registered)", cfg.Provider)
	}

	l.Info("initializing storage", map[string]interface{}{"provider": cfg.Provider})
	return f(cfg, providerCfg, l)
}
