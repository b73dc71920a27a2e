package storage

import (
	"context"
	"fmt"

	"github.com/lifemap/memorymap/component"
	"github.com/lifemap/memorymap/logger"
)

// healthProbeKey is checked for existence; its absence is healthy.
const healthProbeKey = ".health"

// Component owns the object store behind uploads, recordings and photos.
type Component struct {
	storage     Storage
	cfg         Config
	providerCfg any
	log         *logger.Logger
}

// NewComponent creates the component. providerCfg is the backend's own
// config (*local.Config or *s3.Config).
func NewComponent(cfg Config, providerCfg any, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Component{cfg: cfg, providerCfg: providerCfg, log: log.WithComponent("storage")}
}

var _ component.Component = (*Component)(nil)

// Storage returns the backend, or nil before Start or when disabled.
func (c *Component) Storage() Storage { return c.storage }

func (c *Component) Name() string { return "storage" }

// Start builds the configured backend.
func (c *Component) Start(context.Context) error {
	if !c.cfg.Enabled {
		c.log.Info("Storage disabled; upload routes are not mounted")
		return nil
	}
	s, err := New(c.cfg, c.providerCfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.storage = s
	return nil
}

func (c *Component) Stop(context.Context) error {
	c.storage = nil
	return nil
}

// Health probes the backend with an existence check.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case !c.cfg.Enabled:
		h.Message = "disabled"
	case c.storage == nil:
		h.Status, h.Message = component.StatusUnhealthy, "storage not initialized"
	default:
		if _, err := c.storage.Exists(ctx, healthProbeKey); err != nil {
			h.Status, h.Message = component.StatusUnhealthy, "probe failed: "+err.Error()
		}
	}
	return h
}

// Locator is implemented by backend configs that can name where objects live.
type Locator interface {
	Location() string
}

func (c *Component) Describe() component.Description {
	details := "provider=" + c.cfg.Provider
	if l, ok := c.providerCfg.(Locator); ok && l.Location() != "" {
		details += " at=" + l.Location()
	}
	if c.cfg.Enabled {
		details += fmt.Sprintf(" max_upload=%dMB", c.cfg.MaxFileSize>>20)
	}
	return component.Description{Name: "Storage", Type: "storage", Details: details}
}
