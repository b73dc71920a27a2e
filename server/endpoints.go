package server

import (
	"net/http"

	"github.com/lifemap/memorymap/server/endpoint"
)

var systemPaths = map[string]bool{
	"/health":     true,
	"/api/health": true,
	"/alive":      true,
	"/ready":      true,
	"/version":    true,
	"/metrics":    true,
}

// SystemEndpoints configures RegisterSystemEndpoints.
type SystemEndpoints struct {
	ServiceName string
	Version     string
	Checker     endpoint.HealthChecker
	// Metrics serves /metrics; nil falls back to a runtime snapshot.
	Metrics http.Handler
}

// RegisterSystemEndpoints mounts the probe, version and metrics routes.
func (s *Server) RegisterSystemEndpoints(e SystemEndpoints) {
	health := endpoint.Health(e.ServiceName, e.Version, e.Checker)
	s.engine.GET("/health", health)
	s.engine.GET("/api/health", health)
	s.engine.GET("/alive", endpoint.Liveness(e.ServiceName))
	s.engine.GET("/ready", endpoint.Readiness(e.ServiceName, e.Checker))
	s.engine.GET("/version", endpoint.Version(e.ServiceName))
	s.engine.GET("/metrics", endpoint.Metrics(e.Metrics))
}
