// Package endpoint provides the probe and build-info handlers mounted by
// every deployment: /health, /alive, /ready, /version and /metrics.
package endpoint
