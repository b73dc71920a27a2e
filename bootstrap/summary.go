package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/lifemap/memorymap/component"
)

// Summary is the startup banner: infrastructure, routes and live health.
type Summary struct {
	serviceName string
	version     string
	startup     time.Duration
}

// NewSummary creates a summary for one startup.
func NewSummary(serviceName, version string, startup time.Duration) *Summary {
	return &Summary{serviceName: serviceName, version: version, startup: startup}
}

// Print writes the summary, reading components from registry.
func (s *Summary) Print(w io.Writer, registry *component.Registry) {
	fmt.Fprintf(w, "\n%s %s started in %.2fs\n", s.serviceName, s.version, s.startup.Seconds())

	if descs := registry.Descriptions(); len(descs) > 0 {
		fmt.Fprintf(w, "\nInfrastructure\n")
		for i, d := range descs {
			fmt.Fprintf(w, "   %s %s [%s]: %s\n", branch(i, len(descs)), d.Name, d.Type, d.Details)
		}
	}

	if routes := registry.Routes(); len(routes) > 0 {
		fmt.Fprintf(w, "\nRoutes (%d)\n", len(routes))
		for i, r := range routes {
			fmt.Fprintf(w, "   %s %-7s %s -> %s\n", branch(i, len(routes)), r.Method, r.Path, r.Handler)
		}
	}

	if health := registry.HealthAll(context.Background()); len(health) > 0 {
		fmt.Fprintf(w, "\nHealth (%s)\n", component.Overall(health))
		for i, h := range health {
			msg := ""
			if h.Message != "" {
				msg = ": " + h.Message
			}
			fmt.Fprintf(w, "   %s %s %s %s%s\n", branch(i, len(health)), healthIcon(h.Status), h.Name, h.Status, msg)
		}
	}
	fmt.Fprintln(w)
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
