package server

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lifemap/memorymap/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// Component runs a Server under the component registry. Register it last so
// it starts after its dependencies and stops first.
type Component struct {
	server *Server
}

// NewComponent wraps s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

func (c *Component) Name() string { return componentName }

func (c *Component) Start(ctx context.Context) error { return c.server.Start(ctx) }

func (c *Component) Stop(ctx context.Context) error { return c.server.Stop(ctx) }

func (c *Component) Health(context.Context) component.Health {
	if !c.server.running() {
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not listening"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: fmt.Sprintf("%s (h2c, max body %s)", c.server.Addr(), c.server.config.MaxBodySize),
	}
}

// Routes lists the gin routes, API routes first.
func (c *Component) Routes() []component.Route {
	gr := c.server.engine.Routes()
	sort.Slice(gr, func(i, j int) bool {
		iSys, jSys := systemPaths[gr[i].Path], systemPaths[gr[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if gr[i].Path != gr[j].Path {
			return gr[i].Path < gr[j].Path
		}
		return gr[i].Method < gr[j].Method
	})
	out := make([]component.Route, 0, len(gr))
	for _, r := range gr {
		out = append(out, component.Route{Method: r.Method, Path: r.Path, Handler: handlerName(r.Handler)})
	}
	return out
}

// handlerName trims the package path from a gin handler name.
func handlerName(full string) string {
	if i := strings.LastIndex(full, "/"); i >= 0 {
		full = full[i+1:]
	}
	return strings.TrimSuffix(full, "-fm")
}
