package server

import (
	"context"

	"github.com/kbukum/ledgerflow/component"
)

const componentName = "http-server"

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component adapts Server to the component lifecycle.
type Component struct {
	server *Server
}

// NewComponent wraps s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Server returns the wrapped server.
func (c *Component) Server() *Server { return c.server }

// Name returns the registration name.
func (c *Component) Name() string { return componentName }

// Start starts the HTTP server.
func (c *Component) Start(ctx context.Context) error { return c.server.Start(ctx) }

// Stop shuts the HTTP server down.
func (c *Component) Stop(ctx context.Context) error { return c.server.Stop(ctx) }

// Health is healthy once the listener is bound.
func (c *Component) Health(_ context.Context) component.Health {
	if c.server.Listening() {
		return component.Healthy(componentName)
	}
	return component.Unhealthy(componentName, "HTTP server not listening")
}

// Describe reports the listen address for the startup summary.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: c.server.Addr(),
		Port:    c.server.config.Port,
	}
}
