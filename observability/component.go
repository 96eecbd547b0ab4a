package observability

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/ledgerflow/component"
	"github.com/kbukum/ledgerflow/logger"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component sets telemetry up on Start and flushes it on Stop. It is
// registered first so the providers outlive every other component.
type Component struct {
	cfg Config
	log *logger.Logger

	mu        sync.Mutex
	telemetry *Telemetry
}

// NewComponent creates a telemetry component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: logger.OrNop(log)}
}

// Name returns the component name.
func (c *Component) Name() string { return "telemetry" }

// Metrics returns the flow instruments, or no-op instruments before Start.
func (c *Component) Metrics() *Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.telemetry == nil {
		return NopMetrics()
	}
	return c.telemetry.Metrics
}

// Start initializes the meter and tracer providers.
func (c *Component) Start(ctx context.Context) error {
	t, err := Setup(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("telemetry start: %w", err)
	}
	c.mu.Lock()
	c.telemetry = t
	c.mu.Unlock()
	return nil
}

// Stop flushes pending metrics and spans.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	t := c.telemetry
	c.telemetry = nil
	c.mu.Unlock()
	if t == nil {
		return nil
	}
	return t.Shutdown(ctx)
}

// Health is healthy once the providers exist.
func (c *Component) Health(_ context.Context) component.Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.telemetry == nil {
		return component.Unhealthy(c.Name(), "telemetry not initialized")
	}
	return component.Healthy(c.Name())
}

// Describe reports where telemetry is exported.
func (c *Component) Describe() component.Description {
	details := "local only"
	switch {
	case c.cfg.MetricsEndpoint != "" && c.cfg.TracesEndpoint != "":
		details = fmt.Sprintf("metrics=%s traces=%s", c.cfg.MetricsEndpoint, c.cfg.TracesEndpoint)
	case c.cfg.MetricsEndpoint != "":
		details = "metrics=" + c.cfg.MetricsEndpoint
	case c.cfg.TracesEndpoint != "":
		details = "traces=" + c.cfg.TracesEndpoint
	}
	return component.Description{Name: "Telemetry", Type: "otel", Details: details}
}
