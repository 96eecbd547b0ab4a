package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/ledgerflow/component"
	"github.com/kbukum/ledgerflow/logger"
)

// Component wraps Storage for registry lifecycle management.
type Component struct {
	storage Storage
	cfg     Config
	log     *logger.Logger
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a storage component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	return &Component{cfg: cfg, log: logger.OrNop(log)}
}

// Storage returns the backend, or nil before Start.
func (c *Component) Storage() Storage { return c.storage }

// Name returns the component name.
func (c *Component) Name() string { return "storage" }

// Start initializes the backend.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Info("storage component is disabled")
		return nil
	}
	s, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.storage = s
	return nil
}

// Stop drops the backend.
func (c *Component) Stop(_ context.Context) error {
	c.storage = nil
	return nil
}

// Health probes the backend with an existence check.
func (c *Component) Health(ctx context.Context) component.Health {
	if !c.cfg.Enabled {
		return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: "disabled"}
	}
	if c.storage == nil {
		return component.Unhealthy(c.Name(), "storage not initialized")
	}
	if _, err := c.storage.Exists(ctx, ".health"); err != nil {
		return component.Unhealthy(c.Name(), fmt.Sprintf("health probe failed: %v", err))
	}
	return component.Healthy(c.Name())
}

// Describe returns the startup summary.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("provider=%s", c.cfg.Provider)
	if c.cfg.Bucket != "" {
		details += fmt.Sprintf(" bucket=%s", c.cfg.Bucket)
	}
	return component.Description{Name: "Storage", Type: "storage", Details: details}
}
