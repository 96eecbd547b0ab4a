package database

import (
	"context"
	"fmt"

	"github.com/kbukum/ledgerflow/component"
	"github.com/kbukum/ledgerflow/logger"
)

// Component wraps DB for registry lifecycle management.
type Component struct {
	db  *DB
	cfg Config
	log *logger.Logger
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a database component. The connection opens on Start.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: logger.OrNop(log)}
}

// DB returns the connection, or nil before Start.
func (c *Component) DB() *DB { return c.db }

// Name returns the component name.
func (c *Component) Name() string { return "database" }

// Start connects and, when configured, migrates the warehouse table.
func (c *Component) Start(ctx context.Context) error {
	db, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("database start: %w", err)
	}
	if c.cfg.AutoMigrate {
		if err := db.AutoMigrateTable(c.cfg.Table, &Row{}); err != nil {
			_ = db.Close()
			return fmt.Errorf("database auto-migrate: %w", err)
		}
	}
	c.db = db
	return nil
}

// Stop closes the connection.
func (c *Component) Stop(_ context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Health pings the database.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.db == nil {
		return component.Unhealthy(c.Name(), "database not initialized")
	}
	if err := c.db.PingContext(ctx); err != nil {
		return component.Unhealthy(c.Name(), fmt.Sprintf("ping failed: %v", err))
	}
	return component.Healthy(c.Name())
}

// Describe returns the startup summary.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("%s table=%s", c.cfg.DSN, c.cfg.Table)
	if c.cfg.AutoMigrate {
		details += " auto-migrate=on"
	}
	return component.Description{Name: "Database", Type: "database", Details: details}
}
