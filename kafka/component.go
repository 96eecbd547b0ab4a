package kafka

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/ledgerflow/component"
	"github.com/kbukum/ledgerflow/logger"
)

// ProducerCloser is satisfied by any producer that can be closed.
type ProducerCloser interface {
	Close() error
}

// Component owns an injected producer's lifecycle and probes the brokers
// for health.
type Component struct {
	cfg      Config
	log      *logger.Logger
	producer ProducerCloser
	mu       sync.Mutex
	running  bool
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a Kafka component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: logger.OrNop(log).WithComponent("kafka")}
}

// SetProducer injects the producer closed on Stop. Call before Start.
func (c *Component) SetProducer(p ProducerCloser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.producer = p
}

// Name returns the component name.
func (c *Component) Name() string { return "kafka" }

// Start marks the component running; the producer connects lazily.
func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	return nil
}

// Stop closes the producer, flushing buffered messages.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	c.running = false
	if c.producer != nil {
		err := c.producer.Close()
		c.producer = nil
		return err
	}
	return nil
}

// Health dials the first broker and reads cluster metadata.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.Lock()
	running := c.running
	cfg := c.cfg
	c.mu.Unlock()

	if !running {
		return component.Unhealthy(c.Name(), "kafka not started")
	}
	dialer, err := CreateDialer(&cfg)
	if err != nil {
		return component.Unhealthy(c.Name(), fmt.Sprintf("dialer: %v", err))
	}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		return component.Unhealthy(c.Name(), fmt.Sprintf("broker unreachable: %v", err))
	}
	defer conn.Close()
	if _, err := conn.Brokers(); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusDegraded, Message: fmt.Sprintf("broker metadata: %v", err)}
	}
	return component.Healthy(c.Name())
}

// Describe returns the startup summary.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Kafka",
		Type:    "kafka",
		Details: fmt.Sprintf("brokers=%v topic=%s", c.cfg.Brokers, c.cfg.Topic),
	}
}
