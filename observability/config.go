package observability

import (
	"fmt"
	"time"
)

// Config configures telemetry export.
type Config struct {
	// ServiceName is the name of the service.
	ServiceName string `mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `mapstructure:"service_version"`
	// Environment is the deployment environment.
	Environment string `mapstructure:"environment"`
	// MetricsEndpoint is the OTLP HTTP host:port for metrics. Empty disables export.
	MetricsEndpoint string `mapstructure:"metrics_endpoint"`
	// TracesEndpoint is the OTLP HTTP host:port for traces. Empty disables export.
	TracesEndpoint string `mapstructure:"traces_endpoint"`
	// Secure enables TLS on the exporters.
	Secure bool `mapstructure:"secure"`
	// Interval is the metric export interval.
	Interval time.Duration `mapstructure:"interval"`
	// SampleRate is the trace sampling rate, 0.0 to 1.0.
	SampleRate float64 `mapstructure:"sample_rate"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "ledgerflow"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "dev"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Interval <= 0 {
		c.Interval = 15 * time.Second
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

// Validate checks the sample rate range.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("telemetry sample_rate must be within [0, 1], got %v", c.SampleRate)
	}
	return nil
}
