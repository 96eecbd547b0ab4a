package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/ledgerflow/logger"
)

const meterName = "github.com/kbukum/ledgerflow"

// Status values recorded on process and run instruments.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// InitMeter creates the meter provider and installs it globally. Without
// an endpoint the provider has no reader.
func InitMeter(ctx context.Context, cfg Config, log *logger.Logger) (*sdkmetric.MeterProvider, error) {
	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if cfg.MetricsEndpoint != "" {
		expOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.MetricsEndpoint)}
		if !cfg.Secure {
			expOpts = append(expOpts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, expOpts...)
		if err != nil {
			return nil, fmt.Errorf("creating metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Interval)),
		))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	logger.OrNop(log).Info("meter initialized", logger.Fields(
		"endpoint", cfg.MetricsEndpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the flow engine instruments.
type Metrics struct {
	recordsIn       metric.Int64Counter
	recordsOut      metric.Int64Counter
	retries         metric.Int64Counter
	failures        metric.Int64Counter
	sinkErrors      metric.Int64Counter
	processDuration metric.Float64Histogram
	runDuration     metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.recordsIn, err = meter.Int64Counter("ledgerflow.records.in",
		metric.WithDescription("Records pulled from a flow's source")); err != nil {
		return nil, fmt.Errorf("creating records.in counter: %w", err)
	}
	if m.recordsOut, err = meter.Int64Counter("ledgerflow.records.out",
		metric.WithDescription("Outputs produced per processor")); err != nil {
		return nil, fmt.Errorf("creating records.out counter: %w", err)
	}
	if m.retries, err = meter.Int64Counter("ledgerflow.processor.retries",
		metric.WithDescription("Processor attempts that failed and were retried")); err != nil {
		return nil, fmt.Errorf("creating processor.retries counter: %w", err)
	}
	if m.failures, err = meter.Int64Counter("ledgerflow.processor.failures",
		metric.WithDescription("Processor calls that failed after every attempt")); err != nil {
		return nil, fmt.Errorf("creating processor.failures counter: %w", err)
	}
	if m.sinkErrors, err = meter.Int64Counter("ledgerflow.collector.errors",
		metric.WithDescription("Collector deliveries that failed")); err != nil {
		return nil, fmt.Errorf("creating collector.errors counter: %w", err)
	}
	if m.processDuration, err = meter.Float64Histogram("ledgerflow.processor.duration",
		metric.WithDescription("Duration of one processor call including retries"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating processor.duration histogram: %w", err)
	}
	if m.runDuration, err = meter.Float64Histogram("ledgerflow.run.duration",
		metric.WithDescription("Duration of a flow or pipeline run"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating run.duration histogram: %w", err)
	}
	return &m, nil
}

// NopMetrics returns instruments backed by the no-op meter.
func NopMetrics() *Metrics {
	m, err := NewMetrics(noop.NewMeterProvider().Meter(meterName))
	if err != nil {
		panic(err)
	}
	return m
}

// RecordIn counts one record pulled by flow.
func (m *Metrics) RecordIn(ctx context.Context, flow string) {
	m.recordsIn.Add(ctx, 1, metric.WithAttributes(attribute.String("flow", flow)))
}

// RecordOutputs counts n outputs of stage.
func (m *Metrics) RecordOutputs(ctx context.Context, flow, stage string, n int) {
	m.recordsOut.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("stage", stage),
	))
}

// RecordRetry counts one retried attempt of stage.
func (m *Metrics) RecordRetry(ctx context.Context, flow, stage string) {
	m.retries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("stage", stage),
	))
}

// RecordSinkError counts one failed delivery to collector.
func (m *Metrics) RecordSinkError(ctx context.Context, flow, collector string) {
	m.sinkErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("collector", collector),
	))
}

// RecordProcess records one processor call.
func (m *Metrics) RecordProcess(ctx context.Context, flow, stage, status string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("stage", stage),
		attribute.String("status", status),
	)
	if status == StatusFailed {
		m.failures.Add(ctx, 1, attrs)
	}
	m.processDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordRun records the end of a flow or pipeline run.
func (m *Metrics) RecordRun(ctx context.Context, name, status string, d time.Duration) {
	m.runDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("flow", name),
		attribute.String("status", status),
	))
}
