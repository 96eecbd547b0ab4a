package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.ServiceName != "ledgerflow" {
		t.Errorf("expected service ledgerflow, got %s", cfg.ServiceName)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected interval 15s, got %v", cfg.Interval)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected sample rate 1.0, got %v", cfg.SampleRate)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{SampleRate: 1.5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sample rate above 1")
	}
}

func TestNewMetrics(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	m.RecordIn(ctx, "etl")
	m.RecordOutputs(ctx, "etl", "fetch-ledger", 3)
	m.RecordRetry(ctx, "etl", "fetch-ledger")
	m.RecordSinkError(ctx, "etl", "kafka")
	m.RecordProcess(ctx, "etl", "fetch-ledger", StatusFailed, time.Millisecond)
	m.RecordRun(ctx, "etl", StatusOK, time.Second)
}

func TestSetupWithoutEndpoints(t *testing.T) {
	ctx := context.Background()
	tel, err := Setup(ctx, Config{}, nil)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if tel.Metrics == nil {
		t.Error("expected metrics to be created")
	}
	if err := tel.Shutdown(ctx); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestExecutionSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	exec := NewExecution("backfill", "exec-1", NopMetrics())
	ctx := exec.Begin(context.Background())
	exec.End(ctx, errors.New("boom"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != SpanRun {
		t.Errorf("expected span %s, got %s", SpanRun, spans[0].Name)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected the error to be recorded as an event")
	}
	if exec.EndTime.IsZero() || exec.EndTime.Before(exec.StartTime) {
		t.Errorf("unexpected timing start=%v end=%v", exec.StartTime, exec.EndTime)
	}
}

func TestExecutionDurationBeforeBegin(t *testing.T) {
	exec := NewExecution("x", "id", nil)
	if exec.Duration() != 0 {
		t.Errorf("expected zero duration, got %v", exec.Duration())
	}
}

func TestComponentLifecycle(t *testing.T) {
	c := NewComponent(Config{}, nil)
	if c.Metrics() == nil {
		t.Fatal("expected no-op metrics before start")
	}
	if h := c.Health(context.Background()); h.Status != "unhealthy" {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if h := c.Health(context.Background()); h.Status != "healthy" {
		t.Errorf("expected healthy after start, got %s", h.Status)
	}
	if c.Describe().Details != "local only" {
		t.Errorf("expected local only, got %s", c.Describe().Details)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Errorf("second Stop should be a no-op, got %v", err)
	}
}
