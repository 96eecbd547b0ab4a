package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Execution tracks one pipeline run: its identity, start and end time,
// and the span covering it.
type Execution struct {
	Name      string
	ID        string
	StartTime time.Time
	EndTime   time.Time
	Metrics   *Metrics

	span trace.Span
}

// NewExecution creates an execution. A nil metrics skips recording.
func NewExecution(name, id string, metrics *Metrics) *Execution {
	return &Execution{Name: name, ID: id, Metrics: metrics}
}

// Begin stamps the start time and opens the run span.
func (e *Execution) Begin(ctx context.Context) context.Context {
	e.StartTime = time.Now()
	ctx, e.span = StartSpan(ctx, SpanRun, trace.WithAttributes(
		attribute.String(AttrFlow, e.Name),
		attribute.String(AttrExecutionID, e.ID),
	))
	return ctx
}

// End stamps the end time, closes the span and records the run duration.
func (e *Execution) End(ctx context.Context, err error) {
	e.EndTime = time.Now()
	status := StatusOK
	if err != nil {
		status = StatusFailed
	}
	if e.span != nil {
		e.span.SetAttributes(attribute.String("status", status))
		EndSpan(e.span, err)
	}
	if e.Metrics != nil {
		e.Metrics.RecordRun(ctx, e.Name, status, e.Duration())
	}
}

// Duration is the elapsed run time, up to now while the run is open.
func (e *Execution) Duration() time.Duration {
	if e.StartTime.IsZero() {
		return 0
	}
	if e.EndTime.IsZero() {
		return time.Since(e.StartTime)
	}
	return e.EndTime.Sub(e.StartTime)
}
