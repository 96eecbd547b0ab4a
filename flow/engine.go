package flow

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/ledgerflow/logger"
	"github.com/kbukum/ledgerflow/observability"
	"github.com/kbukum/ledgerflow/processor"
	"github.com/kbukum/ledgerflow/resilience"
	"github.com/kbukum/ledgerflow/source"
)

// EngineOption configures an Engine.
type EngineOption func(*settings)

type settings struct {
	retry   resilience.RetryConfig
	log     *logger.Logger
	metrics *observability.Metrics
}

// WithRetry sets the retry policy applied to every processor call.
func WithRetry(cfg resilience.RetryConfig) EngineOption {
	return func(s *settings) { s.retry = cfg }
}

// WithLogger sets the engine logger.
func WithLogger(log *logger.Logger) EngineOption {
	return func(s *settings) { s.log = log }
}

// WithMetrics sets the instruments runs record into.
func WithMetrics(m *observability.Metrics) EngineOption {
	return func(s *settings) { s.metrics = m }
}

// Engine executes flows over element type I.
type Engine[I any] struct {
	settings
}

// NewEngine creates an engine. Without options it retries with
// resilience.DefaultRetryConfig, logs nothing and records into no-op
// instruments.
func NewEngine[I any](opts ...EngineOption) *Engine[I] {
	s := settings{retry: resilience.DefaultRetryConfig()}
	for _, opt := range opts {
		opt(&s)
	}
	s.log = logger.OrNop(s.log).WithComponent("flow")
	if s.metrics == nil {
		s.metrics = observability.NopMetrics()
	}
	return &Engine[I]{settings: s}
}

// runtime is the per-run state shared by the bindings of one Execute call.
type runtime struct {
	flow       string
	retry      resilience.RetryConfig
	log        *logger.Logger
	metrics    *observability.Metrics
	outputs    atomic.Int64
	sinkErrors atomic.Int64
	retries    atomic.Int64
}

func (rt *runtime) sinkError(ctx context.Context, collector string, err error) {
	rt.sinkErrors.Add(1)
	rt.metrics.RecordSinkError(ctx, rt.flow, collector)
	rt.log.Error("collector failed", logger.Fields(
		logger.FieldCollector, collector,
		logger.FieldError, err.Error(),
	))
}

// process runs one processor call under the retry policy inside a span.
func process[I, O any](ctx context.Context, rt *runtime, p processor.Processor[I, O], in I) ([]O, error) {
	stage := p.Name()
	ctx, span := observability.StartSpan(ctx, observability.SpanProcess, trace.WithAttributes(
		attribute.String(observability.AttrFlow, rt.flow),
		attribute.String(observability.AttrStage, stage),
	))

	cfg := rt.retry
	cfg.Logger = rt.log.WithFields(logger.Fields(logger.FieldStage, stage))
	onRetry := cfg.OnRetry
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		rt.retries.Add(1)
		rt.metrics.RecordRetry(ctx, rt.flow, stage)
		if onRetry != nil {
			onRetry(attempt, err, delay)
		}
	}

	start := time.Now()
	outs, err := resilience.Retry(ctx, cfg, func(ctx context.Context) ([]O, error) {
		return p.Process(ctx, in)
	})

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusFailed
	} else {
		rt.outputs.Add(int64(len(outs)))
		rt.metrics.RecordOutputs(ctx, rt.flow, stage, len(outs))
		span.SetAttributes(attribute.Int(observability.AttrOutputs, len(outs)))
	}
	rt.metrics.RecordProcess(ctx, rt.flow, stage, status, time.Since(start))
	observability.EndSpan(span, err)
	return outs, err
}

// Execute pulls src until it drains or something fails. It starts src but
// never stops it; stopping sources is the caller's job.
func (e *Engine[I]) Execute(ctx context.Context, f *Flow[I], src source.Source[I]) Result {
	rt := &runtime{flow: f.name, retry: e.retry, metrics: e.metrics}
	rt.log = e.log.WithFields(logger.Fields(logger.FieldFlow, f.name, logger.FieldSource, src.Name()))

	start := time.Now()
	res := Result{Flow: f.name}
	finish := func(err error) Result {
		res.Outputs = rt.outputs.Load()
		res.SinkErrors = rt.sinkErrors.Load()
		res.Retries = rt.retries.Load()
		res.Duration = time.Since(start)
		status := observability.StatusOK
		if err != nil {
			res.Status, res.Err = StatusFailed, err
			status = observability.StatusFailed
			rt.log.Error("flow failed", res.Fields())
		} else {
			rt.log.Info("flow drained", res.Fields())
		}
		e.metrics.RecordRun(ctx, f.name, status, res.Duration)
		return res
	}

	if err := src.Start(ctx); err != nil {
		return finish(err)
	}
	rt.log.Debug("flow started")

	for {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		in, ok, err := src.Next(ctx)
		if err != nil {
			return finish(err)
		}
		if !ok {
			return finish(nil)
		}
		res.RecordsIn++
		e.metrics.RecordIn(ctx, f.name)

		outputs := make([][]any, len(f.bindings))
		for i, b := range f.bindings {
			outs, err := b.apply(ctx, rt, in)
			if err != nil {
				rt.log.Error("processor failed", logger.Fields(
					logger.FieldStage, b.name,
					logger.FieldError, err.Error(),
				))
				return finish(err)
			}
			outputs[i] = outs
		}
		if f.observer != nil {
			f.observer.Observe(ctx, in, outputs)
		}
	}
}
