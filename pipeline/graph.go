package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/ledgerflow/flow"
	"github.com/kbukum/ledgerflow/logger"
	"github.com/kbukum/ledgerflow/source"
)

// DefaultDrainTimeout bounds how long Run waits for stages to drain after
// its context is cancelled.
const DefaultDrainTimeout = 30 * time.Second

// Stoppable is anything whose stream can be ended: sources and queues.
type Stoppable interface {
	Stop()
}

// StageFunc runs one stage to completion.
type StageFunc func(ctx context.Context) error

type stage struct {
	name       string
	run        StageFunc
	downstream []Stoppable
}

// Option configures a Graph.
type Option func(*Graph)

// WithDrainTimeout sets how long Run lets stages drain after cancellation
// before cancelling them too. A value <= 0 cancels them at once.
func WithDrainTimeout(d time.Duration) Option {
	return func(g *Graph) { g.drainTimeout = d }
}

// Graph is a set of stages and the head sources feeding them.
type Graph struct {
	log          *logger.Logger
	drainTimeout time.Duration

	mu       sync.Mutex
	heads    []Stoppable
	stages   []stage
	results  map[string]flow.Result
	stopOnce sync.Once
}

// New creates an empty graph.
func New(log *logger.Logger, opts ...Option) *Graph {
	g := &Graph{
		log:          logger.OrNop(log).WithComponent("pipeline"),
		drainTimeout: DefaultDrainTimeout,
		results:      make(map[string]flow.Result),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddHead registers a head source. Stop ends heads first.
func (g *Graph) AddHead(src Stoppable) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.heads = append(g.heads, src)
}

// AddStage registers a task and the queues it writes into.
func (g *Graph) AddStage(name string, run StageFunc, downstream ...Stoppable) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stages = append(g.stages, stage{name: name, run: run, downstream: downstream})
}

// AddFlow registers a stage that runs workers executions of f over src.
// The merged flow.Result is kept for Results.
func AddFlow[I any](g *Graph, name string, e *flow.Engine[I], f *flow.Flow[I], src source.Source[I], workers int, downstream ...Stoppable) {
	g.AddStage(name, func(ctx context.Context) error {
		res := flow.Workers(ctx, e, f, src, workers)
		g.mu.Lock()
		g.results[name] = res
		g.mu.Unlock()
		return res.Err
	}, downstream...)
}

// Results returns the flow results recorded by AddFlow stages.
func (g *Graph) Results() map[string]flow.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]flow.Result, len(g.results))
	for k, v := range g.results {
		out[k] = v
	}
	return out
}

// Stop ends every head source. Downstream stages keep running until they
// drain. Safe to call more than once.
func (g *Graph) Stop() {
	g.stopOnce.Do(func() {
		g.mu.Lock()
		heads := append([]Stoppable(nil), g.heads...)
		g.mu.Unlock()
		g.log.Info("stopping head sources", logger.Fields(logger.FieldCount, len(heads)))
		for _, h := range heads {
			h.Stop()
		}
	})
}

// Run starts every stage and waits for all of them. It returns the first
// stage error; a failing stage cancels the others. Cancelling ctx stops the
// heads and gives the stages the drain timeout to finish what is queued.
func (g *Graph) Run(ctx context.Context) error {
	g.mu.Lock()
	stages := append([]stage(nil), g.stages...)
	g.mu.Unlock()

	writers := make(map[Stoppable]int)
	for _, s := range stages {
		for _, d := range s.downstream {
			writers[d]++
		}
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	eg, egCtx := errgroup.WithContext(runCtx)

	var wmu sync.Mutex
	release := func(s stage) {
		wmu.Lock()
		defer wmu.Unlock()
		for _, d := range s.downstream {
			writers[d]--
			if writers[d] == 0 {
				d.Stop()
			}
		}
	}

	for _, s := range stages {
		eg.Go(func() error {
			start := time.Now()
			err := s.run(egCtx)
			release(s)

			fields := logger.DurationFields(s.name, time.Since(start))
			if err != nil {
				fields[logger.FieldError] = err.Error()
				g.log.Error("stage failed", fields)
				return fmt.Errorf("stage %s: %w", s.name, err)
			}
			g.log.Info("stage finished", fields)
			return nil
		})
	}

	finished := make(chan struct{})
	go g.watch(ctx, finished, cancel)

	err := eg.Wait()
	close(finished)
	return err
}

// watch turns cancellation of the caller's context into a graceful stop,
// and into a hard cancel once the drain timeout expires.
func (g *Graph) watch(ctx context.Context, finished <-chan struct{}, cancel context.CancelFunc) {
	select {
	case <-finished:
		return
	case <-ctx.Done():
	}

	g.log.Info("shutdown requested, draining", logger.Fields("drain_timeout", g.drainTimeout.String()))
	g.Stop()
	if g.drainTimeout <= 0 {
		cancel()
		return
	}

	timer := time.NewTimer(g.drainTimeout)
	defer timer.Stop()
	select {
	case <-finished:
	case <-timer.C:
		g.log.Warn("drain timeout expired, cancelling stages")
		cancel()
	}
}
