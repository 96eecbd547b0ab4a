package ingest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/ledgerflow/collector"
	"github.com/kbukum/ledgerflow/flow"
	"github.com/kbukum/ledgerflow/logger"
	"github.com/kbukum/ledgerflow/observability"
	"github.com/kbukum/ledgerflow/pipeline"
	"github.com/kbukum/ledgerflow/processor"
	"github.com/kbukum/ledgerflow/queue"
	"github.com/kbukum/ledgerflow/record"
	"github.com/kbukum/ledgerflow/schema"
	"github.com/kbukum/ledgerflow/source"
)

// Queue names.
const (
	QueueLedgers      = "ledgers"
	QueueTransactions = "transactions"
	QueueHeaders      = "headers"
)

// Stage describes one graph stage for the startup summary.
type Stage struct {
	Name    string
	Kind    string
	Details string
}

// Pipeline is one assembled run.
type Pipeline struct {
	cfg  *Config
	deps Deps
	log  *logger.Logger

	graph       *pipeline.Graph
	recEngine   *flow.Engine[record.Record]
	fetchEngine *flow.Engine[processor.FetchRequest]
	execution   *observability.Execution

	executionID string
	startIndex  int64
	stages      []Stage
	queues      map[string]interface{ Len() int }

	etl        *processor.ETL
	attributes *processor.AttributeCollection
	checkpoint *processor.Checkpoint[processor.FetchRequest]
	stream     *source.LedgerStream

	mu      sync.Mutex
	started time.Time
	ended   time.Time
	runErr  error
}

// Build assembles the graph for cfg.Mode. It may call the node to resolve
// the starting ledger.
func Build(ctx context.Context, cfg *Config, deps Deps) (*Pipeline, error) {
	if deps.Client == nil {
		return nil, fmt.Errorf("ingest: rpc client is required")
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NopMetrics()
	}
	log := logger.OrNop(deps.Log).WithComponent("ingest")

	p := &Pipeline{
		cfg:         cfg,
		deps:        deps,
		log:         log,
		executionID: uuid.NewString(),
		queues:      make(map[string]interface{ Len() int }),
		graph:       pipeline.New(deps.Log, pipeline.WithDrainTimeout(cfg.DrainTimeout)),
	}
	opts := []flow.EngineOption{
		flow.WithRetry(cfg.Retry),
		flow.WithLogger(deps.Log),
		flow.WithMetrics(deps.Metrics),
	}
	p.recEngine = flow.NewEngine[record.Record](opts...)
	p.fetchEngine = flow.NewEngine[processor.FetchRequest](opts...)
	p.execution = observability.NewExecution(cfg.Name+"-"+cfg.Mode, p.executionID, deps.Metrics)

	var err error
	switch cfg.Mode {
	case ModeBackfill:
		err = p.buildBackfill(ctx)
	case ModeStream:
		err = p.buildStream(ctx)
	case ModeFile:
		err = p.buildFile()
	case ModeObjects:
		err = p.buildObjects(ctx)
	default:
		err = fmt.Errorf("ingest: unknown mode %q", cfg.Mode)
	}
	if err != nil {
		return nil, err
	}
	log.Info("pipeline built", logger.Fields(
		"mode", cfg.Mode,
		logger.FieldExecutionID, p.executionID,
		logger.FieldCount, len(p.stages),
	))
	return p, nil
}

func (p *Pipeline) track(name, kind, details string) {
	p.stages = append(p.stages, Stage{Name: name, Kind: kind, Details: details})
}

// latestMinusOne is the newest ledger that is certainly complete.
func (p *Pipeline) latestMinusOne(ctx context.Context) (int64, error) {
	latest, err := p.deps.Client.LatestValidatedIndex(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve latest ledger: %w", err)
	}
	return latest - 1, nil
}

// backfillStart prefers an explicit index, then the saved checkpoint, then
// the node's latest validated ledger minus one.
func (p *Pipeline) backfillStart(ctx context.Context) (int64, string, error) {
	if p.cfg.Backfill.StartIndex > 0 {
		return p.cfg.Backfill.StartIndex, "config", nil
	}
	if p.deps.Checkpoints != nil {
		idx, ok, err := p.deps.Checkpoints.Load(ctx, p.cfg.Checkpoint.Key)
		if err != nil {
			return 0, "", err
		}
		if ok && idx > 0 {
			return idx, "checkpoint", nil
		}
	}
	idx, err := p.latestMinusOne(ctx)
	return idx, "latest", err
}

func (p *Pipeline) buildBackfill(ctx context.Context) error {
	start, origin, err := p.backfillStart(ctx)
	if err != nil {
		return err
	}
	p.startIndex = start
	p.log.Info("backfill start resolved", logger.Fields(
		logger.FieldLedgerIndex, start, logger.FieldSource, origin,
	))

	counters, err := source.NewShardedCounters(start, p.cfg.Backfill.Shards, p.cfg.Queue.Capacity, p.deps.Log)
	if err != nil {
		return err
	}
	ledgers := p.ledgerQueue()
	fetch := flow.New("fetch", []flow.Binding[processor.FetchRequest]{
		flow.Bind[processor.FetchRequest, record.Record](processor.NewFetchLedger(p.deps.Client, p.deps.Log), ledgers),
	})
	for _, c := range counters {
		p.graph.AddHead(c)
		src := source.Map[int64, processor.FetchRequest](c, processor.IndexRequest)
		pipeline.AddFlow(p.graph, "fetch/"+c.Name(), p.fetchEngine, fetch, src, 1, ledgers)
	}
	p.track("fetch", "source", fmt.Sprintf("%d counter shards from ledger %d (%s)", len(counters), start, origin))
	p.addLedgerStages(ledgers)
	return nil
}

func (p *Pipeline) buildStream(ctx context.Context) error {
	if p.deps.Subscriber == nil {
		return fmt.Errorf("ingest: stream mode needs a subscriber")
	}
	p.stream = source.NewLedgerStream(p.deps.Subscriber, source.LedgerStreamConfig{
		ReconnectDelay: p.cfg.Stream.ReconnectDelay,
		Capacity:       p.cfg.Queue.Capacity,
	}, p.deps.Log)
	p.graph.AddHead(p.stream)

	ledgers := p.ledgerQueue()
	bindings := []flow.Binding[processor.FetchRequest]{
		flow.Bind[processor.FetchRequest, record.Record](processor.NewFetchLedger(p.deps.Client, p.deps.Log), ledgers),
	}
	details := "subscribed to " + p.cfg.Stream.URL
	if p.deps.Checkpoints != nil {
		if idx, ok, err := p.deps.Checkpoints.Load(ctx, p.cfg.Checkpoint.Key); err != nil {
			return err
		} else if ok {
			p.startIndex = idx
			p.log.Info("last checkpoint", logger.Fields(logger.FieldLedgerIndex, idx))
		}
		p.checkpoint = processor.NewCheckpoint(p.deps.Checkpoints, p.cfg.Checkpoint.Key, p.cfg.Checkpoint.Every,
			func(req processor.FetchRequest) (int64, bool) {
				idx, err := processor.ResolveIndex(req)
				return idx, err == nil
			}, p.deps.Log)
		bindings = append(bindings, flow.Bind[processor.FetchRequest, processor.FetchRequest](p.checkpoint))
		details += fmt.Sprintf(", checkpoint %s every %d", p.cfg.Checkpoint.Backend, p.cfg.Checkpoint.Every)
	}

	src := source.Map[int64, processor.FetchRequest](p.stream, processor.IndexRequest)
	pipeline.AddFlow(p.graph, "fetch", p.fetchEngine, flow.New("fetch", bindings), src, 1, ledgers)
	p.track("fetch", "source", details)
	p.addLedgerStages(ledgers)
	return nil
}

func (p *Pipeline) buildFile() error {
	lines, err := source.NewFileLines(p.cfg.File.Path, p.cfg.Queue.Capacity, p.deps.Log)
	if err != nil {
		return err
	}
	p.graph.AddHead(lines)

	ledgers := p.ledgerQueue()
	fetch := flow.New("fetch", []flow.Binding[processor.FetchRequest]{
		flow.Bind[processor.FetchRequest, record.Record](processor.NewFetchLedger(p.deps.Client, p.deps.Log), ledgers),
	})
	src := source.Map[int64, processor.FetchRequest](lines, processor.IndexRequest)
	pipeline.AddFlow(p.graph, "fetch", p.fetchEngine, fetch, src, 1, ledgers)
	p.track("fetch", "source", "indices from "+p.cfg.File.Path)
	p.addLedgerStages(ledgers)
	return nil
}

func (p *Pipeline) buildObjects(ctx context.Context) error {
	idx := p.cfg.Objects.LedgerIndex
	if idx <= 0 {
		var err error
		if idx, err = p.latestMinusOne(ctx); err != nil {
			return err
		}
	}
	p.startIndex = idx

	objects, err := source.NewLedgerObjects(p.deps.Client, source.LedgerObjectsConfig{
		LedgerIndex: idx,
		PageLimit:   p.cfg.Objects.PageLimit,
		ExecutionID: p.executionID,
		Retry:       p.cfg.Retry,
		Capacity:    p.cfg.Queue.Capacity,
	}, p.deps.Log)
	if err != nil {
		return err
	}
	p.graph.AddHead(objects)
	p.track("objects", "source", fmt.Sprintf("ledger_data walk of ledger %d", idx))
	return p.addTerminal(objects, schema.NameObject)
}

func (p *Pipeline) ledgerQueue() *queue.SourceSink[record.Record] {
	q := queue.New[record.Record](QueueLedgers, p.cfg.Queue.Capacity)
	p.queues[QueueLedgers] = q
	return q
}

// addLedgerStages wires everything downstream of the ledger queue:
// decomposition into transactions and headers, then their sinks.
func (p *Pipeline) addLedgerStages(ledgers *queue.SourceSink[record.Record]) {
	txs := queue.New[record.Record](QueueTransactions, p.cfg.Queue.Capacity)
	p.queues[QueueTransactions] = txs
	bindings := []flow.Binding[record.Record]{
		flow.Bind[record.Record, record.Record](processor.NewDecompose(p.deps.Log), txs),
	}
	downstream := []pipeline.Stoppable{txs}

	headerSinks := p.headerSinks()
	var headers *queue.SourceSink[record.Record]
	if len(headerSinks) > 0 {
		headers = queue.New[record.Record](QueueHeaders, p.cfg.Queue.Capacity)
		p.queues[QueueHeaders] = headers
		bindings = append(bindings, flow.Bind[record.Record, record.Record](processor.NewLedgerHeader(p.deps.Log), headers))
		downstream = append(downstream, headers)
	}
	pipeline.AddFlow(p.graph, "decompose", p.recEngine, flow.New("decompose", bindings), ledgers, p.cfg.Workers, downstream...)
	p.track("decompose", "flow", fmt.Sprintf("%s -> %s", QueueLedgers, bindingTargets(len(headerSinks) > 0)))

	if headers != nil {
		hf := flow.New("headers", []flow.Binding[record.Record]{
			flow.Bind(processor.Passthrough[record.Record]("headers"), headerSinks...),
		})
		pipeline.AddFlow(p.graph, "headers", p.recEngine, hf, headers, 1)
		p.track("headers", "sink", collectorNames(headerSinks))
	}

	// addTerminal only fails on an unknown schema, which Validate rules out.
	if err := p.addTerminal(txs, p.cfg.Schema); err != nil {
		p.log.Error("terminal stage not added", logger.Fields(logger.FieldError, err.Error()))
	}
}

func bindingTargets(withHeaders bool) string {
	if withHeaders {
		return QueueTransactions + ", " + QueueHeaders
	}
	return QueueTransactions
}

// addTerminal runs ETL, or attribute collection, over src into the sinks.
func (p *Pipeline) addTerminal(src source.Source[record.Record], schemaName string) error {
	s, err := schema.ByName(schemaName)
	if err != nil {
		return err
	}

	if p.cfg.Attributes {
		p.attributes = processor.NewAttributeCollection(s)
		var sinks []collector.Collector[string]
		if p.cfg.Sinks.Stdout.Enabled {
			sinks = append(sinks, collector.NewWriter[string](p.cfg.Sinks.Stdout, p.deps.Stdout))
		}
		f := flow.New("attributes", []flow.Binding[record.Record]{
			flow.Bind[record.Record, string](p.attributes, sinks...),
		})
		pipeline.AddFlow(p.graph, "attributes", p.recEngine, f, src, p.cfg.Workers)
		p.track("attributes", "flow", fmt.Sprintf("%s schema discovery, execution %s", schemaName, p.attributes.ExecutionID()))
		return nil
	}

	sinks, err := p.recordSinks()
	if err != nil {
		return err
	}
	p.etl = processor.NewETL("etl", s, p.deps.Log)
	f := flow.New("etl", []flow.Binding[record.Record]{
		flow.Bind[record.Record, record.Record](p.etl, sinks...),
	})
	pipeline.AddFlow(p.graph, "etl", p.recEngine, f, src, p.cfg.Workers)
	p.track("etl", "flow", fmt.Sprintf("%s schema -> %s", schemaName, collectorNames(sinks)))
	return nil
}

// recordSinks builds the terminal collectors in delivery order.
func (p *Pipeline) recordSinks() ([]collector.Collector[record.Record], error) {
	var sinks []collector.Collector[record.Record]
	if p.cfg.Sinks.Stdout.Enabled {
		sinks = append(sinks, collector.NewWriter[record.Record](p.cfg.Sinks.Stdout, p.deps.Stdout))
	}
	if p.deps.Publisher != nil {
		sinks = append(sinks, collector.NewKafka(p.deps.Publisher, p.cfg.Sinks.Kafka.Topic, p.cfg.Sinks.Kafka.KeyField))
	}
	if p.cfg.Sinks.HTTP.Enabled {
		h, err := collector.NewHTTP[record.Record](p.cfg.Sinks.HTTP)
		if err != nil {
			return nil, fmt.Errorf("http sink: %w", err)
		}
		sinks = append(sinks, h)
	}
	if p.deps.DB != nil {
		sinks = append(sinks, collector.NewWarehouse(p.deps.DB, p.cfg.Sinks.Warehouse.Table))
	}
	return sinks, nil
}

func (p *Pipeline) headerSinks() []collector.Collector[record.Record] {
	var sinks []collector.Collector[record.Record]
	if p.cfg.Sinks.Headers.Enabled {
		sinks = append(sinks, collector.NewWriter[record.Record](p.cfg.Sinks.Headers, p.deps.Stdout))
	}
	if p.deps.Publisher != nil && p.cfg.Sinks.Kafka.HeaderTopic != "" {
		sinks = append(sinks, collector.NewKafka(p.deps.Publisher, p.cfg.Sinks.Kafka.HeaderTopic, "ledger_hash"))
	}
	return sinks
}

func collectorNames[T any](cs []collector.Collector[T]) string {
	if len(cs) == 0 {
		return "no sinks"
	}
	out := ""
	for i, c := range cs {
		if i > 0 {
			out += ", "
		}
		out += c.Name()
	}
	return out
}

// Run executes the graph until it drains, fails or ctx is cancelled. A
// cancelled run that drained cleanly returns nil. Pending checkpoints are
// flushed before returning.
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	p.started = time.Now()
	p.mu.Unlock()

	runCtx := p.execution.Begin(ctx)
	p.log.Info("pipeline started", logger.Fields(
		"mode", p.cfg.Mode, logger.FieldExecutionID, p.executionID,
	))

	err := p.graph.Run(runCtx)
	if p.checkpoint != nil {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		p.checkpoint.Flush(flushCtx)
		cancel()
	}
	p.execution.End(context.WithoutCancel(ctx), err)

	p.mu.Lock()
	p.ended = time.Now()
	p.runErr = err
	p.mu.Unlock()

	fields := logger.DurationFields("pipeline", p.execution.Duration())
	fields[logger.FieldExecutionID] = p.executionID
	if p.etl != nil {
		fields["dropped"] = p.etl.Dropped()
	}
	if err != nil {
		fields[logger.FieldError] = err.Error()
		p.log.Error("pipeline failed", fields)
		return err
	}
	p.log.Info("pipeline finished", fields)
	return nil
}

// Stop ends the head sources; queued work still drains.
func (p *Pipeline) Stop() { p.graph.Stop() }

// ExecutionID identifies this run.
func (p *Pipeline) ExecutionID() string { return p.executionID }

// StartIndex is the ledger the run started from, or 0 when not resolved.
func (p *Pipeline) StartIndex() int64 { return p.startIndex }

// Stages lists the graph stages in build order.
func (p *Pipeline) Stages() []Stage { return append([]Stage(nil), p.stages...) }

// Results returns the per-stage flow results recorded so far.
func (p *Pipeline) Results() map[string]flow.Result { return p.graph.Results() }

// Status is a JSON snapshot of the run.
type Status struct {
	Mode        string                `json:"mode"`
	ExecutionID string                `json:"execution_id"`
	State       string                `json:"state"`
	StartIndex  int64                 `json:"start_index,omitempty"`
	ElapsedMS   int64                 `json:"elapsed_ms"`
	Queues      map[string]int        `json:"queues"`
	Flows       map[string]FlowStatus `json:"flows,omitempty"`
	LastLedger  int64                 `json:"last_ledger,omitempty"`
	Checkpoint  int64                 `json:"checkpoint,omitempty"`
	Dropped     int64                 `json:"dropped,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// FlowStatus is the outcome of one finished stage.
type FlowStatus struct {
	Status     string `json:"status"`
	RecordsIn  int64  `json:"records_in"`
	Outputs    int64  `json:"outputs"`
	SinkErrors int64  `json:"sink_errors"`
	Retries    int64  `json:"retries"`
}

// Status snapshots the run.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	started, ended, runErr := p.started, p.ended, p.runErr
	p.mu.Unlock()

	st := Status{
		Mode:        p.cfg.Mode,
		ExecutionID: p.executionID,
		StartIndex:  p.startIndex,
		Queues:      make(map[string]int, len(p.queues)),
	}
	switch {
	case started.IsZero():
		st.State = "pending"
	case ended.IsZero():
		st.State = "running"
		st.ElapsedMS = time.Since(started).Milliseconds()
	case runErr != nil:
		st.State = "failed"
		st.Error = runErr.Error()
		st.ElapsedMS = ended.Sub(started).Milliseconds()
	default:
		st.State = "finished"
		st.ElapsedMS = ended.Sub(started).Milliseconds()
	}
	for name, q := range p.queues {
		st.Queues[name] = q.Len()
	}
	if results := p.graph.Results(); len(results) > 0 {
		st.Flows = make(map[string]FlowStatus, len(results))
		for name, r := range results {
			st.Flows[name] = FlowStatus{
				Status:     r.Status.String(),
				RecordsIn:  r.RecordsIn,
				Outputs:    r.Outputs,
				SinkErrors: r.SinkErrors,
				Retries:    r.Retries,
			}
		}
	}
	if p.stream != nil {
		st.LastLedger = p.stream.LastIndex()
	}
	if p.checkpoint != nil {
		st.Checkpoint = p.checkpoint.Saved()
	}
	if p.etl != nil {
		st.Dropped = p.etl.Dropped()
	}
	return st
}
