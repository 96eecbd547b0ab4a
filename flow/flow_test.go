package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kbukum/ledgerflow/collector"
	apperrors "github.com/kbukum/ledgerflow/errors"
	"github.com/kbukum/ledgerflow/processor"
	"github.com/kbukum/ledgerflow/queue"
	"github.com/kbukum/ledgerflow/record"
	"github.com/kbukum/ledgerflow/resilience"
	"github.com/kbukum/ledgerflow/schema"
	"github.com/kbukum/ledgerflow/source"
	"github.com/kbukum/ledgerflow/xrpl"
)

// fastRetry retries without sleeping.
var fastRetry = resilience.RetryConfig{MaxAttempts: 3, Mute: true}

func newEngine[I any]() *Engine[I] {
	return NewEngine[I](WithRetry(fastRetry))
}

type sink[T any] struct {
	mu     sync.Mutex
	name   string
	values []T
	err    error
}

func (s *sink[T]) Name() string { return s.name }

func (s *sink[T]) Collect(_ context.Context, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.values = append(s.values, v)
	return nil
}

func (s *sink[T]) all() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.values...)
}

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestExecute_DrainsSource(t *testing.T) {
	double := processor.Func("double", func(_ context.Context, in int) ([]int, error) {
		return []int{in * 2}, nil
	})
	out := &sink[int]{name: "out"}
	f := New("double", []Binding[int]{Bind[int, int](double, out)})

	res := newEngine[int]().Execute(context.Background(), f, source.FromSlice("ints", ints(5)))
	if !res.OK() {
		t.Fatalf("expected ok, got %v", res.Err)
	}
	if res.RecordsIn != 5 || res.Outputs != 5 {
		t.Errorf("expected 5 in and 5 out, got %d/%d", res.RecordsIn, res.Outputs)
	}
	got := out.all()
	if len(got) != 5 || got[0] != 2 || got[4] != 10 {
		t.Errorf("expected [2..10], got %v", got)
	}
}

func TestExecute_BindingsAndCollectorOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) collector.Collector[string] {
		return collector.Func(name, func(_ context.Context, v string) error {
			mu.Lock()
			order = append(order, name+":"+v)
			mu.Unlock()
			return nil
		})
	}
	upper := processor.Func("a", func(_ context.Context, in int) ([]string, error) {
		return []string{fmt.Sprintf("a%d", in)}, nil
	})
	split := processor.Func("b", func(_ context.Context, in int) ([]int, error) {
		return []int{in, in}, nil
	})

	var observed [][]any
	f := New("multi",
		[]Binding[int]{
			Bind[int, string](upper, record("c1"), record("c2")),
			Bind[int, int](split),
		},
		WithObserver[int](ObserverFunc[int](func(_ context.Context, _ int, outs [][]any) {
			observed = outs
		})),
	)

	res := newEngine[int]().Execute(context.Background(), f, source.FromSlice("one", []int{7}))
	if !res.OK() {
		t.Fatalf("expected ok, got %v", res.Err)
	}
	want := []string{"c1:a7", "c2:a7"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, order)
	}
	if len(observed) != 2 || len(observed[0]) != 1 || len(observed[1]) != 2 {
		t.Errorf("unexpected observer outputs %v", observed)
	}
	if res.Outputs != 3 {
		t.Errorf("expected 3 outputs, got %d", res.Outputs)
	}
}

func TestExecute_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	flaky := processor.Func("flaky", func(_ context.Context, in int) ([]int, error) {
		if calls.Add(1) <= 2 {
			return nil, apperrors.TransientFetch("ledger", errors.New("timeout"))
		}
		return []int{in}, nil
	})
	out := &sink[int]{name: "out"}
	f := New("flaky", []Binding[int]{Bind[int, int](flaky, out)})

	res := newEngine[int]().Execute(context.Background(), f, source.FromSlice("one", []int{1}))
	if !res.OK() {
		t.Fatalf("expected ok after retries, got %v", res.Err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 invocations, got %d", calls.Load())
	}
	if res.Retries != 2 {
		t.Errorf("expected 2 retries, got %d", res.Retries)
	}
}

func TestExecute_RetryExhaustionFails(t *testing.T) {
	var calls atomic.Int32
	broken := processor.Func("broken", func(context.Context, int) ([]int, error) {
		calls.Add(1)
		return nil, apperrors.TransientFetch("ledger", errors.New("unavailable"))
	})
	f := New("broken", []Binding[int]{Bind[int, int](broken)})

	res := newEngine[int]().Execute(context.Background(), f, source.FromSlice("ints", ints(3)))
	if res.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", res.Status)
	}
	if !errors.Is(res.Err, resilience.ErrRetriesExhausted) {
		t.Errorf("expected retries exhausted, got %v", res.Err)
	}
	if calls.Load() != int32(fastRetry.MaxAttempts) {
		t.Errorf("expected %d invocations, got %d", fastRetry.MaxAttempts, calls.Load())
	}
	if res.RecordsIn != 1 {
		t.Errorf("expected the run to stop at the first record, got %d", res.RecordsIn)
	}
}

func TestExecute_ContractViolationNotRetried(t *testing.T) {
	var calls atomic.Int32
	bad := processor.Func("bad", func(context.Context, int) ([]int, error) {
		calls.Add(1)
		return nil, apperrors.ContractViolation("bad", "unexpected input")
	})
	f := New("bad", []Binding[int]{Bind[int, int](bad)})

	res := newEngine[int]().Execute(context.Background(), f, source.FromSlice("one", []int{1}))
	if !apperrors.HasCode(res.Err, apperrors.ErrCodeContractViolation) {
		t.Errorf("expected contract violation, got %v", res.Err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single invocation, got %d", calls.Load())
	}
}

func TestExecute_SinkErrorsDoNotStopFlow(t *testing.T) {
	bad := &sink[int]{name: "bad", err: errors.New("disk full")}
	good := &sink[int]{name: "good"}
	f := New("sinks", []Binding[int]{Bind[int, int](processor.Passthrough[int]("pass"), bad, good)})

	res := newEngine[int]().Execute(context.Background(), f, source.FromSlice("ints", ints(4)))
	if !res.OK() {
		t.Fatalf("expected ok, got %v", res.Err)
	}
	if res.SinkErrors != 4 {
		t.Errorf("expected 4 sink errors, got %d", res.SinkErrors)
	}
	if len(good.all()) != 4 {
		t.Errorf("expected the healthy collector to get 4 values, got %d", len(good.all()))
	}
}

func TestExecute_CancelledContextFails(t *testing.T) {
	q := queue.New[int]("never", 0)
	f := New("idle", []Binding[int]{Bind[int, int](processor.Passthrough[int]("pass"))})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := newEngine[int]().Execute(ctx, f, q)
	if res.Status != StatusFailed || !errors.Is(res.Err, context.Canceled) {
		t.Errorf("expected cancelled failure, got %s %v", res.Status, res.Err)
	}
}

func TestExecute_FlowIsReusable(t *testing.T) {
	out := &sink[int]{name: "out"}
	f := New("pass", []Binding[int]{Bind[int, int](processor.Passthrough[int]("pass"), out)})
	e := newEngine[int]()

	first := e.Execute(context.Background(), f, source.FromSlice("a", ints(2)))
	second := e.Execute(context.Background(), f, source.FromSlice("b", ints(3)))
	if first.RecordsIn != 2 || second.RecordsIn != 3 {
		t.Errorf("expected independent counters 2 and 3, got %d and %d", first.RecordsIn, second.RecordsIn)
	}
	if len(out.all()) != 5 {
		t.Errorf("expected 5 collected values, got %d", len(out.all()))
	}
}

func TestWorkers_ShareQueue(t *testing.T) {
	ctx := context.Background()
	q := queue.New[int]("work", 16)
	out := &sink[int]{name: "out"}
	f := New("pass", []Binding[int]{Bind[int, int](processor.Passthrough[int]("pass"), out)})

	done := make(chan Result, 1)
	go func() { done <- Workers(ctx, newEngine[int](), f, q, 4) }()

	for i := 1; i <= 200; i++ {
		if err := q.Collect(ctx, i); err != nil {
			t.Fatalf("collect: %v", err)
		}
	}
	q.Stop()

	res := <-done
	if !res.OK() {
		t.Fatalf("expected ok, got %v", res.Err)
	}
	if res.RecordsIn != 200 || len(out.all()) != 200 {
		t.Errorf("expected 200 records, got in=%d collected=%d", res.RecordsIn, len(out.all()))
	}
}

func TestWorkers_FirstFailureWins(t *testing.T) {
	boom := apperrors.ContractViolation("p", "boom")
	p := processor.Func("p", func(_ context.Context, in int) ([]int, error) {
		if in == 3 {
			return nil, boom
		}
		return []int{in}, nil
	})
	f := New("fail", []Binding[int]{Bind[int, int](p)})

	res := Workers(context.Background(), newEngine[int](), f, source.FromSlice("ints", ints(10)), 3)
	if res.Status != StatusFailed || !errors.Is(res.Err, boom) {
		t.Errorf("expected the contract violation, got %s %v", res.Status, res.Err)
	}
}

func TestMerge(t *testing.T) {
	failure := errors.New("x")
	m := Merge(
		Result{Flow: "f", RecordsIn: 2, Outputs: 3},
		Result{Flow: "f", RecordsIn: 1, Status: StatusFailed, Err: failure, SinkErrors: 1},
	)
	if m.RecordsIn != 3 || m.Outputs != 3 || m.SinkErrors != 1 {
		t.Errorf("unexpected counters %+v", m)
	}
	if m.Status != StatusFailed || m.Err != failure {
		t.Errorf("expected failure to propagate, got %s %v", m.Status, m.Err)
	}
}

// ledgerClient serves one ledger with a fixed number of transactions.
type ledgerClient struct {
	txCount int
}

func (c *ledgerClient) Ledger(_ context.Context, req xrpl.LedgerRequest) (*xrpl.Response, error) {
	txs := make([]any, c.txCount)
	for i := range txs {
		txs[i] = record.Record{
			"hash":            fmt.Sprintf("TX%03d", i),
			"TransactionType": "Payment",
			"Account":         "rSender",
			"Destination":     "rReceiver",
			"Amount":          "1000000",
			"Fee":             "12",
			"Sequence":        int64(i + 1),
			"NotInSchema":     true,
		}
	}
	return &xrpl.Response{
		Status: xrpl.StatusSuccess,
		Result: record.Record{
			"ledger_index": req.LedgerIndex,
			"validated":    true,
			"ledger":       record.Record{"ledger_index": fmt.Sprint(req.LedgerIndex), "transactions": txs},
		},
	}, nil
}

func (c *ledgerClient) LedgerData(context.Context, xrpl.LedgerDataRequest) (*xrpl.Response, error) {
	return nil, errors.New("not implemented")
}

func (c *ledgerClient) LatestValidatedIndex(context.Context) (int64, error) { return 0, nil }

func TestEndToEnd_FetchDecomposeETL(t *testing.T) {
	ctx := context.Background()
	const ledgerIndex = 70000000

	ledgers := queue.New[record.Record]("ledgers", 0)
	txs := queue.New[record.Record]("transactions", 0)
	out := &sink[record.Record]{name: "out"}

	fetch := New("fetch", []Binding[processor.FetchRequest]{
		Bind[processor.FetchRequest, record.Record](processor.NewFetchLedger(&ledgerClient{txCount: 47}, nil), ledgers),
	})
	decompose := New("decompose", []Binding[record.Record]{
		Bind[record.Record, record.Record](processor.NewDecompose(nil), txs),
	})
	etl := New("etl", []Binding[record.Record]{
		Bind[record.Record, record.Record](processor.NewETL("etl", schema.Transaction(), nil), out),
	})

	reqs := source.FromSlice("requests", []processor.FetchRequest{processor.IndexRequest(ledgerIndex)})
	if res := newEngine[processor.FetchRequest]().Execute(ctx, fetch, reqs); !res.OK() {
		t.Fatalf("fetch: %v", res.Err)
	}
	ledgers.Stop()
	if res := newEngine[record.Record]().Execute(ctx, decompose, ledgers); !res.OK() {
		t.Fatalf("decompose: %v", res.Err)
	}
	txs.Stop()
	res := newEngine[record.Record]().Execute(ctx, etl, txs)
	if !res.OK() {
		t.Fatalf("etl: %v", res.Err)
	}

	got := out.all()
	if len(got) != 47 {
		t.Fatalf("expected 47 transformed records, got %d", len(got))
	}
	for i, tx := range got {
		idx, ok := tx.Int("ledger_index")
		if !ok || idx != ledgerIndex {
			t.Errorf("record %d: expected ledger_index %d, got %v", i, ledgerIndex, tx["ledger_index"])
		}
		if _, ok := tx["NotInSchema"]; ok {
			t.Errorf("record %d: expected unknown field to be dropped", i)
		}
		amount, ok := tx.Map("Amount")
		if !ok || amount["currency"] != schema.NativeCurrency || amount["value"] != "1000000" {
			t.Errorf("record %d: expected native amount object, got %v", i, tx["Amount"])
		}
	}
}
