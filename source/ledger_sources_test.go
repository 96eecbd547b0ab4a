package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/ledgerflow/record"
	"github.com/kbukum/ledgerflow/resilience"
	"github.com/kbukum/ledgerflow/xrpl"
)

type fakeSubscription struct {
	msgs []record.Record
	fail error
	pos  int
}

func (s *fakeSubscription) Recv(ctx context.Context) (record.Record, error) {
	if s.pos < len(s.msgs) {
		m := s.msgs[s.pos]
		s.pos++
		return m, nil
	}
	if s.fail != nil {
		return nil, s.fail
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *fakeSubscription) Close() error { return nil }

type fakeSubscriber struct {
	mu       sync.Mutex
	sessions []*fakeSubscription
	dialErrs int
	calls    int
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, streams []string) (xrpl.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.dialErrs > 0 {
		f.dialErrs--
		return nil, errors.New("dial refused")
	}
	if len(f.sessions) == 0 {
		return &fakeSubscription{}, nil
	}
	s := f.sessions[0]
	f.sessions = f.sessions[1:]
	return s, nil
}

func closed(idx int) record.Record {
	return record.Record{"type": xrpl.TypeLedgerClosed, "ledger_index": int64(idx)}
}

func TestLedgerStream_ReconnectsAndEmits(t *testing.T) {
	sub := &fakeSubscriber{
		dialErrs: 1,
		sessions: []*fakeSubscription{
			{msgs: []record.Record{{"type": xrpl.TypeResponse}, closed(10), closed(11)}, fail: errors.New("kicked")},
			{msgs: []record.Record{closed(12)}},
		},
	}
	s := NewLedgerStream(sub, LedgerStreamConfig{ReconnectDelay: 5 * time.Millisecond}, nil)
	_ = s.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var got []int64
	for len(got) < 3 {
		v, ok, err := s.Next(ctx)
		if err != nil || !ok {
			t.Fatalf("unexpected end: ok=%v err=%v", ok, err)
		}
		got = append(got, v)
	}
	s.Stop()

	if got[0] != 10 || got[1] != 11 || got[2] != 12 {
		t.Errorf("expected [10 11 12], got %v", got)
	}
	if s.LastIndex() != 12 {
		t.Errorf("expected last index 12, got %d", s.LastIndex())
	}
	if s.Connections() != 2 {
		t.Errorf("expected 2 successful connections, got %d", s.Connections())
	}
	if _, ok, err := s.Next(ctx); ok || err != nil {
		t.Errorf("expected clean end after stop, got ok=%v err=%v", ok, err)
	}
}

type fakeLedgerData struct {
	pages    []record.Record
	failures int
	calls    int
}

func (f *fakeLedgerData) Ledger(ctx context.Context, req xrpl.LedgerRequest) (*xrpl.Response, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeLedgerData) LatestValidatedIndex(ctx context.Context) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeLedgerData) LedgerData(ctx context.Context, req xrpl.LedgerDataRequest) (*xrpl.Response, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return &xrpl.Response{Status: "error", Result: record.Record{"error": "tooBusy"}}, nil
	}
	page := 0
	if req.Marker != nil {
		fmt.Sscanf(req.Marker.(string), "m%d", &page)
	}
	return &xrpl.Response{Status: xrpl.StatusSuccess, Result: f.pages[page]}, nil
}

func objectPages() []record.Record {
	return []record.Record{
		{"state": []any{record.Record{"index": "a"}, record.Record{"index": "b"}}, "marker": "m1"},
		{"state": []any{record.Record{"index": "c"}}, "marker": "m2"},
		{"state": []any{record.Record{"index": "d"}}},
	}
}

func TestLedgerObjects_PaginatesAndStamps(t *testing.T) {
	client := &fakeLedgerData{pages: objectPages(), failures: 2}
	src, err := NewLedgerObjects(client, LedgerObjectsConfig{
		LedgerIndex: 500,
		ExecutionID: "exec-1",
		Retry:       resilience.RetryConfig{MaxAttempts: 3, Mute: true},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = src.Start(context.Background())
	got, err := drain[record.Record](t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 objects, got %d", len(got))
	}
	for i, obj := range got {
		if obj[FieldExecutionID] != "exec-1" {
			t.Errorf("object %d: expected execution id, got %v", i, obj[FieldExecutionID])
		}
		if obj[FieldSequence] != int64(i+1) {
			t.Errorf("object %d: expected sequence %d, got %v", i, i+1, obj[FieldSequence])
		}
		if obj[FieldLedgerIndex] != int64(500) {
			t.Errorf("object %d: expected ledger index 500, got %v", i, obj[FieldLedgerIndex])
		}
	}
	if client.calls != 5 {
		t.Errorf("expected 5 calls (2 failures + 3 pages), got %d", client.calls)
	}
}

func TestLedgerObjects_ExhaustionSurfacesError(t *testing.T) {
	client := &fakeLedgerData{pages: objectPages(), failures: 10}
	src, _ := NewLedgerObjects(client, LedgerObjectsConfig{
		LedgerIndex: 500,
		Retry:       resilience.RetryConfig{MaxAttempts: 2, Mute: true},
	}, nil)
	_ = src.Start(context.Background())
	_, err := drain[record.Record](t, src)
	if !errors.Is(err, resilience.ErrRetriesExhausted) {
		t.Errorf("expected retries exhausted, got %v", err)
	}
	if src.ExecutionID() == "" {
		t.Error("expected a generated execution id")
	}
}

func TestNewLedgerObjects_RequiresIndex(t *testing.T) {
	if _, err := NewLedgerObjects(&fakeLedgerData{}, LedgerObjectsConfig{}, nil); err == nil {
		t.Error("expected error without ledger index")
	}
}
