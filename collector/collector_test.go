package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/kbukum/ledgerflow/database"
	apperrors "github.com/kbukum/ledgerflow/errors"
	"github.com/kbukum/ledgerflow/httpclient"
	"github.com/kbukum/ledgerflow/record"
)

func payment() record.Record {
	return record.Record{
		"hash":            "ABC123",
		"TransactionType": "Payment",
		"ledger_index":    int64(70000000),
		"Account":         "rXYZ",
	}
}

func TestStdout_FullRecord(t *testing.T) {
	var buf bytes.Buffer
	c := NewWriter[record.Record](StdoutConfig{}, &buf)

	if err := c.Collect(context.Background(), payment()); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if got["Account"] != "rXYZ" {
		t.Errorf("expected Account rXYZ, got %v", got["Account"])
	}
}

func TestStdout_SimplifiedAndTagged(t *testing.T) {
	var buf bytes.Buffer
	c := NewWriter[record.Record](StdoutConfig{Tag: "txs", Simplified: true}, &buf)
	if c.Name() != "stdout:txs" {
		t.Errorf("expected name stdout:txs, got %s", c.Name())
	}

	if err := c.Collect(context.Background(), payment()); err != nil {
		t.Fatalf("collect: %v", err)
	}
	line := strings.TrimSuffix(buf.String(), "\n")
	tag, body, ok := strings.Cut(line, "\t")
	if !ok || tag != "txs" {
		t.Fatalf("expected tagged line, got %q", line)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 simplified fields, got %v", got)
	}
	if _, ok := got["Account"]; ok {
		t.Error("Account should be dropped in simplified mode")
	}
}

func TestStdout_StringsWrittenRaw(t *testing.T) {
	var buf bytes.Buffer
	c := NewWriter[string](StdoutConfig{}, &buf)
	_ = c.Collect(context.Background(), "exec\tAccount\tstring")
	if buf.String() != "exec\tAccount\tstring\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestMulti_ContinuesAfterFailure(t *testing.T) {
	var calls []string
	failing := Func("bad", func(context.Context, int) error {
		calls = append(calls, "bad")
		return errors.New("boom")
	})
	ok := Func("good", func(context.Context, int) error {
		calls = append(calls, "good")
		return nil
	})

	m := NewMulti[int]("all", failing, ok)
	err := m.Collect(context.Background(), 1)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected joined boom error, got %v", err)
	}
	if strings.Join(calls, ",") != "bad,good" {
		t.Errorf("expected both members called in order, got %v", calls)
	}
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []struct{ topic, key, value string }
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, topic, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, struct{ topic, key, value string }{topic, key, string(value)})
	return nil
}

func TestKafka_KeyFromField(t *testing.T) {
	tests := []struct {
		name     string
		keyField string
		want     string
	}{
		{"string field", "hash", "ABC123"},
		{"numeric field", "ledger_index", "70000000"},
		{"missing field", "nope", ""},
		{"no key field", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			c := NewKafka(pub, "xrpl.tx", tt.keyField)
			if err := c.Collect(context.Background(), payment()); err != nil {
				t.Fatalf("collect: %v", err)
			}
			if len(pub.sent) != 1 {
				t.Fatalf("expected 1 message, got %d", len(pub.sent))
			}
			if pub.sent[0].key != tt.want {
				t.Errorf("expected key %q, got %q", tt.want, pub.sent[0].key)
			}
			if pub.sent[0].topic != "xrpl.tx" {
				t.Errorf("expected topic xrpl.tx, got %s", pub.sent[0].topic)
			}
		})
	}
}

func TestKafka_WrapsPublishError(t *testing.T) {
	c := NewKafka(&fakePublisher{err: errors.New("broker down")}, "", "hash")
	err := c.Collect(context.Background(), payment())
	if !apperrors.HasCode(err, apperrors.ErrCodeSink) {
		t.Errorf("expected sink error, got %v", err)
	}
}

func TestHTTP_PostsJSON(t *testing.T) {
	var (
		mu   sync.Mutex
		body []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/ingest" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = b
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := NewHTTP[record.Record](HTTPConfig{Path: "/ingest", Client: httpclient.Config{BaseURL: srv.URL}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.Collect(context.Background(), payment()); err != nil {
		t.Fatalf("collect: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(string(body), `"hash":"ABC123"`) {
		t.Errorf("unexpected body %s", body)
	}
}

func TestHTTP_ServerErrorIsSinkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := NewHTTP[record.Record](HTTPConfig{Client: httpclient.Config{BaseURL: srv.URL}})
	err := c.Collect(context.Background(), payment())
	if !apperrors.HasCode(err, apperrors.ErrCodeSink) {
		t.Errorf("expected sink error, got %v", err)
	}
}

func TestWarehouse_InsertsRows(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Enabled:  true,
		DSN:      filepath.Join(t.TempDir(), "wh.db"),
		LogLevel: "silent",
	}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if err := db.AutoMigrateTable("transactions", &database.Row{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	c := NewWarehouse(db, "transactions")
	r := payment()
	r["_ExecutionID"] = "exec-1"
	if err := c.Collect(ctx, r); err != nil {
		t.Fatalf("collect: %v", err)
	}

	var rows []database.Row
	if err := db.GormDB.Table("transactions").Find(&rows).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	got := rows[0]
	if got.Hash != "ABC123" || got.LedgerIndex != 70000000 || got.ExecutionID != "exec-1" {
		t.Errorf("unexpected row %+v", got)
	}
	decoded, err := record.Decode([]byte(got.Payload))
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if decoded["TransactionType"] != "Payment" {
		t.Errorf("expected payload to round-trip, got %v", decoded)
	}
}

func TestWarehouse_MissingTableIsSinkError(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Enabled: true, DSN: filepath.Join(t.TempDir(), "wh.db"), LogLevel: "silent",
	}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	err = NewWarehouse(db, "missing").Collect(ctx, payment())
	if !apperrors.HasCode(err, apperrors.ErrCodeSink) {
		t.Errorf("expected sink error, got %v", err)
	}
}
