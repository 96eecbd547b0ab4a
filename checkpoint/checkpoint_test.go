package checkpoint

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/ledgerflow/redis"
	"github.com/kbukum/ledgerflow/storage"
	"github.com/kbukum/ledgerflow/storage/local"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Load(ctx, "state"); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}
	if err := s.Save(ctx, "state", 81000000); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(ctx, "state", 81000050); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	idx, ok, err := s.Load(ctx, "state")
	if err != nil || !ok || idx != 81000050 {
		t.Errorf("expected 81000050, got %d ok=%v err=%v", idx, ok, err)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestRedisStore(t *testing.T) {
	mini := miniredis.RunT(t)
	client, err := redis.New(redis.Config{Enabled: true, Addr: mini.Addr(), KeyPrefix: "ledgerflow"}, nil)
	if err != nil {
		t.Fatalf("redis.New failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	exerciseStore(t, NewRedisStore(client))
	if raw, _ := mini.Get("ledgerflow:state"); raw != `{"ledger_index":81000050}` {
		t.Errorf("unexpected redis payload %q", raw)
	}
}

func TestObjectStore(t *testing.T) {
	backend, err := local.NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("local.NewStorage failed: %v", err)
	}
	exerciseStore(t, NewObjectStore(backend))

	data, err := storage.DownloadBytes(context.Background(), backend, "state")
	if err != nil || string(data) != `{"ledger_index":81000050}` {
		t.Errorf("unexpected object payload %q (%v)", data, err)
	}
}

func TestObjectStore_CorruptPayload(t *testing.T) {
	backend, _ := local.NewStorage(t.TempDir())
	storage.UploadBytes(context.Background(), backend, "state", []byte("garbage"))
	if _, _, err := NewObjectStore(backend).Load(context.Background(), "state"); err == nil {
		t.Error("expected decode error")
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Backend != BackendNone || cfg.Key != DefaultKey || cfg.Every != DefaultEvery {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Enabled() {
		t.Error("expected none backend to be disabled")
	}

	cfg = Config{Backend: BackendRedis}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for redis backend without addr")
	}

	cfg = Config{Backend: "etcd"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown backend")
	}
}
