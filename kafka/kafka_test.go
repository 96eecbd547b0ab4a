package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/ledgerflow/component"
)

func TestConfig_DefaultsAndValidate(t *testing.T) {
	cfg := Config{Enabled: true, Topic: "xrpl"}
	cfg.ApplyDefaults()
	if len(cfg.Brokers) != 1 || cfg.KeyField != "hash" || cfg.BatchTimeout != time.Second || cfg.RequiredAcks != -1 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.EnableSASL = true
	cfg.SASLMechanism = "GSSAPI"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unsupported SASL mechanism")
	}
}

func TestCreateTransport_SASL(t *testing.T) {
	cfg := Config{EnableSASL: true, SASLMechanism: "SCRAM-SHA-512", Username: "u", Password: "p"}
	tr, err := CreateTransport(&cfg)
	if err != nil || tr.SASL == nil {
		t.Errorf("expected SASL transport, got %v (%v)", tr, err)
	}
	if _, err := CreateTransport(&Config{EnableTLS: true, TLSCAFile: "/does/not/exist"}); err == nil {
		t.Error("expected error for missing CA file")
	}
}

func TestResolveCompression(t *testing.T) {
	if ResolveCompression("zstd") != kafkago.Zstd || ResolveCompression("none") != 0 || ResolveCompression("?") != kafkago.Snappy {
		t.Error("unexpected compression mapping")
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{kafkago.LeaderNotAvailable, true},
		{fmt.Errorf("wrapped: %w", kafkago.RequestTimedOut), true},
		{kafkago.MessageSizeTooLarge, false},
		{errors.New("unknown topic or partition"), false},
		{errors.New("dial tcp 127.0.0.1:9092: connection refused"), true},
	}
	for _, tt := range tests {
		if got := IsRetryableError(tt.err); got != tt.want {
			t.Errorf("IsRetryableError(%v): expected %v, got %v", tt.err, tt.want, got)
		}
	}
	if !IsConnectionError(errors.New("write: broken pipe")) {
		t.Error("expected broken pipe to be a connection error")
	}
}

type closer struct{ closed bool }

func (c *closer) Close() error { c.closed = true; return nil }

func TestComponent_StopClosesProducer(t *testing.T) {
	c := NewComponent(Config{Enabled: true, Topic: "t"}, nil)
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	p := &closer{}
	c.SetProducer(p)
	c.Start(context.Background())
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !p.closed {
		t.Error("expected producer closed on stop")
	}
}
