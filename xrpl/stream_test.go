package xrpl

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"
)

func newStreamServer(t *testing.T, handler func(ws *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(websocket.Handler(handler))
	t.Cleanup(srv.Close)
	return "ws://" + strings.TrimPrefix(srv.URL, "http://")
}

func TestWSSubscriber_ReceivesLedgerClosed(t *testing.T) {
	url := newStreamServer(t, func(ws *websocket.Conn) {
		var cmd subscribeCommand
		if err := websocket.JSON.Receive(ws, &cmd); err != nil {
			t.Errorf("failed to receive subscribe: %v", err)
			return
		}
		if cmd.Command != "subscribe" || len(cmd.Streams) != 1 || cmd.Streams[0] != StreamLedger {
			t.Errorf("unexpected subscribe command: %+v", cmd)
		}
		_ = websocket.Message.Send(ws, `{"id":1,"type":"response","status":"success","result":{"ledger_index":10}}`)
		_ = websocket.Message.Send(ws, `{"type":"ledgerClosed","ledger_index":11}`)
		time.Sleep(100 * time.Millisecond)
	})

	sub, err := NewWSSubscriber(url, time.Second).Subscribe(context.Background(), []string{StreamLedger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sub.Close()

	first, err := sub.Recv(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first["type"] != TypeResponse {
		t.Errorf("expected response message, got %v", first["type"])
	}
	second, err := sub.Recv(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	idx, _ := second.Int("ledger_index")
	if second["type"] != TypeLedgerClosed || idx != 11 {
		t.Errorf("expected ledgerClosed 11, got %v", second)
	}
}

func TestWSSubscriber_ReceiveTimeout(t *testing.T) {
	url := newStreamServer(t, func(ws *websocket.Conn) {
		var cmd subscribeCommand
		_ = websocket.JSON.Receive(ws, &cmd)
		time.Sleep(500 * time.Millisecond)
	})

	sub, err := NewWSSubscriber(url, 50*time.Millisecond).Subscribe(context.Background(), []string{StreamLedger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sub.Close()

	if _, err := sub.Recv(context.Background()); err == nil {
		t.Error("expected receive timeout error")
	}
}

func TestWSSubscriber_ContextCancel(t *testing.T) {
	url := newStreamServer(t, func(ws *websocket.Conn) {
		var cmd subscribeCommand
		_ = websocket.JSON.Receive(ws, &cmd)
		time.Sleep(time.Second)
	})

	sub, err := NewWSSubscriber(url, 5*time.Second).Subscribe(context.Background(), []string{StreamLedger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := sub.Recv(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
