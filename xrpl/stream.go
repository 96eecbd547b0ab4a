package xrpl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	apperrors "github.com/kbukum/ledgerflow/errors"
	"github.com/kbukum/ledgerflow/record"
)

const defaultReceiveTimeout = 15 * time.Second

// WSSubscriber opens subscriptions over a websocket.
type WSSubscriber struct {
	URL            string
	Origin         string
	ReceiveTimeout time.Duration
}

// NewWSSubscriber creates a subscriber for the node at url.
func NewWSSubscriber(url string, receiveTimeout time.Duration) *WSSubscriber {
	if receiveTimeout <= 0 {
		receiveTimeout = defaultReceiveTimeout
	}
	return &WSSubscriber{URL: url, Origin: "http://localhost/", ReceiveTimeout: receiveTimeout}
}

type subscribeCommand struct {
	ID      int      `json:"id"`
	Command string   `json:"command"`
	Streams []string `json:"streams"`
}

// Subscribe dials the node and sends a subscribe command for streams.
func (s *WSSubscriber) Subscribe(ctx context.Context, streams []string) (Subscription, error) {
	cfg, err := websocket.NewConfig(s.URL, s.Origin)
	if err != nil {
		return nil, apperrors.InvalidInput("stream.url", err.Error())
	}
	conn, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, apperrors.ConnectionFailed(s.URL, err)
	}

	if err := websocket.JSON.Send(conn, subscribeCommand{ID: 1, Command: "subscribe", Streams: streams}); err != nil {
		_ = conn.Close()
		return nil, apperrors.ConnectionFailed(s.URL, fmt.Errorf("send subscribe: %w", err))
	}
	return &wsSubscription{conn: conn, timeout: s.ReceiveTimeout}, nil
}

type wsSubscription struct {
	conn    *websocket.Conn
	timeout time.Duration

	closeOnce sync.Once
}

func (s *wsSubscription) Recv(ctx context.Context) (record.Record, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	var data []byte
	if err := websocket.Message.Receive(s.conn, &data); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.ConnectionFailed("subscription", err)
	}
	msg, err := record.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode stream message: %w", err)
	}
	return msg, nil
}

func (s *wsSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.conn.Close() })
	return err
}
