package source

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/kbukum/ledgerflow/logger"
	"github.com/kbukum/ledgerflow/xrpl"
)

// DefaultReconnectDelay is the pause before re-subscribing when unset.
const DefaultReconnectDelay = 5 * time.Second

// LedgerStreamConfig configures a LedgerStream.
type LedgerStreamConfig struct {
	// ReconnectDelay is the fixed pause before re-subscribing.
	ReconnectDelay time.Duration
	Capacity       int
}

// LedgerStream emits the index of every newly closed ledger. The peer may
// drop the connection or go idle at any time, so a supervising loop
// re-subscribes after ReconnectDelay until the source is stopped.
type LedgerStream struct {
	*Base[int64]
	cfg        LedgerStreamConfig
	subscriber xrpl.Subscriber
	log        *logger.Logger

	lastIndex   atomic.Int64
	connections atomic.Int64
}

// NewLedgerStream creates a stream source backed by subscriber.
func NewLedgerStream(subscriber xrpl.Subscriber, cfg LedgerStreamConfig, log *logger.Logger) *LedgerStream {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}
	s := &LedgerStream{
		cfg:        cfg,
		subscriber: subscriber,
		log:        logger.OrNop(log).WithComponent("ledger-stream"),
	}
	s.Base = NewBase[int64]("ledger-stream", cfg.Capacity, log, s.populate)
	return s
}

// LastIndex returns the most recent ledger index seen, or 0.
func (s *LedgerStream) LastIndex() int64 { return s.lastIndex.Load() }

// Connections returns how many subscriptions were opened.
func (s *LedgerStream) Connections() int64 { return s.connections.Load() }

func (s *LedgerStream) populate(ctx context.Context, emit func(context.Context, int64) error) error {
	for {
		err := s.session(ctx, emit)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Warn("ledger subscription ended, reconnecting", logger.Fields(
			logger.FieldError, errString(err),
			logger.FieldDelay, s.cfg.ReconnectDelay.Milliseconds(),
		))

		timer := time.NewTimer(s.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session runs one subscribe/receive lifecycle until the connection fails.
func (s *LedgerStream) session(ctx context.Context, emit func(context.Context, int64) error) error {
	sub, err := s.subscriber.Subscribe(ctx, []string{xrpl.StreamLedger})
	if err != nil {
		return err
	}
	defer sub.Close()
	s.connections.Add(1)
	s.log.Info("subscribed to ledger stream")

	for {
		msg, err := sub.Recv(ctx)
		if err != nil {
			return err
		}
		if t, _ := msg.String("type"); t != xrpl.TypeLedgerClosed {
			continue
		}
		idx, ok := msg.Int("ledger_index")
		if !ok {
			s.log.Warn("ledgerClosed without ledger_index")
			continue
		}
		if err := emit(ctx, idx); err != nil {
			return err
		}
		s.lastIndex.Store(idx)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
