// Package producer publishes records to Kafka through a kafka-go Writer.
package producer

import (
	"context"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/ledgerflow/kafka"
	"github.com/kbukum/ledgerflow/logger"
)

// MessageWriter is the subset of *kafkago.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer wraps a kafka-go Writer with retries and logging.
type Producer struct {
	writer MessageWriter
	cfg    kafka.Config
	log    *logger.Logger
	mu     sync.RWMutex
	closed bool
}

// NewProducer builds a producer on a kafka-go Writer. Connections are made
// on the first write.
func NewProducer(cfg kafka.Config, log *logger.Logger) (*Producer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka producer config: %w", err)
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("kafka is disabled")
	}

	transport, err := kafka.CreateTransport(&cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer transport: %w", err)
	}
	log = logger.OrNop(log).WithComponent("kafka.producer")
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Transport:    transport,
		Balancer:     &kafkago.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafkago.RequiredAcks(cfg.RequiredAcks),
		Compression:  kafka.ResolveCompression(cfg.Compression),
		WriteTimeout: cfg.WriteTimeout,
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error("writer: "+fmt.Sprintf(msg, args...))
		}),
	}
	log.Info("Kafka producer initialized", logger.Fields(
		"brokers", cfg.Brokers, "compression", cfg.Compression, "batch_size", cfg.BatchSize,
	))
	return &Producer{writer: w, cfg: cfg, log: log}, nil
}

// NewWithWriter builds a producer on an existing writer.
func NewWithWriter(w MessageWriter, cfg kafka.Config, log *logger.Logger) *Producer {
	cfg.ApplyDefaults()
	return &Producer{writer: w, cfg: cfg, log: logger.OrNop(log).WithComponent("kafka.producer")}
}

// WriteMessages sends messages, retrying retryable failures with a linear
// backoff up to the configured number of attempts.
func (p *Producer) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return fmt.Errorf("producer is closed")
	}

	var lastErr error
	for attempt := 1; attempt <= p.cfg.Retries; attempt++ {
		err := p.writer.WriteMessages(ctx, msgs...)
		if err == nil {
			return nil
		}
		lastErr = err
		if !kafka.IsRetryableError(err) || attempt == p.cfg.Retries {
			break
		}
		p.log.Warn("kafka write failed, retrying", logger.Fields(logger.FieldAttempt, attempt, logger.FieldError, err.Error()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("kafka write: %w", lastErr)
}

// Publish sends one JSON-encoded value. An empty topic uses the configured
// default topic.
func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	if topic == "" {
		topic = p.cfg.Topic
	}
	msg := kafkago.Message{
		Topic: topic,
		Value: value,
		Headers: []kafkago.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if key != "" {
		msg.Key = []byte(key)
	}
	return p.WriteMessages(ctx, msg)
}

// Close flushes and closes the writer. Safe to call multiple times.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.log.Info("Kafka producer closing")
	return p.writer.Close()
}
