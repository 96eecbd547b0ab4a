package collector

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/kbukum/ledgerflow/errors"
	"github.com/kbukum/ledgerflow/record"
)

// Publisher is the part of kafka/producer.Producer the collector needs.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

// Kafka publishes each record as JSON. The message key is the value of
// keyField, formatted with %v when it is not a string; records without the
// field are published with an empty key.
type Kafka struct {
	pub      Publisher
	topic    string
	keyField string
}

// NewKafka creates a Kafka collector. An empty topic uses the producer default.
func NewKafka(pub Publisher, topic, keyField string) *Kafka {
	return &Kafka{pub: pub, topic: topic, keyField: keyField}
}

// Name returns "kafka".
func (c *Kafka) Name() string { return "kafka" }

// Collect publishes r.
func (c *Kafka) Collect(ctx context.Context, r record.Record) error {
	value, err := json.Marshal(r)
	if err != nil {
		return apperrors.SinkFailure(c.Name(), fmt.Errorf("encode record: %w", err))
	}
	if err := c.pub.Publish(ctx, c.topic, c.key(r), value); err != nil {
		return apperrors.SinkFailure(c.Name(), err)
	}
	return nil
}

func (c *Kafka) key(r record.Record) string {
	if c.keyField == "" {
		return ""
	}
	v, ok := r[c.keyField]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
