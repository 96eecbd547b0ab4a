package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/kbukum/ledgerflow/record"
)

// SimplifiedFields are the record keys kept in simplified mode.
var SimplifiedFields = []string{"hash", "TransactionType", "ledger_index"}

// StdoutConfig configures the line writer.
type StdoutConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Tag        string `mapstructure:"tag"`
	Simplified bool   `mapstructure:"simplified"`
}

// Stdout writes one line per value. Strings are written as-is, anything
// else as compact JSON. A non-empty tag prefixes each line followed by a tab.
type Stdout[T any] struct {
	cfg StdoutConfig
	mu  sync.Mutex
	w   io.Writer
}

// NewStdout writes to os.Stdout.
func NewStdout[T any](cfg StdoutConfig) *Stdout[T] {
	return NewWriter[T](cfg, os.Stdout)
}

// NewWriter writes to w.
func NewWriter[T any](cfg StdoutConfig, w io.Writer) *Stdout[T] {
	return &Stdout[T]{cfg: cfg, w: w}
}

// Name returns "stdout" or the tag.
func (c *Stdout[T]) Name() string {
	if c.cfg.Tag != "" {
		return "stdout:" + c.cfg.Tag
	}
	return "stdout"
}

// Collect writes v.
func (c *Stdout[T]) Collect(_ context.Context, v T) error {
	line, err := c.format(v)
	if err != nil {
		return err
	}
	if c.cfg.Tag != "" {
		line = c.cfg.Tag + "\t" + line
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = io.WriteString(c.w, line+"\n")
	return err
}

func (c *Stdout[T]) format(v T) (string, error) {
	switch x := any(v).(type) {
	case string:
		return x, nil
	case record.Record:
		if c.cfg.Simplified {
			x = simplify(x)
		}
		return marshal(x)
	default:
		return marshal(x)
	}
}

func simplify(r record.Record) record.Record {
	out := make(record.Record, len(SimplifiedFields))
	for _, k := range SimplifiedFields {
		if v, ok := r[k]; ok {
			out[k] = v
		}
	}
	return out
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode line: %w", err)
	}
	return string(b), nil
}
