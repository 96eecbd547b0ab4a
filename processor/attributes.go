package processor

import (
	"context"

	"github.com/google/uuid"

	"github.com/kbukum/ledgerflow/record"
	"github.com/kbukum/ledgerflow/schema"
)

// AttributeCollection discovers the type map of a record stream. It emits
// one tab-separated line per newly observed path and nothing otherwise.
type AttributeCollection struct {
	collector *schema.AttributeCollector
	execID    string
}

// NewAttributeCollection starts from an optional known schema.
func NewAttributeCollection(initial schema.Schema) *AttributeCollection {
	return &AttributeCollection{
		collector: schema.NewAttributeCollector(initial),
		execID:    uuid.NewString(),
	}
}

// Name implements Processor.
func (p *AttributeCollection) Name() string { return "attribute-collection" }

// Process implements Processor.
func (p *AttributeCollection) Process(_ context.Context, in record.Record) ([]string, error) {
	added := p.collector.Collect(in)
	lines := make([]string, 0, len(added))
	for _, path := range added {
		lines = append(lines, p.collector.Line(p.execID, path))
	}
	return lines, nil
}

// ExecutionID identifies this collection run in every emitted line.
func (p *AttributeCollection) ExecutionID() string { return p.execID }

// Schema snapshots everything observed so far.
func (p *AttributeCollection) Schema() schema.Schema { return p.collector.Schema() }
