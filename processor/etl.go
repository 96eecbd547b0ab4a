package processor

import (
	"context"

	"github.com/kbukum/ledgerflow/logger"
	"github.com/kbukum/ledgerflow/record"
	"github.com/kbukum/ledgerflow/schema"
)

// ETL validates a record against a schema and normalizes its amounts.
type ETL struct {
	name        string
	validator   *schema.Validator
	transformer *schema.Transformer
	log         *logger.Logger
}

// NewETL creates an ETL processor for s.
func NewETL(name string, s schema.Schema, log *logger.Logger) *ETL {
	log = logger.OrNop(log).WithComponent(name)
	return &ETL{
		name:        name,
		validator:   schema.NewValidator(s, log),
		transformer: schema.NewTransformer(s),
		log:         log,
	}
}

// Name implements Processor.
func (p *ETL) Name() string { return p.name }

// Process returns one transformed copy of in. The input is not modified.
func (p *ETL) Process(_ context.Context, in record.Record) ([]record.Record, error) {
	valid := p.validator.Validate(in)
	if len(valid) == 0 {
		p.log.Warn("record empty after validation", logger.Fields("input_fields", len(in)))
	}
	return []record.Record{p.transformer.Transform(valid)}, nil
}

// Dropped returns the number of fields removed by validation.
func (p *ETL) Dropped() int64 { return p.validator.Dropped() }
