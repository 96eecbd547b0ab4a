package schema

import (
	"sync/atomic"

	"github.com/kbukum/ledgerflow/logger"
	"github.com/kbukum/ledgerflow/record"
)

// Validator removes every field whose path is undeclared or whose value type
// is not allowed at that path.
type Validator struct {
	schema  Schema
	log     *logger.Logger
	dropped atomic.Int64
}

// NewValidator creates a validator for s.
func NewValidator(s Schema, log *logger.Logger) *Validator {
	return &Validator{schema: s, log: logger.OrNop(log).WithComponent("validator")}
}

type frame struct {
	obj    record.Record
	prefix string
}

// Validate returns a pruned deep copy of r; r itself is not modified.
// Objects are descended into; arrays are kept whole once their own path
// is allowed. Validating an already validated record returns an equal record.
func (v *Validator) Validate(r record.Record) record.Record {
	out := r.Clone()
	if out == nil {
		return record.Record{}
	}
	stack := []frame{{obj: out}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for key, val := range f.obj {
			path := f.prefix + key
			typ := TypeOf(val)
			if !v.schema.Allows(path, typ) {
				delete(f.obj, key)
				v.dropped.Add(1)
				v.log.Debug("field dropped", logger.Fields(logger.FieldPath, path, "type", typ))
				continue
			}
			if child, ok := record.AsRecord(val); ok {
				stack = append(stack, frame{obj: child, prefix: path + "."})
			}
		}
	}
	return out
}

// Dropped returns the number of fields removed so far.
func (v *Validator) Dropped() int64 { return v.dropped.Load() }
