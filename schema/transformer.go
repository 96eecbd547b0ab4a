package schema

import (
	"github.com/kbukum/ledgerflow/record"
)

// NativeCurrency is the currency code given to bare XRP amounts.
const NativeCurrency = "XRP"

// Transformer normalizes currency amounts so every amount path holds an
// object of the form {"currency", "issuer", "value"}.
//
// XRPL encodes XRP amounts as a drops string and issued currencies as an
// object; downstream sinks want a single shape.
type Transformer struct {
	amounts map[string]struct{}
}

// NewTransformer builds a transformer for the amount paths of s.
func NewTransformer(s Schema) *Transformer {
	t := &Transformer{amounts: make(map[string]struct{})}
	for _, p := range s.AmountPaths() {
		t.amounts[p] = struct{}{}
	}
	return t
}

// Transform rewrites bare amounts in place and returns r. Amounts that are
// already objects are left untouched. Array elements are visited using the
// array path as their prefix.
func (t *Transformer) Transform(r record.Record) record.Record {
	if r == nil {
		return record.Record{}
	}
	t.object(r, "")
	return r
}

func (t *Transformer) object(obj record.Record, prefix string) {
	for key, val := range obj {
		path := prefix + key
		if _, ok := t.amounts[path]; ok && val != nil {
			if _, isObj := record.AsRecord(val); !isObj {
				obj[key] = NativeAmount(val)
				continue
			}
		}
		t.value(val, path)
	}
}

func (t *Transformer) value(val any, path string) {
	switch v := val.(type) {
	case record.Record:
		t.object(v, path+".")
	case map[string]any:
		t.object(record.Record(v), path+".")
	case []any:
		for _, item := range v {
			if l, ok := item.([]any); ok {
				t.value(l, path+ListSuffix)
				continue
			}
			if child, ok := record.AsRecord(item); ok {
				t.object(child, path+".")
			}
		}
	}
}

// NativeAmount wraps a bare XRP value as a structured amount.
func NativeAmount(v any) record.Record {
	return record.Record{"currency": NativeCurrency, "issuer": "", "value": v}
}
