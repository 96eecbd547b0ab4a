// Package record defines the opaque key-value unit that flows between
// ledgerflow stages.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is a JSON object decoded with json.Number so integers and
// floats stay distinguishable.
type Record map[string]any

// Decode parses a JSON object into a Record, keeping numbers as json.Number.
func Decode(data []byte) (Record, error) {
	v, err := DecodeValue(data)
	if err != nil {
		return nil, err
	}
	r, ok := v.(Record)
	if !ok {
		return nil, fmt.Errorf("record: not a JSON object")
	}
	return r, nil
}

// DecodeValue parses any JSON value with json.Number semantics.
func DecodeValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return Normalize(v), nil
}

// Normalize converts nested map[string]any values into Record so type
// switches only need to handle one object type.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		r := make(Record, len(t))
		for k, vv := range t {
			r[k] = Normalize(vv)
		}
		return r
	case Record:
		for k, vv := range t {
			t[k] = Normalize(vv)
		}
		return t
	case []any:
		for i := range t {
			t[i] = Normalize(t[i])
		}
		return t
	default:
		return v
	}
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return cloneValue(r).(Record)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Record:
		out := make(Record, len(t))
		for k, vv := range t {
			out[k] = cloneValue(vv)
		}
		return out
	case map[string]any:
		out := make(Record, len(t))
		for k, vv := range t {
			out[k] = cloneValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = cloneValue(vv)
		}
		return out
	default:
		return v
	}
}

// Map returns the nested object stored under key.
func (r Record) Map(key string) (Record, bool) {
	return AsRecord(r[key])
}

// List returns the nested array stored under key.
func (r Record) List(key string) ([]any, bool) {
	l, ok := r[key].([]any)
	return l, ok
}

// String returns the string stored under key.
func (r Record) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Int returns the integer stored under key. Numeric strings are accepted
// because rippled reports some indices as strings.
func (r Record) Int(key string) (int64, bool) {
	return AsInt(r[key])
}

// JSON encodes r.
func (r Record) JSON() ([]byte, error) {
	return json.Marshal(r)
}

// AsRecord converts an object value into a Record.
func AsRecord(v any) (Record, bool) {
	switch t := v.(type) {
	case Record:
		return t, true
	case map[string]any:
		return Record(t), true
	default:
		return nil, false
	}
}

// AsInt converts a JSON integer value into int64.
func AsInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint32:
		return int64(t), true
	case float64:
		if t == float64(int64(t)) {
			return int64(t), true
		}
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
