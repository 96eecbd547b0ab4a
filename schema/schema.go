package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/kbukum/ledgerflow/record"
)

// JSON type names used in schema tables.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
	TypeNull    = "null"
)

// Names accepted by ByName.
const (
	NameTransaction = "transaction"
	NameObject      = "object"
)

//go:embed xrpl_transaction.json
var transactionJSON []byte

//go:embed xrpl_object.json
var objectJSON []byte

var (
	transactionSchema = sync.OnceValue(func() Schema { return mustParse(transactionJSON) })
	objectSchema      = sync.OnceValue(func() Schema { return mustParse(objectJSON) })
)

// Schema maps a dotted path to the set of JSON types allowed there.
type Schema map[string][]string

// Parse decodes a schema table from JSON.
func Parse(data []byte) (Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("schema: decode: %w", err)
	}
	for path, types := range s {
		if len(types) == 0 {
			return nil, fmt.Errorf("schema: path %q has no types", path)
		}
		for _, t := range types {
			if !knownType(t) {
				return nil, fmt.Errorf("schema: path %q has unknown type %q", path, t)
			}
		}
	}
	return s, nil
}

func mustParse(data []byte) Schema {
	s, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return s
}

// Transaction returns the embedded XRPL transaction schema. The returned
// table is shared and must not be modified.
func Transaction() Schema { return transactionSchema() }

// Object returns the embedded XRPL ledger object schema. The returned
// table is shared and must not be modified.
func Object() Schema { return objectSchema() }

// ByName resolves "transaction" or "object" to an embedded schema.
func ByName(name string) (Schema, error) {
	switch name {
	case NameTransaction, "":
		return Transaction(), nil
	case NameObject:
		return Object(), nil
	default:
		return nil, fmt.Errorf("schema: unknown schema %q", name)
	}
}

// Allows reports whether typ is permitted at path.
func (s Schema) Allows(path, typ string) bool {
	return slices.Contains(s[path], typ)
}

// Has reports whether path is declared.
func (s Schema) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Paths returns every declared path in sorted order.
func (s Schema) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// AmountPaths returns the paths that accept both a bare value and an object.
// These hold XRPL currency amounts: drops as a string for XRP, or an
// issued-currency object.
func (s Schema) AmountPaths() []string {
	var paths []string
	for p, types := range s {
		if slices.Contains(types, TypeString) && slices.Contains(types, TypeObject) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// TypeOf names the JSON type of a decoded value. A json.Number that fits
// int64 is an integer.
func TypeOf(v any) string {
	switch t := v.(type) {
	case nil:
		return TypeNull
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return TypeInteger
		}
		return TypeNumber
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInteger
	case float32, float64:
		return TypeNumber
	case record.Record, map[string]any:
		return TypeObject
	case []any:
		return TypeArray
	default:
		return fmt.Sprintf("%T", v)
	}
}

func knownType(t string) bool {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeObject, TypeArray, TypeNull:
		return true
	}
	return false
}
