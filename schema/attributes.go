package schema

import (
	"sort"
	"strings"
	"sync"

	"github.com/kbukum/ledgerflow/record"
)

// ListSuffix names the element path of an array nested directly inside
// another array.
const ListSuffix = ".list"

// AttributeCollector accumulates the superset of dotted paths and value
// types observed across records. It is safe for concurrent use.
type AttributeCollector struct {
	mu      sync.Mutex
	mapping map[string]map[string]struct{}
}

// NewAttributeCollector starts from an optional known mapping.
func NewAttributeCollector(initial Schema) *AttributeCollector {
	c := &AttributeCollector{mapping: make(map[string]map[string]struct{}, len(initial))}
	for path, types := range initial {
		for _, t := range types {
			c.add(path, t)
		}
	}
	return c
}

// Collect records every path in r and returns the paths seen for the first
// time, sorted. New types on a known path extend its set but are not
// reported.
func (c *AttributeCollector) Collect(r record.Record) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var added []string
	c.object(r, "", &added)
	sort.Strings(added)
	return added
}

func (c *AttributeCollector) object(obj record.Record, prefix string, added *[]string) {
	for key, val := range obj {
		path := prefix + key
		switch v := val.(type) {
		case record.Record:
			c.object(v, path+".", added)
		case map[string]any:
			c.object(record.Record(v), path+".", added)
		case []any:
			c.list(v, path, added)
		}
		if c.add(path, TypeOf(val)) {
			*added = append(*added, path)
		}
	}
}

func (c *AttributeCollector) list(items []any, path string, added *[]string) {
	for _, item := range items {
		switch e := item.(type) {
		case []any:
			if c.add(path+ListSuffix, TypeArray) {
				*added = append(*added, path+ListSuffix)
			}
			c.list(e, path+ListSuffix, added)
		default:
			if child, ok := record.AsRecord(e); ok {
				c.object(child, path+".", added)
			}
		}
	}
}

// add reports whether path was new.
func (c *AttributeCollector) add(path, typ string) bool {
	types, ok := c.mapping[path]
	if !ok {
		types = make(map[string]struct{})
		c.mapping[path] = types
	}
	types[typ] = struct{}{}
	return !ok
}

// Len returns the number of known paths.
func (c *AttributeCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.mapping)
}

// Types returns the sorted types observed at path.
func (c *AttributeCollector) Types(path string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedTypes(c.mapping[path])
}

// Schema snapshots the collected mapping.
func (c *AttributeCollector) Schema() Schema {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := make(Schema, len(c.mapping))
	for path, types := range c.mapping {
		s[path] = sortedTypes(types)
	}
	return s
}

// Line formats one discovery line: execID, path and comma-joined types,
// tab separated.
func (c *AttributeCollector) Line(execID, path string) string {
	return execID + "\t" + path + "\t" + strings.Join(c.Types(path), ",")
}

func sortedTypes(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
