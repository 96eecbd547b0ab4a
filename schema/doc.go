// Package schema holds the XRPL record type tables and the three
// schema-driven passes applied to ledger records: validation (drop what the
// table does not allow), transformation (normalize currency amounts) and
// attribute collection (discover the type map of a live stream).
//
// A Schema maps a dotted path to the JSON types allowed at that path:
//
//	"Amount":          ["object", "string"],
//	"Amount.currency": ["string"],
//
// Arrays are kept as opaque values by the validator. The transformer and the
// attribute collector look inside them using the array's own path as the
// prefix for its elements, so "metaData.AffectedNodes.ModifiedNode" names
// the ModifiedNode key of any AffectedNodes element.
package schema
