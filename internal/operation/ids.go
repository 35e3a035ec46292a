// Package operation binds a parsed GraphQL request (fields, fragments,
// variables) against a schema.Schema into a typed, position-tagged
// internal operation: §4.1 of the spec. Binding never talks to a
// subgraph; it is pure, schema-driven validation and coercion.
package operation

import "github.com/thunderfed/gateway/internal/schema"

// FieldID indexes Operation.Fields.
type FieldID uint32

// SelectionSetID indexes Operation.SelectionSets.
type SelectionSetID uint32

// VariableID indexes Operation.Variables.
type VariableID uint32

// InputValueID indexes Operation.Values, the arena backing every
// QueryInputValue (including nested list/object elements).
type InputValueID uint32

// InputObjectFieldID indexes Operation.InputObjectFields.
type InputObjectFieldID uint32

// KeyValueID indexes Operation.MapEntries (the Map input-value kind).
type KeyValueID uint32

// IDRange is a contiguous, end-exclusive arena range.
type IDRange[T ~uint32] struct {
	Start T
	End   T
}

func (r IDRange[T]) Len() int { return int(r.End) - int(r.Start) }

// schemaFieldID re-exports schema.FieldID for readability at call
// sites that bind operation fields against their schema definition.
type schemaFieldID = schema.FieldID
