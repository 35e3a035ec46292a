// Package schema is the immutable, interned supergraph model: type
// definitions, field-to-resolver mappings, and the directive metadata
// (@key, @requires, @provides, @authorized, ...) the solver and binder
// need. Every entity is referenced by a 32-bit index into a slab owned
// by the Schema that built it; there are no pointers and no cycles.
package schema

// TypeID indexes Schema.Types.
type TypeID uint32

// FieldID indexes Schema.Fields. A FieldID is scoped to the object or
// interface that declares it; Schema.Fields stores them contiguously
// per parent so a type's fields are an IDRange.
type FieldID uint32

// ArgumentID indexes Schema.Arguments.
type ArgumentID uint32

// ResolverID indexes Schema.Resolvers.
type ResolverID uint32

// SubgraphID indexes Schema.Subgraphs.
type SubgraphID uint32

// FieldSetItemID identifies one FieldSet item (@key, @requires,
// @provides, @authorized.fields selections). Schema has no FieldSetItems
// slab: each FieldSet holds its Items slice directly.
type FieldSetItemID uint32

// DirectiveID identifies a directive. Schema keeps no Directives slab.
type DirectiveID uint32

// IDRange is a contiguous, end-exclusive range into a slab. It never
// outlives the slab it indexes; ranging over it is pointer-free index
// arithmetic.
type IDRange[T ~uint32] struct {
	Start T
	End   T
}

// Len reports the number of elements in the range.
func (r IDRange[T]) Len() int { return int(r.End) - int(r.Start) }

// Empty reports whether the range has no elements.
func (r IDRange[T]) Empty() bool { return r.End <= r.Start }
