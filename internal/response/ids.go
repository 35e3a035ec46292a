// Package response implements the executor's response tree (spec.md
// §3, §4.5): object/list arenas addressed by ID instead of pointers,
// so null propagation and inaccessible marking can rewrite a value in
// place without chasing parent pointers, and errors can record a
// precise path (object_id+key or list_id+index) even after a parent
// has since been replaced with null.
package response

// ObjectID and ListID index into a Tree's object/list arenas.
type ObjectID uint32
type ListID uint32

// ValueID is a tagged reference into one of the Tree's value spaces —
// a field slot on an object, an index into a list, a scalar stored
// inline, or null — mirroring ResponseValueId from spec.md §4.5.
type ValueID struct {
	Kind ValueKind

	Object ObjectID
	List   ListID

	// Scalar is the index into Tree.scalars when Kind == ValueScalar.
	Scalar int
}

type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueScalar
	ValueObjectRef
	ValueListRef
)
