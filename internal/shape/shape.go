// Package shape builds response shapes for a plan's selection set
// (spec.md §4.3): for each selection set, partition its possible
// object types by equivalent field set, emitting a ConcreteObjectShape
// per partition (or a single one, directly, when the set can't
// diverge). Shapes are read-only and sit between the solver's Plan and
// the executor's deserialization of a subgraph response.
package shape

import (
	"sort"

	"github.com/thunderfed/gateway/internal/operation"
	"github.com/thunderfed/gateway/internal/schema"
)

// Identifier tags how a ConcreteObjectShape is recognized while
// merging a streamed subgraph response (§4.3).
type Identifier uint8

const (
	// IdentifierKnown applies when |O_T| = 1: every object in scope is
	// the same concrete type, so no __typename is needed to tell shapes
	// apart.
	IdentifierKnown Identifier = iota
	// IdentifierInterfaceTypename/IdentifierUnionTypename mark a shape
	// that must read __typename off the wire to know which concrete
	// shape it is.
	IdentifierInterfaceTypename
	IdentifierUnionTypename
	// IdentifierAnonymous is used when the shape is reached through a
	// type condition that isn't itself an interface/union root (a plain
	// object under a fragment), and doesn't need a __typename read.
	IdentifierAnonymous
)

// FieldShape is one field's presence in a shape, sorted within its
// shape by ExpectedKey (§4.3 "sorted by the expected_key ... to enable
// a linear merge against streamed JSON").
type FieldShape struct {
	Field       operation.FieldID
	ExpectedKey string // response key emitted by the subgraph
	Wrapping    schema.Wrapping
	IsTypename  bool
	Nested      *ObjectShape // set when this field itself has a selection set
}

// ConcreteObjectShape is shape for exactly one partition of possible
// object types (§4.3).
type ConcreteObjectShape struct {
	Identifier Identifier
	Object     schema.TypeID   // valid when Identifier == IdentifierKnown
	Root       schema.TypeID   // the interface/union this shape was partitioned from, for Identifier*Typename
	Objects    []schema.TypeID // every concrete type this shape matches, sorted by name
	Fields     []FieldShape    // sorted by ExpectedKey
}

// ObjectShape is either a single ConcreteObjectShape (the common case:
// one selection set maps unambiguously to one field set) or a
// PolymorphicObjectShape fanning out to several, keyed by which
// concrete type the response actually is.
type ObjectShape struct {
	Concrete     *ConcreteObjectShape   // set when the selection set has only one equivalence class
	Polymorphic  []*ConcreteObjectShape // set otherwise, one entry per partition
}

// Build produces the root ObjectShape for a plan's selection set,
// recursing into every field with its own selection set.
func Build(op *operation.Operation, sch *schema.Schema, ssID operation.SelectionSetID) *ObjectShape {
	ss := op.SelectionSetByID(ssID)
	possible := sch.PossibleTypes(ss.ParentType)

	partitions := partitionByFieldSet(op, sch, ss, possible)

	if len(partitions) == 1 && setEquals(partitions[0].objects, possible) {
		return &ObjectShape{Concrete: buildConcreteShape(op, sch, ss, partitions[0], sch.Type(ss.ParentType).Kind, ss.ParentType)}
	}

	shapes := make([]*ConcreteObjectShape, len(partitions))
	for i, part := range partitions {
		shapes[i] = buildConcreteShape(op, sch, ss, part, sch.Type(ss.ParentType).Kind, ss.ParentType)
	}
	return &ObjectShape{Polymorphic: shapes}
}

// partition groups possible object types that would receive the exact
// same field shapes under this selection set.
type partition struct {
	objects []schema.TypeID
}

// partitionByFieldSet implements §4.3's partitioning algorithm: start
// with one partition containing every possible object, then for each
// type condition actually used in this selection set (gathered from
// every field's TypeConditions chain, plus any interface/union type
// condition's own possible types), split existing partitions by
// "is-member" of that condition's possible-type set.
func partitionByFieldSet(op *operation.Operation, sch *schema.Schema, ss *operation.SelectionSet, possible []schema.TypeID) []partition {
	parts := []partition{{objects: possible}}

	conditions := collectConditions(op, ss)
	for _, cond := range conditions {
		condPossible := sch.PossibleTypes(cond)
		var next []partition
		for _, p := range parts {
			in, out := splitByMembership(p.objects, condPossible)
			if len(in) > 0 {
				next = append(next, partition{objects: in})
			}
			if len(out) > 0 {
				next = append(next, partition{objects: out})
			}
		}
		parts = next
	}
	return parts
}

func collectConditions(op *operation.Operation, ss *operation.SelectionSet) []schema.TypeID {
	seen := map[schema.TypeID]bool{}
	var out []schema.TypeID
	for _, fid := range ss.FieldIDs {
		f := op.FieldByID(fid)
		for _, c := range f.TypeConditions {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

func splitByMembership(objects, member []schema.TypeID) (in, out []schema.TypeID) {
	memberSet := make(map[schema.TypeID]bool, len(member))
	for _, m := range member {
		memberSet[m] = true
	}
	for _, o := range objects {
		if memberSet[o] {
			in = append(in, o)
		} else {
			out = append(out, o)
		}
	}
	return in, out
}

func setEquals(a, b []schema.TypeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func buildConcreteShape(op *operation.Operation, sch *schema.Schema, ss *operation.SelectionSet, part partition, parentKind schema.TypeKind, root schema.TypeID) *ConcreteObjectShape {
	shape := &ConcreteObjectShape{Objects: part.objects}

	switch {
	case len(part.objects) == 1:
		shape.Identifier = IdentifierKnown
		shape.Object = part.objects[0]
	case parentKind == schema.KindInterface:
		shape.Identifier = IdentifierInterfaceTypename
		shape.Root = root
	case parentKind == schema.KindUnion:
		shape.Identifier = IdentifierUnionTypename
		shape.Root = root
	default:
		shape.Identifier = IdentifierAnonymous
	}

	// A field applies to this partition when every object in it is
	// compatible with the field's type-condition chain (disjointness
	// already filtered incompatible fields out of any single object,
	// but a field conditioned on a fragment narrower than the whole
	// partition must still only apply to the members it covers).
	for _, fid := range ss.FieldIDs {
		f := op.FieldByID(fid)
		if !fieldAppliesToPartition(sch, f, part.objects) {
			continue
		}
		fs := FieldShape{Field: fid, ExpectedKey: f.ResponseKey, IsTypename: f.Kind == operation.KindTypenameField}
		if f.Kind == operation.KindDataField {
			def := sch.Field(f.DefinitionID)
			fs.Wrapping = def.Wrapping
			if f.HasSelectionSet {
				fs.Nested = Build(op, sch, f.SelectionSetID)
			}
		}
		shape.Fields = append(shape.Fields, fs)
	}
	sort.Slice(shape.Fields, func(i, j int) bool { return shape.Fields[i].ExpectedKey < shape.Fields[j].ExpectedKey })

	return shape
}

// fieldAppliesToPartition reports whether every object in a partition
// satisfies the field's inherited type-condition chain.
func fieldAppliesToPartition(sch *schema.Schema, f *operation.Field, objects []schema.TypeID) bool {
	for _, cond := range f.TypeConditions {
		for _, obj := range objects {
			if !sch.IsPossibleType(cond, obj) {
				return false
			}
		}
	}
	return true
}
