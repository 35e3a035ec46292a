package operation

import "github.com/thunderfed/gateway/internal/schema"

// FieldKind tags the Field sum type (§3: "Field variants: DataField
// and TypenameField").
type FieldKind uint8

const (
	KindDataField FieldKind = iota
	KindTypenameField
)

// Field is a bound selection: a DataField has a schema definition and
// coerced arguments; a TypenameField never does (it only ever reads
// __typename).
type Field struct {
	Kind FieldKind

	// QueryPosition is a per-selection-set counter assigned in binding
	// order: a selection set's own fields are numbered before the
	// fields reached through its fragments, and a duplicate that is
	// merged into an earlier field still consumes a number. Output
	// order does not follow it: response objects are rendered as maps,
	// so encoding/json writes their keys in sorted order.
	QueryPosition int

	ResponseKey string

	// DataField only:
	DefinitionID   schema.FieldID
	Arguments      map[string]InputValueID
	SelectionSetID SelectionSetID // 0/invalid when the field is a leaf
	HasSelectionSet bool

	// TypenameField only:
	TypeCondition schema.TypeID

	// Shared: the chain of fragment type conditions this field
	// inherits, outermost first. A field is only emitted for an
	// object O if every condition in the chain is compatible with O
	// (§3 invariant).
	TypeConditions []schema.TypeID

	Modifiers []QueryModifierRule

	Location SourceLocation
}

// QueryModifierRule is currently only the skip/include rule (§4.1);
// response modifiers (authorization, extensions) operate at the
// response/shape layer instead (§4.4) and are not part of the bound
// operation.
type QueryModifierRule struct {
	SkipValueIDs    []InputValueID
	IncludeValueIDs []InputValueID
}

// SelectionSet holds field IDs ordered by (parent entity, then
// QueryPosition) as required by §3's "Invariants" section: this is
// the order the shape builder and executor rely on for deterministic
// traversal.
type SelectionSet struct {
	ParentType schema.TypeID
	FieldIDs   []FieldID
}
