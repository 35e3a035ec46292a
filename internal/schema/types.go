package schema

// TypeKind tags the TypeDefinition sum type. Dispatch on Kind is a
// plain switch; there is no vtable and no runtime type assertion
// needed to tell types apart.
type TypeKind uint8

const (
	KindScalar TypeKind = iota
	KindEnum
	KindObject
	KindInterface
	KindUnion
	KindInputObject
)

func (k TypeKind) String() string {
	switch k {
	case KindScalar:
		return "SCALAR"
	case KindEnum:
		return "ENUM"
	case KindObject:
		return "OBJECT"
	case KindInterface:
		return "INTERFACE"
	case KindUnion:
		return "UNION"
	case KindInputObject:
		return "INPUT_OBJECT"
	default:
		return "UNKNOWN"
	}
}

// TypeDefinition is a closed sum type over the six kinds a named
// GraphQL type can be. Only the fields relevant to Kind are populated;
// this mirrors graphql.Object/Union/Scalar in the teacher's graphql
// package but interns everything by ID instead of by pointer so the
// schema can be shared, read-only, across concurrent requests.
type TypeDefinition struct {
	Name string
	Kind TypeKind

	// Object / Interface: the field range in Schema.Fields.
	Fields IDRange[FieldID]

	// Interface: objects implementing it. Union: its member objects.
	// Both stored as a slice of TypeIDs sorted by type name.
	PossibleTypes []TypeID

	// Object: interfaces it implements.
	Implements []TypeID

	// Enum: accessible and inaccessible value names. Values marked
	// @inaccessible still decode on the wire (so an internal
	// @requires can reference them) but are rejected as client input
	// and omitted from introspection (invariant 4, spec.md §8).
	EnumValues             []string
	InaccessibleEnumValues map[string]bool

	// InputObject: field definitions (reuses FieldDefinition for name/
	// type/default, Resolvers is always empty for these).
	InputFields IDRange[FieldID]
	OneOf       bool

	Inaccessible bool
}

// KeyDirective is one @key on a type. Schema keeps no per-type
// directive table; key field sets are carried on the entity lookup
// resolvers (ResolverDefinition.RequiredFields) instead.
type KeyDirective struct {
	Key        FieldSet
	Resolvable bool
}
