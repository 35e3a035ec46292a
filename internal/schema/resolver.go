package schema

// ResolverKind tags how a ResolverDefinition resolves its field(s).
type ResolverKind uint8

const (
	// ResolverRootQuery resolves directly from a subgraph's root Query
	// or Mutation type.
	ResolverRootQuery ResolverKind = iota
	// ResolverEntityLookup re-hydrates an entity given its @key
	// fields, via the subgraph's `_entities`-style lookup field.
	ResolverEntityLookup
	// ResolverIntrospection answers __schema/__type locally without a
	// subgraph round trip.
	ResolverIntrospection
	// ResolverExtension is backed by a registered extension (see
	// internal/extension) rather than a subgraph request.
	ResolverExtension
)

// Subgraph describes one upstream service contributing to the
// supergraph.
type Subgraph struct {
	Name string
	// URL/transport selection is left to internal/transport; the
	// schema only needs a stable name to key ResolverDefinition.Subgraph
	// and gateway.rate_limit/subgraphs.<name>.rate_limit config.
}

// LookupArgMapping says how a FieldSet key field maps onto a resolver
// argument, the result of the auto-detection in §4.2.
type LookupArgMapping struct {
	// KeyFieldIndex indexes into the key FieldSet's Items.
	KeyFieldIndex int
	// ArgumentID the key field value is passed through.
	Argument ArgumentID
	// Nested is set when the argument is a single required input
	// object and the key field maps to one of its input fields
	// (auto-detection case (b)); NestedInputField names that field.
	Nested          bool
	NestedInputField string
	// Batch is set when this lookup accepts a list of keys, batching
	// many entity references into one round trip (auto-detection case
	// (d)); Argument is then the list-typed argument.
	Batch bool
}

// ResolverDefinition is one (subgraph, mechanism) pair able to supply
// a field or re-hydrate an entity.
type ResolverDefinition struct {
	Subgraph        SubgraphID
	Kind            ResolverKind
	RequiredFields  FieldSet // @key for entity lookups, empty for root
	EntityType      TypeID   // the entity type an EntityLookup resolver hydrates
	LookupField     FieldID  // the lookup field itself, on the subgraph's Query type
	LookupArguments []LookupArgMapping
}

// FieldSetItem is one element of a FieldSet: a field reference plus
// any arguments it was selected with and, recursively, its own
// subselection (for @key(fields:"a { b c }")-style nested keys).
type FieldSetItem struct {
	Field        FieldID
	Arguments    map[string]ConstValue
	Subselection FieldSet
}

// FieldSet is an ordered sequence of FieldSetItems — the shape used
// for @key, @requires, @provides, and @authorized.fields.
type FieldSet struct {
	Items []FieldSetItem
}

// Empty reports whether the field set selects nothing.
func (fs FieldSet) Empty() bool { return len(fs.Items) == 0 }
