package schema

import (
	"sort"

	"github.com/samsarahq/go/oops"
)

// Builder interns a composed supergraph descriptor into a Schema's
// slabs. Composition itself — merging subgraph SDLs into one
// descriptor — is out of scope (spec.md §1); Builder only consumes
// the already-composed result, the way the teacher's convertSchema
// consumes already-fetched IntrospectionQuery results
// (federation/federation.go, federation/schema.go) rather than parsing
// SDL text itself.
type Builder struct {
	s *Schema
}

// NewBuilder starts a fresh, empty schema under construction.
func NewBuilder() *Builder {
	return &Builder{s: &Schema{byName: map[string]TypeID{}}}
}

// AddSubgraph interns a subgraph and returns its ID.
func (b *Builder) AddSubgraph(name string) SubgraphID {
	id := SubgraphID(len(b.s.Subgraphs))
	b.s.Subgraphs = append(b.s.Subgraphs, Subgraph{Name: name})
	return id
}

// DefineType interns a type definition (without its fields, which are
// added with DefineField) and returns its ID. Calling DefineType twice
// for the same name returns the existing ID, so subgraphs can each
// declare the types they extend.
func (b *Builder) DefineType(def TypeDefinition) TypeID {
	if id, ok := b.s.byName[def.Name]; ok {
		return id
	}
	id := TypeID(len(b.s.Types))
	b.s.Types = append(b.s.Types, def)
	b.s.byName[def.Name] = id
	if def.Name == "Query" {
		b.s.queryType = id
	}
	if def.Name == "Mutation" {
		b.s.mutationType = id
		b.s.hasMutation = true
	}
	return id
}

// DefineField appends a field to parent's field range. Field ranges
// must be contiguous, so all of a type's fields must be defined
// consecutively before any other type's fields are added; SetFieldRange
// sets the range on the (already-appended) type once done.
func (b *Builder) DefineField(def FieldDefinition) FieldID {
	id := FieldID(len(b.s.Fields))
	b.s.Fields = append(b.s.Fields, def)
	return id
}

// SetFieldRange assigns the [start, end) field range for typ, after
// all of its DefineField calls.
func (b *Builder) SetFieldRange(typ TypeID, r IDRange[FieldID]) {
	b.s.Types[typ].Fields = r
}

// DefineArgument appends an argument and returns its ID.
func (b *Builder) DefineArgument(def Argument) ArgumentID {
	id := ArgumentID(len(b.s.Arguments))
	b.s.Arguments = append(b.s.Arguments, def)
	return id
}

// DefineResolver appends a resolver and returns its ID. It only interns
// the resolver record itself; callers link it onto each field it can
// supply with AttachResolver (for an entity lookup resolver, every
// field of EntityType that the subgraph can supply).
func (b *Builder) DefineResolver(def ResolverDefinition) ResolverID {
	id := ResolverID(len(b.s.Resolvers))
	b.s.Resolvers = append(b.s.Resolvers, def)
	return id
}

// AttachResolver records that resolver can supply field.
func (b *Builder) AttachResolver(field FieldID, resolver ResolverID) {
	f := &b.s.Fields[field]
	f.Resolvers = append(f.Resolvers, resolver)
}

// SetFieldDirectives patches a field's @requires/@provides/@authorized
// field sets after the fact. These reference fields on other types
// (a field's own parent for @requires/@authorized, its return type
// for @provides) that may not exist yet at DefineField time when a
// loader processes types in declaration order, so they're applied in
// a second pass once every type's fields are known.
func (b *Builder) SetFieldDirectives(field FieldID, requires, provides, authorized *FieldSet) {
	f := &b.s.Fields[field]
	if requires != nil {
		f.Requires = requires
	}
	if provides != nil {
		f.Provides = provides
	}
	if authorized != nil {
		f.Authorized = authorized
	}
}

// FinalizePossibleTypes sorts and stores possible-types/implements
// lists after all types are known (interfaces/unions reference
// objects that may be declared later across subgraphs).
func (b *Builder) FinalizePossibleTypes(typ TypeID, possible []TypeID) {
	sorted := append([]TypeID(nil), possible...)
	sort.Slice(sorted, func(i, j int) bool {
		return b.s.Types[sorted[i]].Name < b.s.Types[sorted[j]].Name
	})
	b.s.Types[typ].PossibleTypes = sorted
}

// Build finishes construction, validates cross-resolver invariants,
// and returns the immutable Schema. The Builder must not be reused
// afterward.
func (b *Builder) Build() (*Schema, error) {
	if err := b.s.validate(); err != nil {
		return nil, oops.Wrapf(err, "validating schema")
	}
	return b.s, nil
}
