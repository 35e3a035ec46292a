package schema

import (
	"github.com/samsarahq/go/oops"
)

// Schema is the read-only, interned supergraph model shared, without
// locking, by every concurrent request. It outlives any one request;
// a hot-reload swaps the pointer held by the caller (internal/config)
// rather than mutating an existing Schema (§5 "Hot reload").
type Schema struct {
	Subgraphs []Subgraph
	Types     []TypeDefinition
	Fields    []FieldDefinition
	Arguments []Argument
	Resolvers []ResolverDefinition

	byName      map[string]TypeID
	queryType   TypeID
	mutationType TypeID
	hasMutation bool
}

// Query returns the root Query object type.
func (s *Schema) Query() TypeID { return s.queryType }

// Mutation returns the root Mutation object type and whether one is
// defined.
func (s *Schema) Mutation() (TypeID, bool) { return s.mutationType, s.hasMutation }

// TypeByName resolves a type name to its ID.
func (s *Schema) TypeByName(name string) (TypeID, bool) {
	id, ok := s.byName[name]
	return id, ok
}

// Type dereferences a TypeID. Panics on an out-of-range ID: a valid ID
// from this Schema is always in range, by construction (invariant).
func (s *Schema) Type(id TypeID) *TypeDefinition { return &s.Types[id] }

// Field dereferences a FieldID.
func (s *Schema) Field(id FieldID) *FieldDefinition { return &s.Fields[id] }

// Argument dereferences an ArgumentID.
func (s *Schema) Argument(id ArgumentID) *Argument { return &s.Arguments[id] }

// Resolver dereferences a ResolverID.
func (s *Schema) Resolver(id ResolverID) *ResolverDefinition { return &s.Resolvers[id] }

// SubgraphByID dereferences a SubgraphID.
func (s *Schema) SubgraphByID(id SubgraphID) *Subgraph { return &s.Subgraphs[id] }

// FieldByName looks up a field declared directly on an object or
// interface type by name. Used by the binder when resolving a
// selection against its parent type (§4.1).
func (s *Schema) FieldByName(parent TypeID, name string) (FieldID, bool) {
	r := s.Types[parent].Fields
	for id := r.Start; id < r.End; id++ {
		if s.Fields[id].Name == name {
			return id, true
		}
	}
	return 0, false
}

// PossibleTypes returns the sorted-by-name set of concrete object
// types that can appear where typ is referenced: typ itself if it's
// an Object, or its PossibleTypes if it's an Interface/Union.
func (s *Schema) PossibleTypes(typ TypeID) []TypeID {
	t := &s.Types[typ]
	if t.Kind == KindObject {
		return []TypeID{typ}
	}
	return t.PossibleTypes
}

// IsPossibleType reports whether obj can occur where typ is
// referenced.
func (s *Schema) IsPossibleType(typ, obj TypeID) bool {
	if typ == obj {
		return true
	}
	for _, p := range s.PossibleTypes(typ) {
		if p == obj {
			return true
		}
	}
	return false
}

// Disjoint reports whether two type conditions share no possible
// object in common — the "disjoint fragment" check from §4.1/§8.
func (s *Schema) Disjoint(a, b TypeID) bool {
	pa, pb := s.PossibleTypes(a), s.PossibleTypes(b)
	for _, x := range pa {
		for _, y := range pb {
			if x == y {
				return false
			}
		}
	}
	return true
}

// validate runs the cross-resolver consistency checks the teacher's
// validateFederationKeys performs (federation/schema.go), generalized
// from "has a _federation root field" to "every resolver's required
// key fields actually exist on the entity type".
func (s *Schema) validate() error {
	for rid := range s.Resolvers {
		r := &s.Resolvers[rid]
		if r.Kind != ResolverEntityLookup {
			continue
		}
		obj := s.Type(r.EntityType)
		for _, item := range r.RequiredFields.Items {
			if int(item.Field) >= len(s.Fields) {
				return oops.Errorf("entity %s: key references unknown field id %d", obj.Name, item.Field)
			}
			f := s.Field(item.Field)
			if f.ParentEntity != r.EntityType {
				return oops.Errorf("entity %s: key field %s does not belong to it", obj.Name, f.Name)
			}
		}
	}
	return nil
}
