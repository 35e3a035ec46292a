package solver

import (
	"github.com/thunderfed/gateway/internal/gqlerr"
	"github.com/thunderfed/gateway/internal/operation"
	"github.com/thunderfed/gateway/internal/schema"
)

// Node is one solution-space graph node (spec.md §3). Only the fields
// relevant to Kind are populated, mirroring the closed-sum-type
// convention used throughout internal/schema and internal/operation.
type Node struct {
	Kind NodeKind

	// QueryField / ProvidableField:
	Field operation.FieldID

	// ProvidableField / Resolver:
	Resolver schema.ResolverID

	// Edges out of this node, keyed by kind, each list in insertion
	// order.
	children map[EdgeKind][]NodeID
}

func (n *Node) addEdge(kind EdgeKind, to NodeID) {
	if n.children == nil {
		n.children = map[EdgeKind][]NodeID{}
	}
	n.children[kind] = append(n.children[kind], to)
}

// Edges returns the children reached via the given edge kind, in
// insertion order.
func (n *Node) Edges(kind EdgeKind) []NodeID { return n.children[kind] }

// SolutionSpace is the directed graph built in pass one/two of §4.2,
// read-only once Build returns. It is scoped to a single request and
// discarded after Partition runs.
type SolutionSpace struct {
	op     *operation.Operation
	schema *schema.Schema
	nodes  []Node
	root   NodeID

	// queryFieldNode maps a bound Field to the QueryField node that
	// represents it, so pass two can look providers up by Field ID
	// without a second BFS.
	queryFieldNode map[operation.FieldID]NodeID
}

func (s *SolutionSpace) newNode(n Node) NodeID {
	id := NodeID(len(s.nodes))
	s.nodes = append(s.nodes, n)
	return id
}

func (s *SolutionSpace) Node(id NodeID) *Node { return &s.nodes[id] }

// Build runs the two-pass construction of spec.md §4.2 over the
// operation's root selection set.
func Build(op *operation.Operation, sch *schema.Schema) (*SolutionSpace, []*gqlerr.Error) {
	s := &SolutionSpace{
		op:             op,
		schema:         sch,
		queryFieldNode: map[operation.FieldID]NodeID{},
	}
	s.root = s.newNode(Node{Kind: NodeRoot})

	var errs []*gqlerr.Error
	s.buildSelectionSet(s.root, op.RootSelectionSet, sch.Query(), &errs)
	if len(errs) > 0 {
		return nil, errs
	}

	s.attachProviders(&errs)
	if len(errs) > 0 {
		return nil, errs
	}
	return s, nil
}

// buildSelectionSet is pass one: walk fields depth-first, connecting
// each to its parent with a Field or TypenameField edge, skipping
// fields whose type-condition chain is disjoint from parentType, and
// deduplicating identical fields already attached to parent.
func (s *SolutionSpace) buildSelectionSet(parent NodeID, ssID operation.SelectionSetID, parentType schema.TypeID, errs *[]*gqlerr.Error) {
	ss := s.op.SelectionSetByID(ssID)

	// seenByKey implements "per-parent response-key bloom filter
	// followed by an exact check" (§4.2) — here, a plain map serves as
	// the exact check directly since the arenas are in memory already.
	seenByKey := map[string]NodeID{}

	for _, fid := range ss.FieldIDs {
		f := s.op.FieldByID(fid)
		if !s.typeConditionsCompatible(parentType, f.TypeConditions) {
			continue
		}

		key := f.ResponseKey
		if existing, ok := seenByKey[key]; ok {
			// Already attached an equivalent field under this parent
			// (binder-level merging already guarantees the
			// definition/arguments agree); just recurse into any
			// nested selection set using the existing node so
			// diamond-shaped fragment overlap doesn't duplicate work.
			if f.HasSelectionSet {
				s.buildSelectionSet(existing, f.SelectionSetID, s.fieldObjectType(f), errs)
			}
			continue
		}

		node := s.newNode(Node{Kind: NodeQueryField, Field: fid})
		if f.Kind == operation.KindTypenameField {
			s.nodes[parent].addEdge(EdgeTypenameField, node)
		} else {
			s.nodes[parent].addEdge(EdgeField, node)
		}
		seenByKey[key] = node
		s.queryFieldNode[fid] = node

		if f.HasSelectionSet {
			s.buildSelectionSet(node, f.SelectionSetID, s.fieldObjectType(f), errs)
		}
	}
}

func (s *SolutionSpace) fieldObjectType(f *operation.Field) schema.TypeID {
	return s.schema.Field(f.DefinitionID).Type
}

// typeConditionsCompatible reports whether parentType satisfies every
// fragment type condition in the field's inherited chain (§4.2 "a
// field is skipped if its parent type and its fragment chain's type
// conditions have empty intersection").
func (s *SolutionSpace) typeConditionsCompatible(parentType schema.TypeID, conditions []schema.TypeID) bool {
	for _, cond := range conditions {
		if s.schema.Disjoint(parentType, cond) {
			return false
		}
	}
	return true
}

// attachProviders is pass two: for each QueryField, try every resolver
// declared on its parent's containing subgraph(s) and attach a
// ProvidableField child when the resolver can supply the field (field
// declared on the resolver's subgraph, and @requires/@authorized are
// satisfiable).
func (s *SolutionSpace) attachProviders(errs *[]*gqlerr.Error) {
	// Iterate by index: newNode calls inside the loop append to
	// s.nodes, and Go slices only guarantee len() is read fresh each
	// iteration when the loop condition re-evaluates it, which a
	// range over the original slice would not do.
	for i := 0; i < len(s.nodes); i++ {
		n := &s.nodes[i]
		if n.Kind != NodeQueryField {
			continue
		}
		f := s.op.FieldByID(n.Field)
		if f.Kind == operation.KindTypenameField {
			continue
		}
		def := s.schema.Field(f.DefinitionID)
		if len(def.Resolvers) == 0 {
			*errs = append(*errs, gqlerr.New(gqlerr.CodeOperationPlanning,
				"CouldNotPlanAnyField: no resolver declares field %q", f.ResponseKey))
			continue
		}
		for _, rid := range def.Resolvers {
			if !s.requirementsSatisfiable(def) {
				continue
			}
			resolverNode := s.newNode(Node{Kind: NodeResolver, Resolver: rid})
			providable := s.newNode(Node{Kind: NodeProvidableField, Field: n.Field, Resolver: rid})
			s.nodes[i].addEdge(EdgeCanProvide, providable)
			s.nodes[providable].addEdge(EdgeCreateChildResolver, resolverNode)
			if def.Requires != nil && !def.Requires.Empty() {
				s.nodes[providable].addEdge(EdgeRequires, providable)
			}
		}
	}
}

// requirementsSatisfiable is a conservative stand-in for the full
// cross-resolver dependency-satisfaction search named in §4.2: it
// checks only that every field named in @requires/@authorized exists
// on the entity, deferring the "satisfiable by the selected providers"
// transitive check to Partition, where providers are actually chosen.
func (s *SolutionSpace) requirementsSatisfiable(def *schema.FieldDefinition) bool {
	for _, fs := range []*schema.FieldSet{def.Requires, def.Authorized} {
		if fs == nil {
			continue
		}
		for _, item := range fs.Items {
			if int(item.Field) >= len(s.schema.Fields) {
				return false
			}
		}
	}
	return true
}
