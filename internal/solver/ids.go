// Package solver builds the solution space for one bound Operation
// against a Schema and partitions it into Plans (spec.md §4.2). The
// solution space graph itself is discarded once partitioning produces
// the Plan tree; only the Plans and their dependency edges survive
// into the shape builder and executor.
//
// The design generalizes the teacher's federation.Planner
// (federation/planner.go), which walks a flattened query assigning
// each selection to a service and builds a tree of *Plan nodes linked
// by PathStep. Here the walk is two-pass (build a solution-space graph
// first, then partition it) so a field can be attached to more than
// one candidate provider before the attribution choice is made, which
// the teacher's single-pass greedy walk does not support.
package solver

// NodeID indexes into a SolutionSpace's node arena.
type NodeID uint32

// PlanID indexes into a Partition's plan arena.
type PlanID uint32

// NodeKind tags the solution-space node sum type (spec.md §3: "Nodes:
// Root, QueryField(field_id), ProvidableField(field_id, resolver_id),
// Resolver(resolver_id)").
type NodeKind uint8

const (
	NodeRoot NodeKind = iota
	NodeQueryField
	NodeProvidableField
	NodeResolver
)

// EdgeKind tags the solution-space edge sum type (spec.md §3: "Edges:
// CreateChildResolver, CanProvide, Provides, Requires,
// HasChildResolver, TypenameField").
type EdgeKind uint8

const (
	EdgeField EdgeKind = iota
	EdgeTypenameField
	EdgeCreateChildResolver
	EdgeCanProvide
	EdgeProvides
	EdgeRequires
	EdgeHasChildResolver
)
