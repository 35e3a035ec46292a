package solver

import (
	"sort"

	"github.com/thunderfed/gateway/internal/gqlerr"
	"github.com/thunderfed/gateway/internal/operation"
	"github.com/thunderfed/gateway/internal/schema"
)

// Plan is one subquery round trip to a single subgraph (spec.md §3:
// "Plan { resolver_definition_id, field_ids, required_field_ids,
// shape_id, input_object_set_id?, output_object_set_ids[] }"). This
// struct has no shape ID field; shapes are not stored on the plan.
type Plan struct {
	ID                PlanID
	ResolverID        schema.ResolverID
	FieldIDs          []operation.FieldID
	RequiredFieldIDs  []operation.FieldID // fields from the parent plan's output this plan depends on
	ParentPlanID      PlanID
	HasParent         bool
	RootType          schema.TypeID
	NeedsOutputObject bool // set when a descendant plan depends on this plan's output
}

// Partition is the result of solving: a flat arena of Plans plus the
// dependency edges between them (a plan depends on its parent; the
// parent's output object set becomes required input for the child).
type Partition struct {
	Plans []Plan
}

// rootPlanKey groups QueryField attribution decisions by (resolver,
// parent plan) so sibling fields sharing a resolver end up in the same
// Plan rather than one Plan per field.
type rootPlanKey struct {
	resolver  schema.ResolverID
	parent    PlanID
	hasParent bool
}

// Partition implements §4.2's partitioning step: every Resolver node
// becomes a candidate plan root; each QueryField is assigned to
// exactly one provider by (no cross-subgraph jump first, then stable
// ID order; resolver cost is not compared), and plans are merged by
// (resolver, parent) so a
// whole subtree resolved by one subgraph round trip becomes one Plan.
func Partition(s *SolutionSpace) (*Partition, []*gqlerr.Error) {
	p := &Partition{}
	planIndex := map[rootPlanKey]PlanID{}
	var errs []*gqlerr.Error

	var walk func(node NodeID, parentPlan PlanID, hasParent bool, parentType schema.TypeID)
	walk = func(node NodeID, parentPlan PlanID, hasParent bool, parentType schema.TypeID) {
		n := s.Node(node)
		for _, child := range n.Edges(EdgeField) {
			attributeField(s, p, planIndex, &errs, child, parentPlan, hasParent, parentType, walk)
		}
		for _, child := range n.Edges(EdgeTypenameField) {
			attributeField(s, p, planIndex, &errs, child, parentPlan, hasParent, parentType, walk)
		}
	}
	walk(s.root, 0, false, s.schema.Query())

	return p, errs
}

// attributeField chooses a provider for one QueryField node and
// assigns it into a Plan, creating the Plan on first use. Selection
// among candidate ProvidableField children is done by pickProvider:
// prefer a resolver in the parent plan's own subgraph (no jump), then
// the lowest NodeID. Resolver cost is not part of the choice.
func attributeField(
	s *SolutionSpace,
	p *Partition,
	planIndex map[rootPlanKey]PlanID,
	errs *[]*gqlerr.Error,
	fieldNode NodeID,
	parentPlan PlanID,
	hasParent bool,
	parentType schema.TypeID,
	walk func(NodeID, PlanID, bool, schema.TypeID),
) {
	n := s.Node(fieldNode)
	f := s.op.FieldByID(n.Field)

	if f.Kind == operation.KindTypenameField {
		// __typename never needs its own resolver; it rides along with
		// whichever plan its siblings land in. Attribute it to the
		// parent plan if one exists, else a synthetic root plan keyed
		// on the schema's introspection-less Query resolver is skipped
		// here: callers add it to every plan touching parentType at
		// shape-build time instead, since it carries no resolver edge.
		if hasParent {
			p.Plans[parentPlan].FieldIDs = append(p.Plans[parentPlan].FieldIDs, n.Field)
		}
		return
	}

	candidates := n.Edges(EdgeCanProvide)
	if len(candidates) == 0 {
		*errs = append(*errs, gqlerr.New(gqlerr.CodeOperationPlanning,
			"CouldNotPlanAnyField: %s has no providable resolver", f.ResponseKey))
		return
	}

	best := pickProvider(s, p, candidates, parentPlan, hasParent)
	providable := s.Node(best)
	resolverNode := s.Node(providable.Edges(EdgeCreateChildResolver)[0])

	// A field whose chosen resolver lives in the same subgraph as its
	// parent's plan continues that same Plan (no round trip); only a
	// cross-subgraph jump starts a new one.
	var planID PlanID
	sameSubgraphAsParent := hasParent &&
		s.schema.Resolver(resolverNode.Resolver).Subgraph == s.schema.Resolver(p.Plans[parentPlan].ResolverID).Subgraph
	if sameSubgraphAsParent {
		planID = parentPlan
	} else {
		key := rootPlanKey{resolver: resolverNode.Resolver, parent: parentPlan, hasParent: hasParent}
		existing, ok := planIndex[key]
		if ok {
			planID = existing
		} else {
			planID = PlanID(len(p.Plans))
			planIndex[key] = planID
			p.Plans = append(p.Plans, Plan{
				ID:           planID,
				ResolverID:   resolverNode.Resolver,
				ParentPlanID: parentPlan,
				HasParent:    hasParent,
				RootType:     parentType,
			})
			if hasParent {
				p.Plans[parentPlan].NeedsOutputObject = true
			}
		}
	}
	p.Plans[planID].FieldIDs = append(p.Plans[planID].FieldIDs, n.Field)

	def := s.schema.Field(f.DefinitionID)
	if def.Requires != nil {
		for _, item := range def.Requires.Items {
			p.Plans[planID].RequiredFieldIDs = append(p.Plans[planID].RequiredFieldIDs, requiredFieldPlaceholder(item))
		}
	}

	if f.HasSelectionSet {
		walk(fieldNode, planID, true, def.Type)
	}
}

// requiredFieldPlaceholder maps a @requires FieldSetItem's schema
// FieldID into the RequiredFieldIDs slot. The executor keys ingestion
// of a parent plan's output object by schema FieldID, not by the
// (per-request) bound operation.FieldID space, so this conversion is
// purely a type alias for arena symmetry with FieldIDs.
func requiredFieldPlaceholder(item schema.FieldSetItem) operation.FieldID {
	return operation.FieldID(item.Field)
}

// pickProvider applies the tie-break rule: prefer a candidate whose
// resolver's subgraph matches the current plan's resolver (no cross-
// subgraph jump), then the lowest NodeID among the remaining
// candidates. Resolver cost is not compared. Without a parent plan the
// first candidate is returned.
func pickProvider(s *SolutionSpace, p *Partition, candidates []NodeID, parentPlan PlanID, hasParent bool) NodeID {
	if !hasParent || len(candidates) == 1 {
		return candidates[0]
	}
	parentResolver := s.schema.Resolver(p.Plans[parentPlan].ResolverID)
	sameSubgraph := make([]NodeID, 0, len(candidates))
	for _, c := range candidates {
		resolverNode := s.Node(s.Node(c).Edges(EdgeCreateChildResolver)[0])
		if s.schema.Resolver(resolverNode.Resolver).Subgraph == parentResolver.Subgraph {
			sameSubgraph = append(sameSubgraph, c)
		}
	}
	if len(sameSubgraph) > 0 {
		candidates = sameSubgraph
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
	return candidates[0]
}
