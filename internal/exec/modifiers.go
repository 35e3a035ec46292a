package exec

import (
	"context"

	"github.com/thunderfed/gateway/internal/gqlerr"
	"github.com/thunderfed/gateway/internal/response"
)

// ModifierKind tags the response modifier sum type (spec.md §4.4).
type ModifierKind uint8

const (
	ModifierAuthorizedParentEdge ModifierKind = iota
	ModifierAuthorizedEdgeChild
	ModifierExtension
)

// Decision is one hook's verdict on a batch of elements, mirroring
// spec.md's "GrantAll | DenySome{(element_ix, error_ix)[]} |
// DenyAll(err)".
type Decision struct {
	GrantAll bool
	DenyAll  *gqlerr.Error
	// Denials names the elements denied when neither GrantAll nor
	// DenyAll applies (DenySome).
	Denials []ElementDenial
}

// ElementDenial is one denied element of a DenySome decision.
type ElementDenial struct {
	ElementIndex int
	Err          *gqlerr.Error
}

// Element is one (parent, child) pair a modifier evaluates: the
// object the edge hangs off of, the field key, and whether that
// field's own type is non-null (decides null-propagate vs mark
// inaccessible on denial).
type Element struct {
	Parent  response.ObjectID
	Key     string
	NonNull bool
	Path    []response.PathStep

	// RequiredFields holds the already-decoded sibling values named by
	// the field's @authorized(fields:...) selection (spec.md §4.4),
	// keyed by schema field name, so a Hook can make its decision
	// without re-reading the tree itself.
	RequiredFields map[string]interface{}
}

// Hook evaluates a batch of elements under one directive invocation.
// internal/extension supplies the registered implementations; tests
// supply fakes.
type Hook interface {
	Evaluate(ctx context.Context, elements []Element) (Decision, error)
}

// Modifier is one response-modifier rule attached to a plan's output,
// run once the plans feeding its input are Done (spec.md §4.4).
type Modifier struct {
	Kind     ModifierKind
	Hook     Hook
	Elements []Element
}

// Apply runs one modifier's hook and applies its decision to the
// response tree: a denial on a non-null edge null-propagates upward
// (PropagateNull); a denial on a nullable edge marks the value
// inaccessible instead (still readable for requirement collection,
// invisible to the client).
func Apply(ctx context.Context, tree *response.Tree, m Modifier) error {
	decision, err := m.Hook.Evaluate(ctx, m.Elements)
	if err != nil {
		return err
	}

	if decision.GrantAll {
		return nil
	}

	if decision.DenyAll != nil {
		for _, el := range m.Elements {
			denyElement(tree, el, decision.DenyAll)
		}
		return nil
	}

	for _, d := range decision.Denials {
		el := m.Elements[d.ElementIndex]
		denyElement(tree, el, d.Err)
	}
	return nil
}

func denyElement(tree *response.Tree, el Element, cause *gqlerr.Error) {
	tree.AddError(cause, el.Path)
	if el.NonNull {
		tree.PropagateNull(el.Path)
		return
	}
	tree.MarkField(el.Parent, el.Key)
}
