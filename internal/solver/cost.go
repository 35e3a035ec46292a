package solver

import (
	"github.com/thunderfed/gateway/internal/gqlerr"
	"github.com/thunderfed/gateway/internal/operation"
	"github.com/thunderfed/gateway/internal/schema"
)

// CostMode selects how Complexity reacts to a query exceeding its
// budget (spec.md §4.2 "Complexity control").
type CostMode uint8

const (
	// CostMeasure only records the computed cost; it never rejects.
	CostMeasure CostMode = iota
	// CostEnforce rejects the operation once its cost exceeds the
	// configured maximum.
	CostEnforce
)

// CostBudget configures Complexity's behavior.
type CostBudget struct {
	Mode CostMode
	Max  int64
}

// Complexity walks the bound operation computing a weighted cost
// before the solver attempts to plan anything — this lets an
// over-budget query fail fast without ever touching a subgraph. Each
// field costs its @cost(weight) (1 without one) times the product of
// the sizes of the @listSize fields above it. A list's size is its
// single slicing argument's Int literal value when
// requireOneSlicingArgument is set, and assumedSize otherwise. @cost on
// arguments and @listSize(sizedFields) are not counted.
func Complexity(op *operation.Operation, sch *schema.Schema, budget CostBudget) (int64, []*gqlerr.Error) {
	var total int64
	var errs []*gqlerr.Error
	walkCost(op, sch, op.RootSelectionSet, 1, &total, &errs)

	if budget.Mode == CostEnforce && budget.Max > 0 && total > budget.Max {
		errs = append(errs, gqlerr.New(gqlerr.CodeOperationPlanning,
			"operation cost %d exceeds configured maximum %d", total, budget.Max))
	}
	return total, errs
}

func walkCost(op *operation.Operation, sch *schema.Schema, ssID operation.SelectionSetID, multiplier int64, total *int64, errs *[]*gqlerr.Error) {
	ss := op.SelectionSetByID(ssID)
	for _, fid := range ss.FieldIDs {
		f := op.FieldByID(fid)
		if f.Kind == operation.KindTypenameField {
			continue
		}
		def := sch.Field(f.DefinitionID)

		weight := int64(1)
		if def.CostWeight > 0 {
			weight = int64(def.CostWeight)
		}
		*total += weight * multiplier

		childMultiplier := multiplier
		if def.ListSize != nil {
			size, err := listSize(op, f, def)
			if err != nil {
				*errs = append(*errs, err)
			} else {
				childMultiplier *= size
			}
		}

		if f.HasSelectionSet {
			walkCost(op, sch, f.SelectionSetID, childMultiplier, total, errs)
		}
	}
}

// listSize estimates a list field's size from @listSize, enforcing
// requireOneSlicingArgument when set (§4.2).
func listSize(op *operation.Operation, f *operation.Field, def *schema.FieldDefinition) (int64, *gqlerr.Error) {
	ls := def.ListSize

	if ls.RequireOneSlicingArgument {
		present := 0
		var slicingValue *operation.QueryInputValue
		for _, name := range ls.SlicingArguments {
			if valID, ok := f.Arguments[name]; ok {
				present++
				v := op.Value(valID)
				slicingValue = v
			}
		}
		if present != 1 {
			return 0, gqlerr.New(gqlerr.CodeOperationPlanning,
				"@listSize on %q requires exactly one of %v, got %d", f.ResponseKey, ls.SlicingArguments, present)
		}
		if slicingValue != nil && slicingValue.Kind == operation.ValueInt {
			return slicingValue.Int, nil
		}
	}

	return int64(ls.AssumedSize), nil
}
