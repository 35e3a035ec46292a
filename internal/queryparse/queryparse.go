// Package queryparse is the "thin adapter" operation.RawDocument's
// doc comment calls for: GraphQL query text in, operation.RawDocument
// out. Parsing itself is delegated to github.com/vektah/gqlparser/v2,
// the parser the GraphQL Go ecosystem (gqlgen, and this pack's
// hanpama-protograph) already standardizes on — implementing a
// GraphQL lexer/parser from scratch is an explicit Non-goal
// (spec.md §1).
package queryparse

import (
	"fmt"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/thunderfed/gateway/internal/operation"
)

// Parse parses source into a RawDocument. When source defines more
// than one operation, operationName selects which one to bind;
// selecting with an empty operationName is only valid when source
// defines exactly one operation (mirroring the GraphQL-over-HTTP spec
// gqlparser.LoadQuery's own single-operation convention).
func Parse(source string, operationName string) (*operation.RawDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}

	op, err := selectOperation(doc, operationName)
	if err != nil {
		return nil, err
	}

	a := &adapter{fragments: doc.Fragments}

	sel, err := a.selectionSet(op.SelectionSet)
	if err != nil {
		return nil, err
	}

	vars := make([]operation.RawVariableDefinition, 0, len(op.VariableDefinitions))
	for _, vd := range op.VariableDefinitions {
		rv, err := a.variableDefinition(vd)
		if err != nil {
			return nil, err
		}
		vars = append(vars, rv)
	}

	return &operation.RawDocument{
		OperationName: op.Name,
		Kind:          string(op.Operation),
		SelectionSet:  sel,
		Variables:     vars,
	}, nil
}

func selectOperation(doc *ast.QueryDocument, operationName string) (*ast.OperationDefinition, error) {
	if operationName != "" {
		for _, op := range doc.Operations {
			if op.Name == operationName {
				return op, nil
			}
		}
		return nil, fmt.Errorf("queryparse: no operation named %q", operationName)
	}
	if len(doc.Operations) != 1 {
		return nil, fmt.Errorf("queryparse: operationName is required when a document defines more than one operation")
	}
	return doc.Operations[0], nil
}

type adapter struct {
	fragments ast.FragmentDefinitionList
}

func (a *adapter) variableDefinition(vd *ast.VariableDefinition) (operation.RawVariableDefinition, error) {
	out := operation.RawVariableDefinition{
		Name: vd.Variable,
		Type: vd.Type.String(),
	}
	if vd.DefaultValue != nil {
		dv, err := a.value(vd.DefaultValue)
		if err != nil {
			return operation.RawVariableDefinition{}, err
		}
		out.DefaultValue = &dv
	}
	return out, nil
}

func (a *adapter) selectionSet(set ast.SelectionSet) (*operation.RawSelectionSet, error) {
	out := &operation.RawSelectionSet{}
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			rs, err := a.field(s)
			if err != nil {
				return nil, err
			}
			out.Selections = append(out.Selections, rs)
		case *ast.InlineFragment:
			rf, err := a.inlineFragment(s)
			if err != nil {
				return nil, err
			}
			out.Fragments = append(out.Fragments, rf)
		case *ast.FragmentSpread:
			def := a.lookupFragment(s.Name)
			if def == nil {
				return nil, fmt.Errorf("queryparse: undefined fragment %q", s.Name)
			}
			rf, err := a.fragmentDefinition(def, s.Directives)
			if err != nil {
				return nil, err
			}
			out.Fragments = append(out.Fragments, rf)
		default:
			return nil, fmt.Errorf("queryparse: unsupported selection type %T", sel)
		}
	}
	return out, nil
}

func (a *adapter) lookupFragment(name string) *ast.FragmentDefinition {
	for _, f := range a.fragments {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (a *adapter) field(f *ast.Field) (*operation.RawSelection, error) {
	args, err := a.arguments(f.Arguments)
	if err != nil {
		return nil, err
	}
	dirs, err := a.directives(f.Directives)
	if err != nil {
		return nil, err
	}

	var sub *operation.RawSelectionSet
	if len(f.SelectionSet) > 0 {
		sub, err = a.selectionSet(f.SelectionSet)
		if err != nil {
			return nil, err
		}
	}

	loc := operation.SourceLocation{}
	if f.Position != nil {
		loc = operation.SourceLocation{Line: f.Position.Line, Column: f.Position.Column}
	}

	return &operation.RawSelection{
		Name:         f.Name,
		Alias:        f.Alias,
		Args:         args,
		Directives:   dirs,
		SelectionSet: sub,
		Location:     loc,
	}, nil
}

// inlineFragment merges its own directives onto the spread fragment
// shape RawFragment expects (the binder distinguishes inline
// fragments from named fragment spreads only by the absence of extra
// bookkeeping, so both collapse to the same RawFragment).
func (a *adapter) inlineFragment(f *ast.InlineFragment) (*operation.RawFragment, error) {
	dirs, err := a.directives(f.Directives)
	if err != nil {
		return nil, err
	}
	sub, err := a.selectionSet(f.SelectionSet)
	if err != nil {
		return nil, err
	}
	return &operation.RawFragment{
		On:           f.TypeCondition,
		Directives:   dirs,
		SelectionSet: sub,
	}, nil
}

func (a *adapter) fragmentDefinition(def *ast.FragmentDefinition, spreadDirectives ast.DirectiveList) (*operation.RawFragment, error) {
	dirs, err := a.directives(spreadDirectives)
	if err != nil {
		return nil, err
	}
	sub, err := a.selectionSet(def.SelectionSet)
	if err != nil {
		return nil, err
	}
	return &operation.RawFragment{
		On:           def.TypeCondition,
		Directives:   dirs,
		SelectionSet: sub,
	}, nil
}

func (a *adapter) directives(in ast.DirectiveList) ([]operation.RawDirective, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]operation.RawDirective, 0, len(in))
	for _, d := range in {
		args, err := a.arguments(d.Arguments)
		if err != nil {
			return nil, err
		}
		out = append(out, operation.RawDirective{Name: d.Name, Args: args})
	}
	return out, nil
}

func (a *adapter) arguments(in ast.ArgumentList) (map[string]operation.RawValue, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]operation.RawValue, len(in))
	for _, arg := range in {
		v, err := a.value(arg.Value)
		if err != nil {
			return nil, err
		}
		out[arg.Name] = v
	}
	return out, nil
}

// value walks a *ast.Value without evaluating it against variables,
// preserving RawVariable references for the binder to resolve against
// the operation's own bound variable values.
func (a *adapter) value(v *ast.Value) (operation.RawValue, error) {
	switch v.Kind {
	case ast.Variable:
		return operation.RawValue{Kind: operation.RawVariable, Variable: v.Raw}, nil
	case ast.IntValue:
		n, err := strconv.ParseInt(v.Raw, 10, 64)
		if err != nil {
			return operation.RawValue{}, fmt.Errorf("queryparse: invalid int literal %q: %w", v.Raw, err)
		}
		return operation.RawValue{Kind: operation.RawInt, Int: n}, nil
	case ast.FloatValue:
		f, err := strconv.ParseFloat(v.Raw, 64)
		if err != nil {
			return operation.RawValue{}, fmt.Errorf("queryparse: invalid float literal %q: %w", v.Raw, err)
		}
		return operation.RawValue{Kind: operation.RawFloat, Float: f}, nil
	case ast.StringValue, ast.BlockValue:
		return operation.RawValue{Kind: operation.RawString, Str: v.Raw}, nil
	case ast.BooleanValue:
		return operation.RawValue{Kind: operation.RawBool, Bool: v.Raw == "true"}, nil
	case ast.NullValue:
		return operation.RawValue{Kind: operation.RawNull}, nil
	case ast.EnumValue:
		return operation.RawValue{Kind: operation.RawEnum, Str: v.Raw}, nil
	case ast.ListValue:
		items := make([]operation.RawValue, 0, len(v.Children))
		for _, child := range v.Children {
			cv, err := a.value(child.Value)
			if err != nil {
				return operation.RawValue{}, err
			}
			items = append(items, cv)
		}
		return operation.RawValue{Kind: operation.RawList, List: items}, nil
	case ast.ObjectValue:
		fields := make(map[string]operation.RawValue, len(v.Children))
		for _, child := range v.Children {
			cv, err := a.value(child.Value)
			if err != nil {
				return operation.RawValue{}, err
			}
			fields[child.Name] = cv
		}
		return operation.RawValue{Kind: operation.RawObject, Object: fields}, nil
	default:
		return operation.RawValue{}, fmt.Errorf("queryparse: unsupported value kind %v", v.Kind)
	}
}
