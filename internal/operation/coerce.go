package operation

import (
	"math"

	"github.com/thunderfed/gateway/internal/gqlerr"
	"github.com/thunderfed/gateway/internal/schema"
)

// coerceArguments implements §4.1's strict input coercion contract for
// one field's argument list.
func (b *Binder) coerceArguments(def *schema.FieldDefinition, raw map[string]RawValue) (map[string]InputValueID, *gqlerr.Error) {
	out := make(map[string]InputValueID, len(raw))
	seen := map[string]bool{}

	for id := def.Arguments.Start; id < def.Arguments.End; id++ {
		arg := b.schema.Argument(id)
		seen[arg.Name] = true
		rv, provided := raw[arg.Name]
		if !provided {
			if arg.Wrapping.InnerNonNull() && arg.DefaultValue == nil {
				return nil, gqlerr.New(gqlerr.CodeOperationValidation, "missing required argument %q", arg.Name)
			}
			continue
		}
		valID, err := b.coerceValue(rv, arg.Type, arg.Wrapping)
		if err != nil {
			return nil, err
		}
		out[arg.Name] = valID
	}
	for name := range raw {
		if !seen[name] {
			return nil, gqlerr.New(gqlerr.CodeOperationValidation, "unknown argument %q", name)
		}
	}
	return out, nil
}

// coerceValue implements the scalar/list/input-object coercion rules
// named in §4.1 and tested in §8 ("Boundary behaviors"):
//   - Int accepts a JSON number only if integral and within i32.
//   - Float accepts integers too.
//   - ID accepts String or Int.
//   - A non-list value is wrapped into a singleton list when the
//     expected type is a list, except null.
//   - Input-object required fields without defaults missing => UnexpectedNull.
//   - Unknown input-object field => error.
//   - @oneOf input objects require exactly one non-null field.
//   - Inaccessible enum values/fields behave as if absent.
func (b *Binder) coerceValue(rv RawValue, typ schema.TypeID, wrap schema.Wrapping) (InputValueID, *gqlerr.Error) {
	if rv.Kind == RawVariable {
		varID, ok := b.variableIndex(rv.Variable)
		if !ok {
			return 0, gqlerr.New(gqlerr.CodeOperationValidation, "undefined variable $%s", rv.Variable)
		}
		return b.intern(QueryInputValue{Kind: ValueVariable, VariableID: varID}), nil
	}

	if wrap.ListDepth() > 0 {
		return b.coerceListValue(rv, typ, wrap)
	}

	if rv.Kind == RawNull {
		if wrap.InnerNonNull() {
			return 0, gqlerr.New(gqlerr.CodeOperationValidation, "UnexpectedNull: value must not be null")
		}
		return b.intern(QueryInputValue{Kind: ValueNull}), nil
	}

	def := b.schema.Type(typ)
	switch def.Kind {
	case schema.KindScalar:
		return b.coerceScalar(rv, def.Name)
	case schema.KindEnum:
		return b.coerceEnum(rv, def)
	case schema.KindInputObject:
		return b.coerceInputObject(rv, def)
	default:
		return 0, gqlerr.New(gqlerr.CodeOperationValidation, "type %q cannot be used as input", def.Name)
	}
}

func (b *Binder) coerceListValue(rv RawValue, typ schema.TypeID, wrap schema.Wrapping) (InputValueID, *gqlerr.Error) {
	if rv.Kind == RawNull {
		// null for [T!] (the list itself is nullable) is accepted and
		// becomes null (§8 "List coercion").
		outerNonNull := wrap.ListNonNull(wrap.ListDepth() - 1)
		if outerNonNull {
			return 0, gqlerr.New(gqlerr.CodeOperationValidation, "UnexpectedNull: list must not be null")
		}
		return b.intern(QueryInputValue{Kind: ValueNull}), nil
	}

	inner := schema.Wrapping{} // wrapping one list layer down
	// Reconstruct an inner wrapping by peeling the outermost list layer.
	innerWrap := peelOuterList(wrap)

	var elems []RawValue
	if rv.Kind == RawList {
		elems = rv.List
	} else {
		// Scalar v for type [T] becomes [v] (except null, handled above).
		elems = []RawValue{rv}
	}

	start := InputValueID(len(b.op.Values))
	placeholder := make([]QueryInputValue, len(elems))
	b.op.Values = append(b.op.Values, placeholder...)
	for i, e := range elems {
		id, err := b.coerceValue(e, typ, innerWrap)
		if err != nil {
			return 0, err
		}
		// null element inside [T!] is an error (§8).
		if innerWrap.ListDepth() == 0 && innerWrap.InnerNonNull() && b.op.Value(id).Kind == ValueNull {
			return 0, gqlerr.New(gqlerr.CodeOperationValidation, "UnexpectedNull: list element must not be null")
		}
		b.op.Values[int(start)+i] = *b.op.Value(id)
	}
	end := start + InputValueID(len(elems))
	_ = inner
	return b.intern(QueryInputValue{Kind: ValueList, ListRange: IDRange[InputValueID]{Start: start, End: end}}), nil
}

// peelOuterList returns a Wrapping one list layer shallower (dropping
// the outermost list modifier), used to recurse into list elements.
func peelOuterList(w schema.Wrapping) schema.Wrapping {
	if w.ListDepth() == 0 {
		return w
	}
	listNonNull := make([]bool, 0, w.ListDepth()-1)
	for i := 0; i < w.ListDepth()-1; i++ {
		listNonNull = append(listNonNull, w.ListNonNull(i))
	}
	return schema.NewWrapping(w.InnerNonNull(), listNonNull...)
}

func (b *Binder) coerceScalar(rv RawValue, scalarName string) (InputValueID, *gqlerr.Error) {
	switch scalarName {
	case "Int":
		switch rv.Kind {
		case RawInt:
			if rv.Int < math.MinInt32 || rv.Int > math.MaxInt32 {
				return 0, gqlerr.New(gqlerr.CodeOperationValidation, "Int overflow: %d does not fit in i32", rv.Int)
			}
			return b.intern(QueryInputValue{Kind: ValueInt, Int: rv.Int}), nil
		case RawFloat:
			if rv.Float != math.Trunc(rv.Float) {
				return 0, gqlerr.New(gqlerr.CodeOperationValidation, "%v is not a valid Int: not integral", rv.Float)
			}
			if rv.Float < math.MinInt32 || rv.Float > math.MaxInt32 {
				return 0, gqlerr.New(gqlerr.CodeOperationValidation, "Int overflow")
			}
			return b.intern(QueryInputValue{Kind: ValueInt, Int: int64(rv.Float)}), nil
		default:
			return 0, gqlerr.New(gqlerr.CodeOperationValidation, "expected Int, got %v", rv.Kind)
		}
	case "Float":
		switch rv.Kind {
		case RawFloat:
			return b.intern(QueryInputValue{Kind: ValueFloat, Float: rv.Float}), nil
		case RawInt:
			return b.intern(QueryInputValue{Kind: ValueFloat, Float: float64(rv.Int)}), nil
		default:
			return 0, gqlerr.New(gqlerr.CodeOperationValidation, "expected Float, got %v", rv.Kind)
		}
	case "String":
		if rv.Kind != RawString {
			return 0, gqlerr.New(gqlerr.CodeOperationValidation, "expected String, got %v", rv.Kind)
		}
		return b.intern(QueryInputValue{Kind: ValueString, Str: rv.Str}), nil
	case "Boolean":
		if rv.Kind != RawBool {
			return 0, gqlerr.New(gqlerr.CodeOperationValidation, "expected Boolean, got %v", rv.Kind)
		}
		return b.intern(QueryInputValue{Kind: ValueBool, Bool: rv.Bool}), nil
	case "ID":
		switch rv.Kind {
		case RawString:
			return b.intern(QueryInputValue{Kind: ValueString, Str: rv.Str}), nil
		case RawInt:
			return b.intern(QueryInputValue{Kind: ValueInt, Int: rv.Int}), nil
		default:
			return 0, gqlerr.New(gqlerr.CodeOperationValidation, "expected ID (String or Int), got %v", rv.Kind)
		}
	default:
		// Unrecognized custom scalars pass through as an opaque Map
		// entry tree rather than failing closed.
		return b.coerceOpaque(rv)
	}
}

func (b *Binder) coerceOpaque(rv RawValue) (InputValueID, *gqlerr.Error) {
	switch rv.Kind {
	case RawString:
		return b.intern(QueryInputValue{Kind: ValueString, Str: rv.Str}), nil
	case RawInt:
		return b.intern(QueryInputValue{Kind: ValueInt, Int: rv.Int}), nil
	case RawFloat:
		return b.intern(QueryInputValue{Kind: ValueFloat, Float: rv.Float}), nil
	case RawBool:
		return b.intern(QueryInputValue{Kind: ValueBool, Bool: rv.Bool}), nil
	case RawObject:
		start := KeyValueID(len(b.op.MapEntries))
		for k, v := range rv.Object {
			id, err := b.coerceOpaque(v)
			if err != nil {
				return 0, err
			}
			b.op.MapEntries = append(b.op.MapEntries, KeyValue{Key: k, Value: id})
		}
		end := KeyValueID(len(b.op.MapEntries))
		return b.intern(QueryInputValue{Kind: ValueMap, MapRange: IDRange[KeyValueID]{Start: start, End: end}}), nil
	case RawList:
		start := InputValueID(len(b.op.Values))
		for _, e := range rv.List {
			id, err := b.coerceOpaque(e)
			if err != nil {
				return 0, err
			}
			_ = id
		}
		end := InputValueID(len(b.op.Values))
		return b.intern(QueryInputValue{Kind: ValueList, ListRange: IDRange[InputValueID]{Start: start, End: end}}), nil
	default:
		return b.intern(QueryInputValue{Kind: ValueNull}), nil
	}
}

func (b *Binder) coerceEnum(rv RawValue, def *schema.TypeDefinition) (InputValueID, *gqlerr.Error) {
	if rv.Kind != RawEnum && rv.Kind != RawString {
		return 0, gqlerr.New(gqlerr.CodeOperationValidation, "expected enum %q, got %v", def.Name, rv.Kind)
	}
	name := rv.Str
	if def.InaccessibleEnumValues[name] {
		// §6 E6: inaccessible enum value as input is reported exactly
		// like an unknown value.
		return 0, gqlerr.New(gqlerr.CodeOperationValidation, "Unknown enum value '%s'", name)
	}
	found := false
	for _, v := range def.EnumValues {
		if v == name {
			found = true
			break
		}
	}
	if !found {
		return 0, gqlerr.New(gqlerr.CodeOperationValidation, "Unknown enum value '%s'", name)
	}
	return b.intern(QueryInputValue{Kind: ValueEnum, Str: name}), nil
}

func (b *Binder) coerceInputObject(rv RawValue, def *schema.TypeDefinition) (InputValueID, *gqlerr.Error) {
	if rv.Kind != RawObject {
		return 0, gqlerr.New(gqlerr.CodeOperationValidation, "expected input object %q", def.Name)
	}

	start := InputObjectFieldID(len(b.op.InputObjectFields))
	seen := map[string]bool{}
	nonNullProvided := 0

	for id := def.InputFields.Start; id < def.InputFields.End; id++ {
		field := b.schema.Field(id)
		if field.Inaccessible {
			continue
		}
		seen[field.Name] = true
		fv, provided := rv.Object[field.Name]
		if !provided {
			if field.Wrapping.InnerNonNull() && field.DefaultValue == nil {
				// required field missing with no default => UnexpectedNull
				return 0, gqlerr.New(gqlerr.CodeOperationValidation, "UnexpectedNull: input field %q.%q is required", def.Name, field.Name)
			}
			continue
		}
		valID, err := b.coerceValue(fv, field.Type, field.Wrapping)
		if err != nil {
			return 0, err
		}
		if b.op.Value(valID).Kind != ValueNull {
			nonNullProvided++
		}
		b.op.InputObjectFields = append(b.op.InputObjectFields, InputObjectField{Name: field.Name, Value: valID})
	}
	for name := range rv.Object {
		if !seen[name] {
			return 0, gqlerr.New(gqlerr.CodeOperationValidation, "unknown input field %q on %q", name, def.Name)
		}
	}
	if def.OneOf && nonNullProvided != 1 {
		return 0, gqlerr.New(gqlerr.CodeOperationValidation, "@oneOf input %q requires exactly one non-null field, got %d", def.Name, nonNullProvided)
	}

	end := InputObjectFieldID(len(b.op.InputObjectFields))
	return b.intern(QueryInputValue{Kind: ValueInputObject, ObjectRange: IDRange[InputObjectFieldID]{Start: start, End: end}}), nil
}

func (b *Binder) intern(v QueryInputValue) InputValueID {
	id := InputValueID(len(b.op.Values))
	b.op.Values = append(b.op.Values, v)
	return id
}

func (b *Binder) variableIndex(name string) (VariableID, bool) {
	for i, v := range b.op.Variables {
		if v.Name == name {
			return VariableID(i), true
		}
	}
	return 0, false
}

// internRawValue coerces a directive argument value (no expected
// schema type — used for @skip/@include's Boolean `if` argument and
// variable default values) straight from its raw form.
func (b *Binder) internRawValue(rv RawValue, expectBool bool) (InputValueID, *gqlerr.Error) {
	if rv.Kind == RawVariable {
		varID, ok := b.variableIndex(rv.Variable)
		if !ok {
			return 0, gqlerr.New(gqlerr.CodeOperationValidation, "undefined variable $%s", rv.Variable)
		}
		return b.intern(QueryInputValue{Kind: ValueVariable, VariableID: varID}), nil
	}
	if expectBool {
		if rv.Kind != RawBool {
			return 0, gqlerr.New(gqlerr.CodeOperationValidation, "expected Boolean, got %v", rv.Kind)
		}
		return b.intern(QueryInputValue{Kind: ValueBool, Bool: rv.Bool}), nil
	}
	return b.coerceOpaque(rv)
}
