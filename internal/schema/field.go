package schema

// Wrapping encodes the nullability / list modifier stack on a type
// reference (e.g. [[T!]!]!) as a bit pattern, innermost bit first.
// Bit i set means "layer i is non-null"; the number of list layers is
// tracked separately since a bare Wrapping can't otherwise say how
// many times to descend before reaching the named type.
//
// This is the same trick the spec calls for in §3: "a bit pattern with
// an iterator yielding nullability per layer" lets null propagation
// (response/nullprop.go) walk layers without ever consulting the
// schema's type graph again.
type Wrapping struct {
	// listDepth is the number of list layers, outermost first is
	// listDepth-1 .. 0; 0 means a plain (possibly non-null) scalar-ish
	// reference.
	listDepth uint8
	// nonNullBits has bit 0 for the innermost (named type) layer's
	// nullability, bit i for the (i)th list layer wrapping it, bit
	// listDepth for the outermost list's own non-null wrapper.
	nonNullBits uint32
}

// NewWrapping builds a Wrapping from innermost-to-outermost non-null
// flags. innerNonNull is whether the named type itself is non-null;
// listNonNull[i] is whether the i-th list layer (innermost first) is
// non-null.
func NewWrapping(innerNonNull bool, listNonNull ...bool) Wrapping {
	w := Wrapping{listDepth: uint8(len(listNonNull))}
	if innerNonNull {
		w.nonNullBits |= 1
	}
	for i, nn := range listNonNull {
		if nn {
			w.nonNullBits |= 1 << uint(i+1)
		}
	}
	return w
}

// ListDepth reports how many list layers wrap the named type.
func (w Wrapping) ListDepth() int { return int(w.listDepth) }

// InnerNonNull reports whether the named (leaf) type is non-null.
func (w Wrapping) InnerNonNull() bool { return w.nonNullBits&1 != 0 }

// ListNonNull reports whether list layer i (0 = innermost) is itself
// wrapped in a non-null modifier.
func (w Wrapping) ListNonNull(i int) bool {
	return w.nonNullBits&(1<<uint(i+1)) != 0
}

// WrappingIter yields (isList, nonNull) starting from the outermost
// layer inward, ending with the named type itself.
type WrappingIter struct {
	w     Wrapping
	layer int // counts down from listDepth to 0
}

// Iter returns an iterator positioned at the outermost layer.
func (w Wrapping) Iter() WrappingIter {
	return WrappingIter{w: w, layer: int(w.listDepth)}
}

// Next reports the next layer, outermost first. ok is false once the
// named type's own nullability has already been yielded.
func (it *WrappingIter) Next() (isList, nonNull bool, ok bool) {
	if it.layer < 0 {
		return false, false, false
	}
	if it.layer == 0 {
		nonNull = it.w.InnerNonNull()
		it.layer--
		return false, nonNull, true
	}
	nonNull = it.w.ListNonNull(it.layer - 1)
	it.layer--
	return true, nonNull, true
}

// FieldDefinition describes a field on an Object or Interface (or,
// reused, an input field on an InputObject — Resolvers is empty and
// DefaultValueID may be set in that case).
type FieldDefinition struct {
	Name         string
	ParentEntity TypeID
	Type         TypeID
	Wrapping     Wrapping

	Arguments IDRange[ArgumentID]

	// Resolvers able to supply this field, in declaration order. A
	// field with len(Resolvers) > 1 is providable from multiple
	// subgraphs; the solver picks one per §4.2's tie-break rule.
	Resolvers []ResolverID

	Requires   *FieldSet // @requires(fields:...)
	Provides   *FieldSet // @provides(fields:...)
	Authorized *FieldSet // @authorized(fields:...)

	Inaccessible bool
	CostWeight   int32 // @cost(weight:), 0 if unset
	ListSize     *ListSizeDirective

	// DefaultValue is set only when this FieldDefinition is reused to
	// describe an InputObject's input field (Resolvers is empty in
	// that case).
	DefaultValue *ConstValue
}

// ListSizeDirective mirrors @listSize(slicingArguments, sizedFields,
// assumedSize, requireOneSlicingArgument) from spec.md §6.
type ListSizeDirective struct {
	SlicingArguments        []string
	SizedFields             []string
	AssumedSize             int32
	RequireOneSlicingArgument bool
}

// Argument describes one argument of a FieldDefinition.
type Argument struct {
	Name         string
	Type         TypeID
	Wrapping     Wrapping
	DefaultValue *ConstValue
	Inaccessible bool
}

// ConstValue is a schema-time constant (argument/input-field default
// values). It is a closed sum type distinct from the operation
// package's QueryInputValue because schema values never reference
// variables.
type ConstValue struct {
	Kind        ConstValueKind
	StringVal   string
	IntVal      int64
	FloatVal    float64
	BoolVal     bool
	EnumVal     string
	ListVal     []ConstValue
	ObjectVal   map[string]ConstValue
}

type ConstValueKind uint8

const (
	ConstNull ConstValueKind = iota
	ConstString
	ConstInt
	ConstFloat
	ConstBool
	ConstEnum
	ConstList
	ConstObject
)
