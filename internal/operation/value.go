package operation

// QueryInputValueKind tags the QueryInputValue sum type (§3): "Null,
// String, Enum, Int, BigInt, Float, Bool, List, InputObject, Map, U64,
// UnboundEnum, DefaultValue(id), Variable(id)".
type QueryInputValueKind uint8

const (
	ValueNull QueryInputValueKind = iota
	ValueString
	ValueEnum
	ValueUnboundEnum // an enum value the schema doesn't recognize; kept for @inaccessible opacity (spec.md E6)
	ValueInt
	ValueBigInt
	ValueU64
	ValueFloat
	ValueBool
	ValueList
	ValueInputObject
	ValueMap
	ValueDefault  // references an Argument/InputField's schema default
	ValueVariable // references a VariableDefinition
)

// QueryInputValue is a coerced operation-time value. List and
// InputObject payloads are ranges into Operation's arenas rather than
// nested slices, so a whole operation's input values live in three
// contiguous arenas addressable by IDRange (§3).
type QueryInputValue struct {
	Kind QueryInputValueKind

	Str     string // String, Enum, UnboundEnum
	Int     int64  // Int, BigInt
	U64     uint64
	Float   float64
	Bool    bool

	ListRange   IDRange[InputValueID]
	ObjectRange IDRange[InputObjectFieldID]
	MapRange    IDRange[KeyValueID]

	VariableID VariableID // ValueVariable
	// DefaultOwner distinguishes which schema default this references
	// when Kind == ValueDefault; resolved lazily at execution time
	// once the owning Argument/InputField is known from context.
	DefaultOwner string
}

// InputObjectField is one field of an InputObject-kind QueryInputValue.
type InputObjectField struct {
	Name  string
	Value InputValueID
}

// KeyValue is one entry of a Map-kind QueryInputValue (an
// arbitrary, non-input-object JSON object passed through, e.g. for a
// `JSON` custom scalar argument).
type KeyValue struct {
	Key   string
	Value InputValueID
}

// VariableDefinition is filled in from request variables once they
// are known, at execution time (§3).
type VariableDefinition struct {
	Name         string
	TypeName     string
	DefaultValue InputValueID
	HasDefault   bool
}
