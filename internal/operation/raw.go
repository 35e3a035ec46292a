package operation

// The types below are the binder's input: an already-parsed GraphQL
// document. Parsing GraphQL text into this shape is out of scope
// (spec.md §1 Non-goals); an external parser (or a thin adapter over
// one) produces it. The shape mirrors the richer, federation-era
// Selection/Fragment types the teacher's federation package expects
// (UnparsedArgs, Directives, type conditions) rather than the teacher's
// older graphql.Selection, since those carry the strings the binder
// actually needs: directive lists
// for @skip/@include and raw (uncoerced) argument values.
type RawDocument struct {
	OperationName string
	Kind          string // "query" | "mutation" | "subscription"
	SelectionSet  *RawSelectionSet
	Variables     []RawVariableDefinition
}

type RawSelectionSet struct {
	Selections []*RawSelection
	Fragments  []*RawFragment
}

type RawSelection struct {
	Name         string
	Alias        string
	Args         map[string]RawValue
	Directives   []RawDirective
	SelectionSet *RawSelectionSet
	Location     SourceLocation
}

type RawFragment struct {
	On           string
	Directives   []RawDirective
	SelectionSet *RawSelectionSet
}

type RawDirective struct {
	Name string
	Args map[string]RawValue
}

type RawVariableDefinition struct {
	Name         string
	Type         string // SDL type reference, e.g. "[ID!]!"
	DefaultValue *RawValue
}

// SourceLocation is carried through to every binder error (§4.1
// failure contract).
type SourceLocation struct {
	Line   int
	Column int
}

// RawValue is the uncoerced value tree produced by the parser: either
// a literal or a variable reference, recursively for lists/objects.
// Coercion (coerce.go) turns this into a QueryInputValue against an
// expected schema type.
type RawValue struct {
	Kind     RawValueKind
	Str      string
	Int      int64
	Float    float64
	Bool     bool
	Variable string
	List     []RawValue
	Object   map[string]RawValue
}

type RawValueKind uint8

const (
	RawNull RawValueKind = iota
	RawVariable
	RawInt
	RawFloat
	RawString
	RawBool
	RawEnum
	RawList
	RawObject
)
