package operation

import "github.com/thunderfed/gateway/internal/schema"

// Operation is the binder's output: read-only for the rest of the
// request's lifetime (Solution, Shapes, Response all derive from it
// without mutating it). It lives exactly one request (§3 Lifecycle).
type Operation struct {
	Name string
	Kind string // "query" | "mutation" | "subscription"

	Fields        []Field
	SelectionSets []SelectionSet
	Variables     []VariableDefinition

	Values            []QueryInputValue
	InputObjectFields []InputObjectField
	MapEntries        []KeyValue

	RootSelectionSet SelectionSetID
	RootType         schema.TypeID
}

func (o *Operation) FieldByID(id FieldID) *Field { return &o.Fields[id] }

func (o *Operation) SelectionSetByID(id SelectionSetID) *SelectionSet {
	return &o.SelectionSets[id]
}

func (o *Operation) Value(id InputValueID) *QueryInputValue { return &o.Values[id] }

// ValuesIn iterates a list value's elements.
func (o *Operation) ValuesIn(r IDRange[InputValueID]) []QueryInputValue {
	return o.Values[r.Start:r.End]
}

// InputObjectFieldsIn iterates an input object's fields.
func (o *Operation) InputObjectFieldsIn(r IDRange[InputObjectFieldID]) []InputObjectField {
	return o.InputObjectFields[r.Start:r.End]
}

// InputObjectField dereferences a single InputObjectFieldID.
func (o *Operation) InputObjectField(id InputObjectFieldID) *InputObjectField {
	return &o.InputObjectFields[id]
}

// MapEntry dereferences a single KeyValueID.
func (o *Operation) MapEntry(id KeyValueID) *KeyValue { return &o.MapEntries[id] }

// VariableByID dereferences a VariableID.
func (o *Operation) VariableByID(id VariableID) *VariableDefinition { return &o.Variables[id] }
