package transport

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"github.com/thunderfed/gateway/internal/operation"
	"github.com/thunderfed/gateway/internal/response"
	"github.com/thunderfed/gateway/internal/schema"
)

func buildSingleFieldSchema(t *testing.T) (*schema.Schema, schema.FieldID, schema.FieldID) {
	t.Helper()
	b := schema.NewBuilder()
	b.AddSubgraph("accounts")
	stringType := b.DefineType(schema.TypeDefinition{Name: "String", Kind: schema.KindScalar})
	userType := b.DefineType(schema.TypeDefinition{Name: "User", Kind: schema.KindObject})
	nameField := b.DefineField(schema.FieldDefinition{Name: "name", ParentEntity: userType, Type: stringType, Wrapping: schema.NewWrapping(true)})
	b.SetFieldRange(userType, schema.IDRange[schema.FieldID]{Start: nameField, End: nameField + 1})

	queryType := b.DefineType(schema.TypeDefinition{Name: "Query", Kind: schema.KindObject})
	userField := b.DefineField(schema.FieldDefinition{Name: "user", ParentEntity: queryType, Type: userType})
	b.SetFieldRange(queryType, schema.IDRange[schema.FieldID]{Start: userField, End: userField + 1})
	b.FinalizePossibleTypes(userType, []schema.TypeID{userType})

	sch, err := b.Build()
	require.NoError(t, err)
	return sch, userField, nameField
}

func TestBuildRootQueryRendersNestedSelection(t *testing.T) {
	sch, userField, nameField := buildSingleFieldSchema(t)

	op := &operation.Operation{}
	op.Fields = []operation.Field{
		{Kind: operation.KindDataField, ResponseKey: "user", DefinitionID: userField, HasSelectionSet: true, SelectionSetID: 1},
		{Kind: operation.KindDataField, ResponseKey: "name", DefinitionID: nameField},
	}
	op.SelectionSets = []operation.SelectionSet{
		{}, // root, unused here
		{FieldIDs: []operation.FieldID{1}},
	}

	query := buildRootQuery(op, sch, []operation.FieldID{0}, nil)
	require.Equal(t, "query{user{name}}", query)
}

func TestHydrateFieldsDecodesScalarAndNested(t *testing.T) {
	sch, userField, nameField := buildSingleFieldSchema(t)

	op := &operation.Operation{}
	op.Fields = []operation.Field{
		{Kind: operation.KindDataField, ResponseKey: "user", DefinitionID: userField, HasSelectionSet: true, SelectionSetID: 1},
		{Kind: operation.KindDataField, ResponseKey: "name", DefinitionID: nameField},
	}
	op.SelectionSets = []operation.SelectionSet{
		{},
		{FieldIDs: []operation.FieldID{1}},
	}

	tree := response.NewTree()
	obj := tree.NewObject()

	raw := map[string]jsoniter.RawMessage{
		"user": jsoniter.RawMessage(`{"name":"ada"}`),
	}
	err := hydrateFields(tree, op, sch, []operation.FieldID{0}, raw, obj, nil, nil)
	require.NoError(t, err)

	userVal, ok := tree.Field(obj, "user")
	require.True(t, ok)
	require.Equal(t, response.ValueObjectRef, userVal.Kind)

	nameVal, ok := tree.Field(userVal.Object, "name")
	require.True(t, ok)
	require.Equal(t, "ada", tree.ScalarValue(nameVal))
}

func TestDecodeValueRejectsNullForNonNullField(t *testing.T) {
	sch, _, nameField := buildSingleFieldSchema(t)
	_ = sch
	tree := response.NewTree()

	def := sch.Field(nameField)
	_, _, err := decodeValue(tree, nil, sch, def.Wrapping.Iter(), jsoniter.RawMessage(`null`), nil, nil, nil)
	require.Error(t, err)
}
