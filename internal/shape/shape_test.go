package shape

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thunderfed/gateway/internal/operation"
	"github.com/thunderfed/gateway/internal/schema"
)

func TestBuildConcreteShapeSortsByExpectedKey(t *testing.T) {
	b := schema.NewBuilder()
	b.AddSubgraph("s")
	stringType := b.DefineType(schema.TypeDefinition{Name: "String", Kind: schema.KindScalar})
	userType := b.DefineType(schema.TypeDefinition{Name: "User", Kind: schema.KindObject})
	nameField := b.DefineField(schema.FieldDefinition{Name: "name", ParentEntity: userType, Type: stringType})
	emailField := b.DefineField(schema.FieldDefinition{Name: "email", ParentEntity: userType, Type: stringType})
	b.SetFieldRange(userType, schema.IDRange[schema.FieldID]{Start: nameField, End: emailField + 1})
	b.FinalizePossibleTypes(userType, []schema.TypeID{userType})
	queryType := b.DefineType(schema.TypeDefinition{Name: "Query", Kind: schema.KindObject})
	b.SetFieldRange(queryType, schema.IDRange[schema.FieldID]{})
	sch, err := b.Build()
	require.NoError(t, err)

	op := &operation.Operation{}
	nameF := operation.Field{Kind: operation.KindDataField, ResponseKey: "name", DefinitionID: nameField}
	emailF := operation.Field{Kind: operation.KindDataField, ResponseKey: "email", DefinitionID: emailField}
	op.Fields = append(op.Fields, nameF, emailF)
	ss := operation.SelectionSet{ParentType: userType, FieldIDs: []operation.FieldID{0, 1}}
	op.SelectionSets = append(op.SelectionSets, ss)

	shape := Build(op, sch, operation.SelectionSetID(0))
	require.NotNil(t, shape.Concrete)
	require.Equal(t, IdentifierKnown, shape.Concrete.Identifier)
	require.Len(t, shape.Concrete.Fields, 2)
	require.Equal(t, "email", shape.Concrete.Fields[0].ExpectedKey)
	require.Equal(t, "name", shape.Concrete.Fields[1].ExpectedKey)
}
