package coordinator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thunderfed/gateway/internal/response"
	"github.com/thunderfed/gateway/internal/schema"
	"github.com/thunderfed/gateway/internal/solver"
	"github.com/thunderfed/gateway/internal/transport"
)

// buildOneSubgraphSchema wires a Query.user -> User.name schema served
// entirely by one subgraph, the way transport_test.go's
// buildSingleFieldSchema does, plus the root-query resolver attachment
// the solver needs to actually plan the operation.
func buildOneSubgraphSchema(t *testing.T, subgraphName string) *schema.Schema {
	t.Helper()
	b := schema.NewBuilder()
	sub := b.AddSubgraph(subgraphName)

	stringType := b.DefineType(schema.TypeDefinition{Name: "String", Kind: schema.KindScalar})
	userType := b.DefineType(schema.TypeDefinition{Name: "User", Kind: schema.KindObject})
	nameField := b.DefineField(schema.FieldDefinition{Name: "name", ParentEntity: userType, Type: stringType, Wrapping: schema.NewWrapping(false)})
	b.SetFieldRange(userType, schema.IDRange[schema.FieldID]{Start: nameField, End: nameField + 1})
	b.FinalizePossibleTypes(userType, []schema.TypeID{userType})

	queryType := b.DefineType(schema.TypeDefinition{Name: "Query", Kind: schema.KindObject})
	userField := b.DefineField(schema.FieldDefinition{Name: "user", ParentEntity: queryType, Type: userType, Wrapping: schema.NewWrapping(false)})
	b.SetFieldRange(queryType, schema.IDRange[schema.FieldID]{Start: userField, End: userField + 1})

	resolver := b.DefineResolver(schema.ResolverDefinition{Subgraph: sub, Kind: schema.ResolverRootQuery})
	b.AttachResolver(userField, resolver)
	b.AttachResolver(nameField, resolver)

	sch, err := b.Build()
	require.NoError(t, err)
	return sch
}

func TestExecuteRunsFullPipelineAgainstOneSubgraph(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"user":{"name":"ada"}}}`))
	}))
	defer srv.Close()

	sch := buildOneSubgraphSchema(t, "accounts")
	c := &Coordinator{
		Schema:    sch,
		Endpoints: transport.Endpoints{"accounts": srv.URL},
		HTTP:      srv.Client(),
	}

	res := c.Execute(context.Background(), Request{Query: `{ user { name } }`})
	require.True(t, res.HasData)
	require.Empty(t, res.Errors)

	data, ok := res.Data.(map[string]interface{})
	require.True(t, ok)
	user, ok := data["user"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "ada", user["name"])
}

func TestExecuteReturnsParseErrorWithoutData(t *testing.T) {
	sch := buildOneSubgraphSchema(t, "accounts")
	c := &Coordinator{Schema: sch}

	res := c.Execute(context.Background(), Request{Query: `{ user { `})
	require.False(t, res.HasData)
	require.Nil(t, res.Data)
	require.NotEmpty(t, res.Errors)
}

func TestExecuteRejectsOverBudgetOperation(t *testing.T) {
	sch := buildOneSubgraphSchema(t, "accounts")
	c := &Coordinator{
		Schema: sch,
		Cost:   solver.CostBudget{Mode: solver.CostEnforce, Max: 1},
	}

	res := c.Execute(context.Background(), Request{Query: `{ user { name } }`})
	require.False(t, res.HasData)
	require.NotEmpty(t, res.Errors)
	require.Equal(t, "OPERATION_PLANNING_ERROR", string(res.Errors[0].Code))
}

func TestMergeRootsMergesMultipleSubgraphRootPlans(t *testing.T) {
	tree := response.NewTree()
	a := tree.NewObject()
	tree.SetField(a, "fromA", tree.Scalar("1"), true)
	bObj := tree.NewObject()
	tree.SetField(bObj, "fromB", tree.Scalar("2"), true)

	mergeRoots(tree, []response.ObjectID{a, bObj})

	root := tree.Root
	val, ok := tree.Field(root.Object, "fromA")
	require.True(t, ok)
	require.Equal(t, "1", tree.ScalarValue(val))

	val, ok = tree.Field(root.Object, "fromB")
	require.True(t, ok)
	require.Equal(t, "2", tree.ScalarValue(val))
}
