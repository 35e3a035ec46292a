package solver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thunderfed/gateway/internal/operation"
	"github.com/thunderfed/gateway/internal/schema"
)

// buildTwoSubgraphSchema builds a tiny federated schema: Query.user is
// served by subgraph "accounts", and User.reviews is served by
// subgraph "reviews" via an entity lookup keyed on User.id — enough to
// exercise cross-subgraph partitioning without a real query parser.
func buildTwoSubgraphSchema(t *testing.T) (*schema.Schema, schema.FieldID, schema.FieldID, schema.FieldID, schema.FieldID) {
	t.Helper()
	b := schema.NewBuilder()

	accounts := b.AddSubgraph("accounts")
	reviews := b.AddSubgraph("reviews")

	stringType := b.DefineType(schema.TypeDefinition{Name: "String", Kind: schema.KindScalar})
	idType := b.DefineType(schema.TypeDefinition{Name: "ID", Kind: schema.KindScalar})

	reviewType := b.DefineType(schema.TypeDefinition{Name: "Review", Kind: schema.KindObject})
	reviewTextField := b.DefineField(schema.FieldDefinition{Name: "text", ParentEntity: reviewType, Type: stringType})
	b.SetFieldRange(reviewType, schema.IDRange[schema.FieldID]{Start: reviewTextField, End: reviewTextField + 1})

	userType := b.DefineType(schema.TypeDefinition{Name: "User", Kind: schema.KindObject})
	idField := b.DefineField(schema.FieldDefinition{Name: "id", ParentEntity: userType, Type: idType, Wrapping: schema.NewWrapping(true)})
	nameField := b.DefineField(schema.FieldDefinition{Name: "name", ParentEntity: userType, Type: stringType})
	reviewsField := b.DefineField(schema.FieldDefinition{Name: "reviews", ParentEntity: userType, Type: reviewType})
	b.SetFieldRange(userType, schema.IDRange[schema.FieldID]{Start: idField, End: reviewsField + 1})

	rootResolver := b.DefineResolver(schema.ResolverDefinition{Subgraph: accounts, Kind: schema.ResolverRootQuery})
	b.AttachResolver(idField, rootResolver)
	b.AttachResolver(nameField, rootResolver)

	lookupResolver := b.DefineResolver(schema.ResolverDefinition{
		Subgraph:   reviews,
		Kind:       schema.ResolverEntityLookup,
		EntityType: userType,
		RequiredFields: schema.FieldSet{Items: []schema.FieldSetItem{
			{Field: idField},
		}},
	})
	b.AttachResolver(reviewsField, lookupResolver)
	// Review.text comes back in the same reviews-subgraph round trip
	// that resolves User.reviews, so it shares the lookup resolver.
	b.AttachResolver(reviewTextField, lookupResolver)

	queryType := b.DefineType(schema.TypeDefinition{Name: "Query", Kind: schema.KindObject})
	userField := b.DefineField(schema.FieldDefinition{Name: "user", ParentEntity: queryType, Type: userType})
	b.SetFieldRange(queryType, schema.IDRange[schema.FieldID]{Start: userField, End: userField + 1})
	b.AttachResolver(userField, rootResolver)

	b.FinalizePossibleTypes(userType, []schema.TypeID{userType})
	b.FinalizePossibleTypes(reviewType, []schema.TypeID{reviewType})

	sch, err := b.Build()
	require.NoError(t, err)
	return sch, userField, nameField, reviewsField, reviewTextField
}

// buildOperation hand-assembles the bound operation a binder would
// produce for: { user { name reviews { text } } }
func buildOperation(sch *schema.Schema, userField, nameField, reviewsField, reviewTextField schema.FieldID) *operation.Operation {
	op := &operation.Operation{Kind: "query"}

	reviewsSS := operation.SelectionSetID(0)
	nameF := operation.Field{Kind: operation.KindDataField, ResponseKey: "name", DefinitionID: nameField, QueryPosition: 0}
	textF := operation.Field{Kind: operation.KindDataField, ResponseKey: "text", DefinitionID: reviewTextField, QueryPosition: 0}
	reviewsF := operation.Field{
		Kind: operation.KindDataField, ResponseKey: "reviews", DefinitionID: reviewsField,
		QueryPosition: 1, HasSelectionSet: true,
	}
	userF := operation.Field{
		Kind: operation.KindDataField, ResponseKey: "user", DefinitionID: userField,
		QueryPosition: 0, HasSelectionSet: true,
	}

	textFID := operation.FieldID(0)
	op.Fields = append(op.Fields, textF)
	reviewSS := operation.SelectionSet{FieldIDs: []operation.FieldID{textFID}}
	op.SelectionSets = append(op.SelectionSets, reviewSS) // index 0
	reviewsF.SelectionSetID = reviewsSS

	nameFID := operation.FieldID(len(op.Fields))
	op.Fields = append(op.Fields, nameF)
	reviewsFID := operation.FieldID(len(op.Fields))
	op.Fields = append(op.Fields, reviewsF)

	userSS := operation.SelectionSet{FieldIDs: []operation.FieldID{nameFID, reviewsFID}}
	op.SelectionSets = append(op.SelectionSets, userSS) // index 1
	userF.SelectionSetID = operation.SelectionSetID(1)

	userFID := operation.FieldID(len(op.Fields))
	op.Fields = append(op.Fields, userF)

	rootSS := operation.SelectionSet{FieldIDs: []operation.FieldID{userFID}}
	op.SelectionSets = append(op.SelectionSets, rootSS) // index 2
	op.RootSelectionSet = operation.SelectionSetID(2)

	return op
}

func TestPartitionSplitsAcrossSubgraphs(t *testing.T) {
	sch, userField, nameField, reviewsField, reviewTextField := buildTwoSubgraphSchema(t)
	op := buildOperation(sch, userField, nameField, reviewsField, reviewTextField)

	space, errs := Build(op, sch)
	require.Empty(t, errs)

	part, errs := Partition(space)
	require.Empty(t, errs)

	// user+name land in one plan rooted at the accounts resolver;
	// reviews.text lands in a second plan rooted at the reviews lookup
	// resolver, depended on by the first.
	require.Len(t, part.Plans, 2)

	root := part.Plans[0]
	require.False(t, root.HasParent)
	require.ElementsMatch(t, []string{"user", "name"}, fieldKeys(op, root.FieldIDs))

	child := part.Plans[1]
	require.True(t, child.HasParent)
	require.Equal(t, root.ID, child.ParentPlanID)
	require.ElementsMatch(t, []string{"reviews", "text"}, fieldKeys(op, child.FieldIDs))
	require.True(t, root.NeedsOutputObject)
}

func fieldKeys(op *operation.Operation, ids []operation.FieldID) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = op.FieldByID(id).ResponseKey
	}
	return keys
}
