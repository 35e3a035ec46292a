package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrappingIter(t *testing.T) {
	// [[T!]!]!  -> outer list non-null, inner list non-null, inner type non-null
	w := NewWrapping(true, true, true)
	it := w.Iter()

	isList, nonNull, ok := it.Next()
	require.True(t, ok)
	assert.True(t, isList)
	assert.True(t, nonNull)

	isList, nonNull, ok = it.Next()
	require.True(t, ok)
	assert.True(t, isList)
	assert.True(t, nonNull)

	isList, nonNull, ok = it.Next()
	require.True(t, ok)
	assert.False(t, isList)
	assert.True(t, nonNull)

	_, _, ok = it.Next()
	assert.False(t, ok)
}

func buildUserByIDSchema(t *testing.T) (*Schema, TypeID, IDRange[ArgumentID]) {
	t.Helper()
	b := NewBuilder()
	b.DefineType(TypeDefinition{Name: "ID", Kind: KindScalar})
	user := b.DefineType(TypeDefinition{Name: "User", Kind: KindObject})
	idField := b.DefineField(FieldDefinition{Name: "id", ParentEntity: user, Wrapping: NewWrapping(true)})
	b.SetFieldRange(user, IDRange[FieldID]{Start: idField, End: idField + 1})

	query := b.DefineType(TypeDefinition{Name: "Query", Kind: KindObject})
	argStart := ArgumentID(len(b.s.Arguments))
	b.DefineArgument(Argument{Name: "id", Type: user, Wrapping: NewWrapping(true)})
	argEnd := ArgumentID(len(b.s.Arguments))
	lookupField := b.DefineField(FieldDefinition{Name: "userByID", ParentEntity: query})
	b.SetFieldRange(query, IDRange[FieldID]{Start: lookupField, End: lookupField + 1})

	s, err := b.Build()
	require.NoError(t, err)
	return s, user, IDRange[ArgumentID]{Start: argStart, End: argEnd}
}

func TestDetectLookupMappingDirect(t *testing.T) {
	s, user, args := buildUserByIDSchema(t)
	idFieldID, ok := s.FieldByName(user, "id")
	require.True(t, ok)

	key := FieldSet{Items: []FieldSetItem{{Field: idFieldID}}}
	mappings, err := s.DetectLookupMapping(key, args)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, args.Start, mappings[0].Argument)
	assert.False(t, mappings[0].Nested)
	assert.False(t, mappings[0].Batch)
}

func TestDetectLookupMappingNoArguments(t *testing.T) {
	s, user, _ := buildUserByIDSchema(t)
	idFieldID, _ := s.FieldByName(user, "id")
	key := FieldSet{Items: []FieldSetItem{{Field: idFieldID}}}

	_, err := s.DetectLookupMapping(key, IDRange[ArgumentID]{})
	assert.Error(t, err)
}
