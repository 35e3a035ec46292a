package gqlerr

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalJSONNeverLeaksWrappedCause(t *testing.T) {
	err := Wrap(CodeSubgraphRequest, errors.New("dial tcp: connection refused on 10.0.0.5:9001"), "subgraph request failed")

	b, marshalErr := json.Marshal(err)
	require.NoError(t, marshalErr)
	require.NotContains(t, string(b), "10.0.0.5")
	require.Contains(t, string(b), "subgraph request failed")
	require.Contains(t, string(b), `"code":"SUBGRAPH_REQUEST_ERROR"`)
}

func TestMarshalJSONIncludesPathAndLocation(t *testing.T) {
	err := New(CodeOperationValidation, "unknown field").
		WithPath([]PathSegment{{Key: "user"}, {Index: 2, IsIndex: true}}).
		WithLocation(Location{Line: 3, Column: 7})

	var decoded map[string]interface{}
	b, marshalErr := json.Marshal(err)
	require.NoError(t, marshalErr)
	require.NoError(t, json.Unmarshal(b, &decoded))

	path := decoded["path"].([]interface{})
	require.Equal(t, "user", path[0])
	require.InDelta(t, 2, path[1], 0)

	locations := decoded["locations"].([]interface{})
	loc := locations[0].(map[string]interface{})
	require.InDelta(t, 3, loc["line"], 0)
}
