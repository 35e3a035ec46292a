package gatewayhttp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/thunderfed/gateway/internal/config"
	"github.com/thunderfed/gateway/internal/coordinator"
	"github.com/thunderfed/gateway/internal/schema"
	"github.com/thunderfed/gateway/internal/transport"
)

// buildUserSchema wires a Query.user -> User.name schema served by one
// subgraph, the same shape internal/coordinator's tests use.
func buildUserSchema(t *testing.T) *schema.Schema {
	t.Helper()
	b := schema.NewBuilder()
	sub := b.AddSubgraph("accounts")

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

func newTestHandler(t *testing.T) (*Handler, func()) {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"user":{"name":"ada"}}}`))
	}))

	sch := buildUserSchema(t)
	c := &coordinator.Coordinator{
		Schema:    sch,
		Endpoints: transport.Endpoints{"accounts": upstream.URL},
		HTTP:      upstream.Client(),
	}
	h := &Handler{
		Coordinator: c,
		Graph:       config.GraphConfig{Introspection: true},
	}
	return h, upstream.Close
}

func TestServePostSingleOperation(t *testing.T) {
	h, cleanup := newTestHandler(t)
	defer cleanup()

	body := `{"query":"{ user { name } }"}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	data := out["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	require.Equal(t, "ada", user["name"])
	require.NotContains(t, out, "errors")
}

func TestServePostBatch(t *testing.T) {
	h, cleanup := newTestHandler(t)
	defer cleanup()

	body := `[{"query":"{ user { name } }"},{"query":"{ user { name } }"}]`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	for _, env := range out {
		data := env["data"].(map[string]interface{})
		user := data["user"].(map[string]interface{})
		require.Equal(t, "ada", user["name"])
	}
}

func TestServeGetSingleOperation(t *testing.T) {
	h, cleanup := newTestHandler(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/graphql?"+url.Values{"query": {`{ user { name } }`}}.Encode(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Contains(t, out, "data")
}

func TestServeHTTPRejectsMissingCSRFHeader(t *testing.T) {
	h, cleanup := newTestHandler(t)
	defer cleanup()
	h.CSRF = config.CSRFConfig{Enabled: true}

	body := `{"query":"{ user { name } }"}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServeHTTPAllowsCSRFHeaderPresent(t *testing.T) {
	h, cleanup := newTestHandler(t)
	defer cleanup()
	h.CSRF = config.CSRFConfig{Enabled: true}

	body := `{"query":"{ user { name } }"}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set(csrfHeaderName, "1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServeHTTPRejectsIntrospectionWhenDisabled(t *testing.T) {
	h, cleanup := newTestHandler(t)
	defer cleanup()
	h.Graph.Introspection = false

	body := `{"query":"{ __schema { types { name } } }"}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotContains(t, out, "data")
	require.Contains(t, out, "errors")
}

func TestNegotiateContentTypeHonorsAcceptHeader(t *testing.T) {
	h, cleanup := newTestHandler(t)
	defer cleanup()

	body := `{"query":"{ user { name } }"}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Accept", "application/graphql-response+json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "application/graphql-response+json", rec.Header().Get("Content-Type"))
}

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	HealthHandler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "healthy", out["status"])
}

func TestWebSocketHandlerRunsSubscriptionOnceAndCompletes(t *testing.T) {
	sch := buildUserSchema(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"user":{"name":"ada"}}}`))
	}))
	defer upstream.Close()

	c := &coordinator.Coordinator{
		Schema:    sch,
		Endpoints: transport.Endpoints{"accounts": upstream.URL},
		HTTP:      upstream.Client(),
	}

	srv := httptest.NewServer(WebSocketHandler(c, nil))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/graphql"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(wsMessage{Type: wsConnectionInit}))
	var ack wsMessage
	require.NoError(t, conn.ReadJSON(&ack))
	require.Equal(t, wsConnectionAck, ack.Type)

	sub := wsMessage{ID: "1", Type: wsSubscribe, Payload: mustMarshal(requestBody{Query: `{ user { name } }`})}
	require.NoError(t, conn.WriteJSON(sub))

	var next wsMessage
	require.NoError(t, conn.ReadJSON(&next))
	require.Equal(t, wsNext, next.Type)
	require.Equal(t, "1", next.ID)

	var complete wsMessage
	require.NoError(t, conn.ReadJSON(&complete))
	require.Equal(t, wsComplete, complete.Type)
	require.Equal(t, "1", complete.ID)
}

func TestSSEHandlerStreamsNextAndComplete(t *testing.T) {
	sch := buildUserSchema(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"user":{"name":"ada"}}}`))
	}))
	defer upstream.Close()

	c := &coordinator.Coordinator{
		Schema:    sch,
		Endpoints: transport.Endpoints{"accounts": upstream.URL},
		HTTP:      upstream.Client(),
	}

	srv := httptest.NewServer(SSEHandler(c))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/graphql?" + url.Values{"query": {`{ user { name } }`}}.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		buf.WriteString(scanner.Text())
		buf.WriteString("\n")
	}
	out := buf.String()
	require.Contains(t, out, "event: next")
	require.Contains(t, out, `"ada"`)
	require.Contains(t, out, "event: complete")
}
