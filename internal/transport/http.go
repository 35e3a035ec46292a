package transport

import (
	"bytes"
	"context"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/samsarahq/go/oops"

	"github.com/thunderfed/gateway/batch"
	"github.com/thunderfed/gateway/internal/exec"
	"github.com/thunderfed/gateway/internal/gqlerr"
	"github.com/thunderfed/gateway/internal/operation"
	"github.com/thunderfed/gateway/internal/response"
	"github.com/thunderfed/gateway/internal/schema"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Endpoints maps a subgraph name to the URL its GraphQL-over-HTTP POST
// endpoint listens on.
type Endpoints map[string]string

// HTTPClient is the primary exec.SubgraphClient implementation: it
// renders a plan into a GraphQL query document, POSTs it to the
// owning subgraph's endpoint the way the teacher's gateway main.go
// round-trips through its own HTTP handler, and decodes the JSON
// result into the shared response.Tree.
type HTTPClient struct {
	HTTP      *http.Client
	Endpoints Endpoints
	Schema    *schema.Schema
	Operation *operation.Operation
	// Variables holds the incoming request's already-decoded variable
	// values, keyed by name, for literal substitution into subgraph
	// queries (see query.go's writeLiteral).
	Variables map[string]interface{}

	// EntityBatch, when set, coalesces concurrent executeEntityLookup
	// calls that land on the same endpoint with the identical rendered
	// query into a single _entities round trip (spec.md §4.2's
	// auto-detected batch mode), the way the teacher's batch package
	// batches otherwise-independent resolver invocations
	// (batch/batch.go) — here applied across sibling solver.Plans that
	// happen to request the same entity shape from the same subgraph
	// rather than across per-item resolver calls, since this
	// executor's plans already batch their own inputs. Nil disables
	// coalescing; NewEntityBatch builds one bound to this client.
	EntityBatch *batch.Func
}

// NewEntityBatch builds the batch.Func that coalesces c's concurrent
// entity-lookup dispatches (see HTTPClient.EntityBatch). The caller
// must also call batch.WithBatching on the request's context for
// coalescing to take effect; without it, Func.Invoke panics, so
// executeEntityLookup checks batch.HasBatching first and falls back to
// dispatching alone.
func NewEntityBatch(c *HTTPClient) *batch.Func {
	return &batch.Func{
		Shard: func(arg interface{}) interface{} {
			a := arg.(*entityBatchArg)
			return a.endpoint + "\x00" + buildEntityQuery(c.Operation, c.Schema, a.resolver, a.req.Plan.FieldIDs)
		},
		Many: func(ctx context.Context, args []interface{}) ([]interface{}, error) {
			reqs := make([]exec.Request, len(args))
			var endpoint string
			var resolver *schema.ResolverDefinition
			var tree *response.Tree
			for i, raw := range args {
				a := raw.(*entityBatchArg)
				reqs[i] = a.req
				endpoint, resolver, tree = a.endpoint, a.resolver, a.tree
			}
			results, err := c.doEntityLookup(ctx, endpoint, resolver, reqs, tree)
			if err != nil {
				return nil, err
			}
			out := make([]interface{}, len(results))
			for i, r := range results {
				out[i] = r
			}
			return out, nil
		},
	}
}

// entityBatchArg is one executeEntityLookup call's input, coalesced by
// EntityBatch with any other concurrent call sharing the same Shard
// key.
type entityBatchArg struct {
	endpoint string
	resolver *schema.ResolverDefinition
	req      exec.Request
	tree     *response.Tree
}

var _ exec.SubgraphClient = (*HTTPClient)(nil)

type graphQLRequestBody struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponseBody struct {
	Data   jsoniter.RawMessage `json:"data"`
	Errors []subgraphError     `json:"errors"`
}

type subgraphError struct {
	Message string `json:"message"`
}

// Execute implements exec.SubgraphClient.
func (c *HTTPClient) Execute(ctx context.Context, req exec.Request, tree *response.Tree) (exec.Result, error) {
	resolver := c.Schema.Resolver(req.Plan.ResolverID)
	subgraph := c.Schema.SubgraphByID(resolver.Subgraph)
	endpoint, ok := c.Endpoints[subgraph.Name]
	if !ok {
		return exec.Result{}, oops.Errorf("no endpoint configured for subgraph %q", subgraph.Name)
	}

	switch resolver.Kind {
	case schema.ResolverEntityLookup:
		return c.executeEntityLookup(ctx, endpoint, resolver, req, tree)
	default:
		return c.executeRoot(ctx, endpoint, req, tree)
	}
}

func (c *HTTPClient) executeRoot(ctx context.Context, endpoint string, req exec.Request, tree *response.Tree) (exec.Result, error) {
	query := buildRootQuery(c.Operation, c.Schema, req.Plan.FieldIDs, c.Variables)
	body, err := c.post(ctx, endpoint, graphQLRequestBody{Query: query})
	if err != nil {
		return exec.Result{}, err
	}

	var decoded map[string]jsoniter.RawMessage
	if err := json.Unmarshal(body.Data, &decoded); err != nil {
		return exec.Result{}, gqlerr.Wrap(gqlerr.CodeSubgraphInvalidResponse, err, "decoding subgraph response")
	}

	obj := tree.NewObject()
	var parentEdges []exec.Element
	if err := hydrateFields(tree, c.Operation, c.Schema, req.Plan.FieldIDs, decoded, obj, nil, &parentEdges); err != nil {
		return exec.Result{}, err
	}

	return exec.Result{Objects: []response.ObjectID{obj}, Errors: subgraphErrors(body.Errors), ParentEdges: parentEdges}, nil
}

// executeEntityLookup dispatches one plan's entity lookup, coalescing
// it with any other plan's concurrent lookup of the same shape via
// EntityBatch when the request's context has batching enabled
// (internal/coordinator arranges this per request).
func (c *HTTPClient) executeEntityLookup(ctx context.Context, endpoint string, resolver *schema.ResolverDefinition, req exec.Request, tree *response.Tree) (exec.Result, error) {
	if c.EntityBatch != nil && batch.HasBatching(ctx) {
		out, err := c.EntityBatch.Invoke(ctx, &entityBatchArg{endpoint: endpoint, resolver: resolver, req: req, tree: tree})
		if err != nil {
			return exec.Result{}, err
		}
		return out.(exec.Result), nil
	}
	results, err := c.doEntityLookup(ctx, endpoint, resolver, []exec.Request{req}, tree)
	if err != nil {
		return exec.Result{}, err
	}
	return results[0], nil
}

// doEntityLookup batches every req in reqs (ordinarily one, or several
// coalesced by EntityBatch) into a single _entities(representations:)
// round trip and matches results back up by position: the i-th
// _entities result is taken to answer the i-th representation sent, so
// the subgraph must preserve input order. Every req must share the same
// resolver and rendered query (EntityBatch's Shard key guarantees
// this for coalesced calls).
func (c *HTTPClient) doEntityLookup(ctx context.Context, endpoint string, resolver *schema.ResolverDefinition, reqs []exec.Request, tree *response.Tree) ([]exec.Result, error) {
	offsets := make([]int, len(reqs)+1)
	var reps []map[string]interface{}
	for i, req := range reqs {
		offsets[i] = len(reps)
		for _, objID := range req.Input {
			rep := map[string]interface{}{"__typename": c.Schema.Type(resolver.EntityType).Name}
			for _, item := range resolver.RequiredFields.Items {
				keyDef := c.Schema.Field(item.Field)
				if val, ok := tree.Field(objID, keyDef.Name); ok {
					rep[keyDef.Name] = treeValueToGo(tree, val)
				}
			}
			reps = append(reps, rep)
		}
	}
	offsets[len(reqs)] = len(reps)

	query := buildEntityQuery(c.Operation, c.Schema, resolver, reqs[0].Plan.FieldIDs)
	body, err := c.post(ctx, endpoint, graphQLRequestBody{
		Query:     query,
		Variables: map[string]interface{}{"representations": reps},
	})
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Entities []map[string]jsoniter.RawMessage `json:"_entities"`
	}
	if err := json.Unmarshal(body.Data, &decoded); err != nil {
		return nil, gqlerr.Wrap(gqlerr.CodeSubgraphInvalidResponse, err, "decoding _entities response")
	}
	if len(decoded.Entities) != len(reps) {
		return nil, gqlerr.New(gqlerr.CodeSubgraphInvalidResponse,
			"_entities returned %d results for %d representations", len(decoded.Entities), len(reps))
	}

	// Subgraph-level errors aren't indexed per representation; attach
	// them to the first coalesced request's result only so a batched
	// dispatch doesn't report the same subgraph error once per
	// coalesced plan.
	subgraphErrs := subgraphErrors(body.Errors)

	results := make([]exec.Result, len(reqs))
	for i, req := range reqs {
		start, end := offsets[i], offsets[i+1]
		objects := make([]response.ObjectID, end-start)
		var parentEdges []exec.Element
		for j := start; j < end; j++ {
			obj := tree.NewObject()
			if err := hydrateFields(tree, c.Operation, c.Schema, req.Plan.FieldIDs, decoded.Entities[j], obj, nil, &parentEdges); err != nil {
				return nil, err
			}
			objects[j-start] = obj
		}
		results[i] = exec.Result{Objects: objects, ParentEdges: parentEdges}
		if i == 0 {
			results[i].Errors = subgraphErrs
		}
	}
	return results, nil
}

func (c *HTTPClient) post(ctx context.Context, endpoint string, reqBody graphQLRequestBody) (*graphQLResponseBody, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, gqlerr.Wrap(gqlerr.CodeInternal, err, "marshaling subgraph request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, gqlerr.Wrap(gqlerr.CodeSubgraphRequest, err, "building subgraph request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, gqlerr.Wrap(gqlerr.CodeSubgraphRequest, err, "subgraph request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, gqlerr.New(gqlerr.CodeSubgraphRequest, "subgraph returned status %d", resp.StatusCode)
	}

	var body graphQLResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, gqlerr.Wrap(gqlerr.CodeSubgraphInvalidResponse, err, "decoding subgraph envelope")
	}
	return &body, nil
}

func subgraphErrors(errs []subgraphError) []*gqlerr.Error {
	if len(errs) == 0 {
		return nil
	}
	out := make([]*gqlerr.Error, len(errs))
	for i, e := range errs {
		out[i] = gqlerr.New(gqlerr.CodeSubgraphRequest, "%s", e.Message)
	}
	return out
}
