// Package coordinator wires the per-request pipeline named across
// spec.md §4 — parse, bind, score complexity, solve, partition,
// execute, assemble — into the single call internal/gatewayhttp's
// transports (POST, GET, batch, subscriptions) and cmd/gateway all
// share. The teacher keeps this glue inline in its httpHandler
// (federation/http.go, graphql/http.go); this gateway pulls it out
// into its own package because every GraphQL-over-HTTP transport needs
// the identical sequence and none of them should duplicate it.
package coordinator

import (
	"context"
	"net/http"

	"github.com/thunderfed/gateway/batch"
	"github.com/thunderfed/gateway/internal/exec"
	"github.com/thunderfed/gateway/internal/extension"
	"github.com/thunderfed/gateway/internal/gqlerr"
	"github.com/thunderfed/gateway/internal/operation"
	"github.com/thunderfed/gateway/internal/queryparse"
	"github.com/thunderfed/gateway/internal/response"
	"github.com/thunderfed/gateway/internal/schema"
	"github.com/thunderfed/gateway/internal/solver"
	"github.com/thunderfed/gateway/internal/transport"
)

// Request is one GraphQL-over-HTTP operation, already decoded from
// whatever wire shape the transport accepted (JSON POST body,
// url-encoded GET params, one element of a batch).
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]interface{}
}

// Coordinator holds everything the pipeline needs that outlives a
// single request: the composed schema, subgraph endpoints, the cost
// budget, and the extensions a request's authorize_query hook runs
// against.
type Coordinator struct {
	Schema    *schema.Schema
	Endpoints transport.Endpoints
	HTTP      *http.Client

	// MaxConcurrency bounds in-flight subgraph requests per operation
	// (0 means unbounded); see exec.Executor.MaxConcurrency.
	MaxConcurrency int

	Cost solver.CostBudget

	// Extensions authorize_query-gates every bound operation before it
	// reaches the solver, in name order (Registry.All); the first
	// denial wins. Nil runs no query-level authorization.
	Extensions *extension.Registry
}

// Result is the pipeline's outcome: either a successful (possibly
// partial, per spec.md §7) execution with Data set and HasData true,
// or a request that never reached execution (parse/bind/plan failure,
// or an authorize_query denial), in which case Data is omitted from
// the rendered envelope entirely rather than serialized as null.
type Result struct {
	Data    interface{}
	Errors  []*gqlerr.Error
	HasData bool
}

// Execute runs the full pipeline for one operation and returns its
// {data, errors} result. It never panics on malformed input: every
// failure mode surfaces as a gqlerr.Error in Result.Errors instead.
func (c *Coordinator) Execute(ctx context.Context, req Request) Result {
	raw, err := queryparse.Parse(req.Query, req.OperationName)
	if err != nil {
		return errorResult(gqlerr.Wrap(gqlerr.CodeOperationValidation, err, "parsing operation"))
	}

	binder := operation.NewBinder(c.Schema, req.Variables)
	op, errs := binder.Bind(raw)
	if len(errs) > 0 {
		return errorResult(errs...)
	}

	if c.Extensions != nil {
		for _, ext := range c.Extensions.All() {
			if gerr := ext.AuthorizeQueryCall(ctx, op); gerr != nil {
				return errorResult(gerr)
			}
		}
	}

	// §4.2's complexity control runs before partitioning so a
	// rejected query never reaches a subgraph.
	if _, errs := solver.Complexity(op, c.Schema, c.Cost); len(errs) > 0 {
		return errorResult(errs...)
	}

	space, errs := solver.Build(op, c.Schema)
	if len(errs) > 0 {
		return errorResult(errs...)
	}

	partition, errs := solver.Partition(space)
	if len(errs) > 0 {
		return errorResult(errs...)
	}

	client := &transport.HTTPClient{
		HTTP:      c.HTTP,
		Endpoints: c.Endpoints,
		Schema:    c.Schema,
		Operation: op,
		Variables: req.Variables,
	}
	client.EntityBatch = transport.NewEntityBatch(client)

	ex := exec.New(client, partition)
	ex.MaxConcurrency = c.MaxConcurrency

	tree := ex.Run(batch.WithBatching(ctx))
	mergeRoots(tree, ex.RootObjects())

	if c.Extensions != nil {
		if edges := ex.ParentEdges(); len(edges) > 0 {
			for _, ext := range c.Extensions.All() {
				if ext.AuthorizeResponse == nil {
					continue
				}
				if err := exec.Apply(ctx, tree, exec.Modifier{
					Kind:     exec.ModifierAuthorizedParentEdge,
					Hook:     ext,
					Elements: edges,
				}); err != nil {
					tree.AddError(gqlerr.Wrap(gqlerr.CodeHook, err, "applying @authorized response modifier"), nil)
				}
			}
		}
	}

	return Result{
		Data:    tree.Data(),
		Errors:  treeErrors(tree),
		HasData: true,
	}
}

func errorResult(errs ...*gqlerr.Error) Result {
	return Result{Errors: errs}
}

func treeErrors(tree *response.Tree) []*gqlerr.Error {
	if len(tree.Errors) == 0 {
		return nil
	}
	out := make([]*gqlerr.Error, len(tree.Errors))
	for i, e := range tree.Errors {
		out[i] = e.GraphQL
	}
	return out
}

// mergeRoots assembles the response's single root object out of every
// plan with no parent. A non-federated or single-subgraph-rooted
// operation has exactly one; a root selection set fanned out across
// several subgraphs (Query.a served by one subgraph, Query.b by
// another) produces one root object per contributing subgraph, and
// their fields are merged here since HTTPClient.executeRoot has no way
// to know about sibling root plans when it allocates its own object.
func mergeRoots(tree *response.Tree, roots []response.ObjectID) {
	if len(roots) == 0 {
		return
	}
	if len(roots) == 1 {
		tree.Root = response.ValueID{Kind: response.ValueObjectRef, Object: roots[0]}
		return
	}

	merged := tree.NewObject()
	for _, r := range roots {
		obj := tree.Object(r)
		for _, f := range obj.Fields {
			tree.SetField(merged, f.Key, f.Value, f.NonNullChain)
			if f.Inaccessible {
				tree.MarkField(merged, f.Key)
			}
		}
	}
	tree.Root = response.ValueID{Kind: response.ValueObjectRef, Object: merged}
}
