// Package gatewayhttp is the client-facing GraphQL-over-HTTP surface
// named in spec.md §6: POST/GET single and batch requests, content
// negotiation, CSRF protection, the introspection toggle, the health
// endpoint, and subscriptions over SSE and graphql-transport-ws. The
// core pipeline itself (internal/coordinator) is transport-agnostic;
// this package is the thinnest possible adapter onto net/http, the way
// the teacher's graphql/http.go and federation/http.go are thin
// adapters onto their own executors.
package gatewayhttp

import (
	"encoding/json"

	"github.com/thunderfed/gateway/internal/coordinator"
	"github.com/thunderfed/gateway/internal/gqlerr"
)

// requestBody is the decoded shape of one GraphQL-over-HTTP operation,
// whether it arrived as a POST JSON body or GET url-encoded params
// (spec.md §6: "{ query, operationName?, variables?, extensions? }").
// Extensions is accepted and decoded but never interpreted or passed
// on to the coordinator (a persisted-query cache is an explicit
// Non-goal, spec.md §1).
type requestBody struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	Extensions    map[string]interface{} `json:"extensions,omitempty"`
}

func (b requestBody) toCoordinatorRequest() coordinator.Request {
	return coordinator.Request{
		Query:         b.Query,
		OperationName: b.OperationName,
		Variables:     b.Variables,
	}
}

// envelope is the wire {data, errors} document. data is omitted
// entirely (not serialized as null) when the operation never reached
// execution, per spec.md §7: "errors during binding/planning
// short-circuit ... response is an errors-only document".
type envelope struct {
	result  coordinator.Result
	errOnly []*gqlerr.Error // set for transport-level failures that never reach the coordinator
}

func dataEnvelope(r coordinator.Result) envelope {
	return envelope{result: r}
}

func errorEnvelope(errs ...*gqlerr.Error) envelope {
	return envelope{errOnly: errs}
}

func (e envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 2)
	if e.errOnly != nil {
		out["errors"] = e.errOnly
		return json.Marshal(out)
	}
	if e.result.HasData {
		out["data"] = e.result.Data
	}
	if len(e.result.Errors) > 0 {
		out["errors"] = e.result.Errors
	}
	return json.Marshal(out)
}
