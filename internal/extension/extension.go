// Package extension is the gateway's extension ABI: the Go-side
// capability interfaces a registered extension implements
// (authorize_query, authorize_response, resolve_field,
// resolve_subscription), with no WASM runtime behind them — per
// spec.md §1's Non-goals, only the Go capability surface is in scope.
// AuthorizeResponse is literally an exec.Hook (the response-modifier
// seam internal/exec already defines); the others are new capability
// points an extension's resolver definitions bind against.
package extension

import (
	"context"
	"sort"
	"time"

	"github.com/thunderfed/gateway/internal/exec"
	"github.com/thunderfed/gateway/internal/gqlerr"
	"github.com/thunderfed/gateway/internal/operation"
)

// QueryAuthorizer gates a whole bound operation before it reaches the
// solver (authorize_query). Returning a non-nil error rejects the
// request outright.
type QueryAuthorizer interface {
	AuthorizeQuery(ctx context.Context, op *operation.Operation) *gqlerr.Error
}

// FieldResolver backs a schema.ResolverExtension field: given the
// field's coerced argument values, it returns the field's value.
// Registered the same way a subgraph resolver would be, but dispatched
// in-process instead of over the wire.
type FieldResolver interface {
	ResolveField(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// SubscriptionResolver backs a subscription root field: it returns a
// channel of successive field values, closed when the subscription
// ends. The gatewayhttp subscription transport (graphql-transport-ws)
// forwards each value as a `next` message.
type SubscriptionResolver interface {
	ResolveSubscription(ctx context.Context, args map[string]interface{}) (<-chan interface{}, error)
}

// Extension is one extensions.<name> config entry's registered
// capabilities; any of them may be nil if that extension doesn't
// implement the corresponding hook.
type Extension struct {
	Name string

	AuthorizeQuery      QueryAuthorizer
	AuthorizeResponse   exec.Hook
	ResolveField        FieldResolver
	ResolveSubscription SubscriptionResolver

	// Timeout bounds every capability call; zero means no timeout is
	// enforced (the extension is trusted to return promptly).
	Timeout time.Duration
}

// Registry looks extensions up by the name they're registered under
// in config (extensions.<name>).
type Registry struct {
	byName map[string]*Extension
}

// NewRegistry builds a Registry from a set of configured extensions.
func NewRegistry(extensions ...*Extension) *Registry {
	r := &Registry{byName: make(map[string]*Extension, len(extensions))}
	for _, e := range extensions {
		r.byName[e.Name] = e
	}
	return r
}

// Lookup finds an extension by name.
func (r *Registry) Lookup(name string) (*Extension, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// All returns every registered extension, sorted by name for
// deterministic authorize_query iteration order.
func (r *Registry) All() []*Extension {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Extension, len(names))
	for i, name := range names {
		out[i] = r.byName[name]
	}
	return out
}

// withTimeout runs f under name's configured timeout (if any), turning
// a deadline exceeded into the gateway's HOOK_ERROR code (spec.md §7).
func withTimeout(ctx context.Context, name string, timeout time.Duration, f func(context.Context) error) error {
	if timeout <= 0 {
		return f(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return gqlerr.Wrap(gqlerr.CodeHook, ctx.Err(), "extension %q timed out", name)
	}
}

// AuthorizeQueryCall runs e's QueryAuthorizer (if registered) under e's
// timeout. An extension with no AuthorizeQuery capability always
// allows.
func (e *Extension) AuthorizeQueryCall(ctx context.Context, op *operation.Operation) *gqlerr.Error {
	if e.AuthorizeQuery == nil {
		return nil
	}
	var gerr *gqlerr.Error
	err := withTimeout(ctx, e.Name, e.Timeout, func(ctx context.Context) error {
		gerr = e.AuthorizeQuery.AuthorizeQuery(ctx, op)
		return nil
	})
	if err != nil {
		return gqlerr.Wrap(gqlerr.CodeHook, err, "extension %q authorize_query failed", e.Name)
	}
	return gerr
}

// Evaluate implements exec.Hook by delegating to e.AuthorizeResponse
// under e's timeout, so a Registry entry can be passed directly as a
// response modifier's Hook.
func (e *Extension) Evaluate(ctx context.Context, elements []exec.Element) (exec.Decision, error) {
	if e.AuthorizeResponse == nil {
		return exec.Decision{GrantAll: true}, nil
	}
	var decision exec.Decision
	err := withTimeout(ctx, e.Name, e.Timeout, func(ctx context.Context) error {
		var err error
		decision, err = e.AuthorizeResponse.Evaluate(ctx, elements)
		return err
	})
	if err != nil {
		return exec.Decision{}, gqlerr.Wrap(gqlerr.CodeHook, err, "extension %q authorize_response failed", e.Name)
	}
	return decision, nil
}

var _ exec.Hook = (*Extension)(nil)
