package exec

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/thunderfed/gateway/concurrencylimiter"
	"github.com/thunderfed/gateway/internal/gqlerr"
	"github.com/thunderfed/gateway/internal/response"
	"github.com/thunderfed/gateway/internal/solver"
	"github.com/thunderfed/gateway/internal/telemetry"
)

// Request is what a plan needs dispatched to its subgraph: the static
// plan plus the parent-provided object refs it re-hydrates (empty for
// a root plan).
type Request struct {
	Plan  *solver.Plan
	Input []response.ObjectID
}

// Result is a subgraph round trip's decoded output: one object per
// requested input ref (or a single root object for a root plan),
// already shape-decoded into the response tree's object space by the
// caller's Client implementation.
type Result struct {
	Objects []response.ObjectID
	Errors  []*gqlerr.Error

	// ParentEdges collects every @authorized parent-edge element
	// decoded while hydrating this plan's objects (spec.md §4.4). The
	// executor accumulates these across every plan's ingestion so the
	// coordinator can run them through a single exec.Apply pass once
	// the whole tree is assembled.
	ParentEdges []Element
}

// SubgraphClient dispatches one plan's request and returns its
// decoded result. internal/transport provides the HTTP/JSON
// implementation used in production; tests supply a fake.
type SubgraphClient interface {
	Execute(ctx context.Context, req Request, tree *response.Tree) (Result, error)
}

// Executor runs the plan state machine of spec.md §4.4 for one
// request.
type Executor struct {
	Client SubgraphClient
	// MaxConcurrency bounds how many plans may be in flight to
	// subgraphs at once; 0 means unbounded (every dispatchable plan
	// fires immediately).
	MaxConcurrency int
	instances      []*PlanInstance
	parentEdges    []Element
}

// New builds an Executor over a solved partition.
func New(client SubgraphClient, part *solver.Partition) *Executor {
	return &Executor{Client: client, instances: NewInstances(part)}
}

type planResult struct {
	inst   *PlanInstance
	result Result
	err    error
}

// Run drives the main loop named in spec.md §4.4: dispatch every
// currently-dispatchable plan, then loop biased toward ingesting a
// ready result before spawning more work (back-pressure), until no
// plan is in flight and nothing is queued.
func (e *Executor) Run(ctx context.Context) *response.Tree {
	if e.MaxConcurrency > 0 {
		ctx = concurrencylimiter.With(ctx, e.MaxConcurrency)
	}
	tree := response.NewTree()
	resultCh := make(chan planResult, len(e.instances))
	inFlight := 0
	var queue []planResult

	dispatchReady := func() {
		for _, inst := range e.instances {
			if !inst.ParentsSatisfied() {
				continue
			}
			if !inst.Dispatchable() {
				e.skip(inst)
				continue
			}
			inst.State = StateInFlight
			inFlight++
			go e.dispatch(ctx, inst, resultCh, tree)
		}
	}
	dispatchReady()

	for inFlight > 0 || len(queue) > 0 {
		if len(queue) > 0 {
			r := queue[0]
			queue = queue[1:]
			e.ingest(tree, r)
			dispatchReady()
			continue
		}
		select {
		case r := <-resultCh:
			inFlight--
			queue = append(queue, r)
		case <-ctx.Done():
			tree.AddError(gqlerr.Wrap(gqlerr.CodeGatewayTimeout, ctx.Err(), "request cancelled"), nil)
			return tree
		}
	}
	return tree
}

// RootObjects returns the output objects of every plan with no
// parent — one per subgraph that serves a top-level Query/Mutation
// field. A single-subgraph operation has exactly one; a federated one
// that fans the root selection set across subgraphs has one per
// contributing subgraph, and the caller is responsible for merging
// them into the response's single root object (internal/coordinator
// does this after Run returns).
func (e *Executor) RootObjects() []response.ObjectID {
	var out []response.ObjectID
	for _, inst := range e.instances {
		if !inst.Plan.HasParent {
			out = append(out, inst.Output...)
		}
	}
	return out
}

// ParentEdges returns every @authorized parent-edge element collected
// across every plan's ingestion, for the coordinator to run through
// exec.Apply once Run has returned.
func (e *Executor) ParentEdges() []Element {
	return e.parentEdges
}

func (e *Executor) dispatch(ctx context.Context, inst *PlanInstance, resultCh chan<- planResult, tree *response.Tree) {
	ctx, span := telemetry.StartSpan(ctx, "gateway.plan.dispatch",
		attribute.Int("plan.id", int(inst.Plan.ID)),
		attribute.Int("plan.resolver_id", int(inst.Plan.ResolverID)),
		attribute.Int("input.count", len(inst.Input)),
	)
	defer span.End()

	limited, release := concurrencylimiter.Acquire(ctx)
	defer release()
	res, err := e.Client.Execute(limited, Request{Plan: inst.Plan, Input: inst.Input}, tree)
	if err != nil {
		telemetry.RecordError(span, err)
	}
	resultCh <- planResult{inst: inst, result: res, err: err}
}

// skip implements spec.md §4.4's Skipped transition: a plan whose
// input object set is empty at dispatch time never runs, but its
// children's parent counter is still decremented to unblock them.
func (e *Executor) skip(inst *PlanInstance) {
	inst.State = StateSkipped
	for _, child := range inst.Children {
		child.PendingParents--
	}
}

// ingest implements spec.md §4.4's "Ingestion" step: merge, publish
// object sets, decrement child parent-counters.
func (e *Executor) ingest(tree *response.Tree, r planResult) {
	r.inst.State = StateIngesting
	if r.err != nil {
		tree.AddError(gqlerr.Wrap(gqlerr.CodeSubgraphRequest, r.err, "subgraph request failed"), nil)
		r.inst.State = StateDone
		for _, child := range r.inst.Children {
			child.PendingParents--
		}
		return
	}
	for _, gqlErr := range r.result.Errors {
		tree.AddError(gqlErr, nil)
	}
	r.inst.Output = r.result.Objects
	r.inst.State = StateDone
	e.parentEdges = append(e.parentEdges, r.result.ParentEdges...)

	for _, child := range r.inst.Children {
		child.Input = append(child.Input, r.inst.Output...)
		child.PendingParents--
	}
}
