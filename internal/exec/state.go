// Package exec implements the request executor (spec.md §4.4): a
// single-threaded-per-request state machine that dispatches a plan's
// subgraph request once its parents are satisfied, ingests results as
// they arrive with back-pressure (ingest before dispatch), and runs
// response modifiers once their inputs are ready.
package exec

import (
	"github.com/thunderfed/gateway/internal/response"
	"github.com/thunderfed/gateway/internal/solver"
)

// PlanState is the state machine named in spec.md §4.4.
type PlanState uint8

const (
	StatePending PlanState = iota
	StateDispatchable
	StateInFlight
	StateIngesting
	StateDone
	StateSkipped
)

// PlanInstance is the executor's runtime bookkeeping for one Plan:
// the solver's static Plan plus request-scoped state (parent-counter,
// input object refs, completion state).
type PlanInstance struct {
	Plan *solver.Plan

	State PlanState

	// PendingParents counts parent plans not yet Done/Skipped; the
	// plan becomes Dispatchable when it reaches zero.
	PendingParents int

	// Children are the PlanInstances that depend on this plan's output
	// (solver.Plan.ParentPlanID points the other way; Children is
	// built once so ingestion can decrement without a scan).
	Children []*PlanInstance

	// Input is the set of object refs this plan's subgraph request is
	// parameterized over (empty for a root plan's first dispatch, or
	// when a parent's output set happened to be empty — in which case
	// this plan is Skipped instead of dispatched).
	Input []response.ObjectID

	// Output accumulates the object refs this plan has produced, for
	// children to read from at dispatch time.
	Output []response.ObjectID

	Err error
}

// NewInstances builds one PlanInstance per solver.Plan and wires the
// parent/child links and PendingParents counters.
func NewInstances(part *solver.Partition) []*PlanInstance {
	instances := make([]*PlanInstance, len(part.Plans))
	for i := range part.Plans {
		instances[i] = &PlanInstance{Plan: &part.Plans[i]}
	}
	for i, inst := range instances {
		if part.Plans[i].HasParent {
			parent := instances[part.Plans[i].ParentPlanID]
			parent.Children = append(parent.Children, inst)
			inst.PendingParents = 1
		}
	}
	return instances
}

// ParentsSatisfied reports whether every parent plan has reached a
// terminal state (Done or Skipped), i.e. inst is ready to either
// dispatch or be Skipped itself (spec.md §4.4: "parents completed &
// input non-empty ─► Dispatchable"). A root plan (no parent) is always
// satisfied immediately.
func (inst *PlanInstance) ParentsSatisfied() bool {
	return inst.State == StatePending && inst.PendingParents == 0
}

// Dispatchable reports whether inst should actually be sent to a
// subgraph: parents satisfied and, for a non-root plan, a non-empty
// input set. A plan with parents satisfied but an empty input set is
// Skipped instead (see Executor.skip).
func (inst *PlanInstance) Dispatchable() bool {
	if !inst.ParentsSatisfied() {
		return false
	}
	if inst.Plan.HasParent && len(inst.Input) == 0 {
		return false
	}
	return true
}
