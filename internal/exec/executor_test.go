package exec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thunderfed/gateway/internal/response"
	"github.com/thunderfed/gateway/internal/solver"
)

// fakeClient resolves a root plan to one object, then a child plan to
// one object per input ref — enough to exercise the dispatch/ingest
// cycle across a parent/child dependency without a real subgraph.
type fakeClient struct {
	tree *response.Tree
}

func (c *fakeClient) Execute(ctx context.Context, req Request, tree *response.Tree) (Result, error) {
	if !req.Plan.HasParent {
		obj := tree.NewObject()
		tree.SetField(obj, "id", tree.Scalar("1"), true)
		return Result{Objects: []response.ObjectID{obj}}, nil
	}
	var objs []response.ObjectID
	for range req.Input {
		obj := tree.NewObject()
		tree.SetField(obj, "reviews", tree.Scalar([]string{"great"}), false)
		objs = append(objs, obj)
	}
	return Result{Objects: objs}, nil
}

func TestExecutorRunsParentThenChild(t *testing.T) {
	part := &solver.Partition{Plans: []solver.Plan{
		{ID: 0, HasParent: false},
		{ID: 1, HasParent: true, ParentPlanID: 0},
	}}
	client := &fakeClient{}
	e := New(client, part)

	tree := e.Run(context.Background())

	require.Equal(t, StateDone, e.instances[0].State)
	require.Equal(t, StateDone, e.instances[1].State)
	require.Len(t, e.instances[0].Output, 1)
	require.Len(t, e.instances[1].Output, 1)
	require.Empty(t, tree.Errors)
}

func TestExecutorSkipsChildWithEmptyInput(t *testing.T) {
	part := &solver.Partition{Plans: []solver.Plan{
		{ID: 0, HasParent: false},
		{ID: 1, HasParent: true, ParentPlanID: 0},
	}}
	client := &emptyRootClient{}
	e := New(client, part)

	e.Run(context.Background())

	require.Equal(t, StateDone, e.instances[0].State)
	require.Equal(t, StateSkipped, e.instances[1].State)
}

type emptyRootClient struct{}

func (c *emptyRootClient) Execute(ctx context.Context, req Request, tree *response.Tree) (Result, error) {
	return Result{}, nil
}
