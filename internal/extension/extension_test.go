package extension

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thunderfed/gateway/internal/exec"
)

type grantAllHook struct{}

func (grantAllHook) Evaluate(ctx context.Context, elements []exec.Element) (exec.Decision, error) {
	return exec.Decision{GrantAll: true}, nil
}

func TestExtensionEvaluateDelegatesToAuthorizeResponse(t *testing.T) {
	ext := &Extension{Name: "acme", AuthorizeResponse: grantAllHook{}}
	decision, err := ext.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, decision.GrantAll)
}

func TestExtensionEvaluateGrantsAllWithNoCapability(t *testing.T) {
	ext := &Extension{Name: "noop"}
	decision, err := ext.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, decision.GrantAll)
}

type slowHook struct{}

func (slowHook) Evaluate(ctx context.Context, elements []exec.Element) (exec.Decision, error) {
	select {
	case <-time.After(50 * time.Millisecond):
		return exec.Decision{GrantAll: true}, nil
	case <-ctx.Done():
		return exec.Decision{}, ctx.Err()
	}
}

func TestExtensionEvaluateTimesOut(t *testing.T) {
	ext := &Extension{Name: "slow", AuthorizeResponse: slowHook{}, Timeout: 5 * time.Millisecond}
	_, err := ext.Evaluate(context.Background(), nil)
	require.Error(t, err)
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry(&Extension{Name: "acme"})
	_, ok := r.Lookup("acme")
	require.True(t, ok)
	_, ok = r.Lookup("missing")
	require.False(t, ok)
}
