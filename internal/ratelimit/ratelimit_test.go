package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterAllowsUpToLimit(t *testing.T) {
	m := NewMemory(2, time.Minute)
	ctx := context.Background()

	ok, err := m.Allow(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Allow(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Allow(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	m := NewMemory(1, time.Minute)
	ctx := context.Background()

	ok, err := m.Allow(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Allow(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryLimiterWindowExpires(t *testing.T) {
	m := NewMemory(1, 10*time.Millisecond)
	ctx := context.Background()

	ok, err := m.Allow(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Allow(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)

	time.Sleep(20 * time.Millisecond)

	ok, err = m.Allow(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryLimiterZeroLimitAlwaysAllows(t *testing.T) {
	m := NewMemory(0, time.Minute)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		ok, err := m.Allow(ctx, "a")
		require.NoError(t, err)
		require.True(t, ok)
	}
}
