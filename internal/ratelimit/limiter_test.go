package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireEnforcesMinimumInterval(t *testing.T) {
	t.Parallel()

	const interval = 30 * time.Millisecond
	l := New(interval)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "SYD"))
	start := time.Now()
	require.NoError(t, l.Acquire(ctx, "SYD"))
	require.GreaterOrEqual(t, time.Since(start), interval)
}

func TestAcquireKeysAreIndependent(t *testing.T) {
	t.Parallel()

	l := New(time.Second)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "SYD"))

	// A different key must not inherit SYD's cooldown.
	start := time.Now()
	require.NoError(t, l.Acquire(ctx, "MEL"))
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestZeroIntervalDisablesGating(t *testing.T) {
	t.Parallel()

	l := New(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Acquire(ctx, "SYD"))
	}
	require.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestAcquireHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	l := New(time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	require.NoError(t, l.Acquire(ctx, "SYD"))
	err := l.Acquire(ctx, "SYD")
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
