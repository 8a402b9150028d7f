package lock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalExclusiveSide(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	release, ok, err := l.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = l.TryLock(ctx)
	assert.False(t, ok, "second full run must not get the lock")
	_, ok, _ = l.TryRLock(ctx)
	assert.False(t, ok, "incremental attach must yield to a full run")

	release()
	release()

	releaseShared, ok, err := l.TryRLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	releaseSecond, ok, _ := l.TryRLock(ctx)
	require.True(t, ok, "shared side is shared")
	_, ok, _ = l.TryLock(ctx)
	assert.False(t, ok)
	releaseShared()
	releaseSecond()
}

func TestLocalHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok, err := NewLocal().TryLock(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}
