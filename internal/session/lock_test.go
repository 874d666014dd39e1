package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitstock/pkg/platform/sentinel"
)

func TestAcquireIsAllOrNothing(t *testing.T) {
	l := NewInMemoryLocker()
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "a", []string{"addr-1"}))

	err := l.Acquire(ctx, "b", []string{"addr-2", "addr-1"})
	require.ErrorIs(t, err, sentinel.ErrLocked)

	// addr-2 must not be left held by the failed acquire.
	assert.NoError(t, l.Acquire(ctx, "c", []string{"addr-2"}))
}

func TestAcquireIsReentrant(t *testing.T) {
	l := NewInMemoryLocker()
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "a", []string{"addr-1"}))
	assert.NoError(t, l.Acquire(ctx, "a", []string{"addr-1", "addr-2"}))
}

func TestReleaseIgnoresForeignLocks(t *testing.T) {
	l := NewInMemoryLocker()
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "a", []string{"addr-1"}))
	require.NoError(t, l.Release(ctx, "b", []string{"addr-1"}))

	err := l.Acquire(ctx, "b", []string{"addr-1"})
	assert.ErrorIs(t, err, sentinel.ErrLocked, "still held by the original session")
}
