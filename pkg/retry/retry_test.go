package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitstock/pkg/derrors"
	"kitstock/pkg/platform/sentinel"
)

func fastPolicy() Policy {
	return Policy{Attempts: 4, Backoff: time.Millisecond, Retryable: IsTransient}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRecoversFromTransientConflict(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return sentinel.ErrConflict
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("constraint violation")
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return fatal
	})
	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls, "non-retryable errors must not be retried")
}

func TestDoExhaustionWrapsAsPersistenceFailure(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return sentinel.ErrConflict
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.True(t, derrors.HasCode(err, derrors.CodePersistenceFailure))
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := fastPolicy().Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return sentinel.ErrConflict
	})
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodePersistenceFailure))
	assert.Equal(t, 1, calls)
}
