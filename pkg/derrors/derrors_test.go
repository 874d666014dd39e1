package derrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	err := New(CodeUnknownAddress, "no line at address")
	assert.True(t, HasCode(err, CodeUnknownAddress))
	assert.False(t, HasCode(err, CodeValidation))
	assert.False(t, HasCode(errors.New("plain"), CodeUnknownAddress))
	assert.False(t, HasCode(nil, CodeUnknownAddress))
}

func TestHasCodeThroughWrapping(t *testing.T) {
	inner := New(CodePersistenceConflict, "store busy")
	outer := fmt.Errorf("commit attempt 3: %w", inner)
	assert.True(t, HasCode(outer, CodePersistenceConflict))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodePersistenceFailure, "apply movements")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodePersistenceFailure, CodeOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}
