package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_UnwrapKeepsSentinelReachable(t *testing.T) {
	sentinel := errors.New("insufficient coin balance")

	err := NewRejectionError(sentinel, "Not enough coins")
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "E300", err.Code)
	assert.False(t, err.Retryable)

	wrapped := fmt.Errorf("play ball drop: %w", err)
	var appErr *AppError
	require.ErrorAs(t, wrapped, &appErr)
	assert.Equal(t, "Not enough coins", appErr.UserMessage)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewStorageError(errors.New("redis down"))))
	assert.False(t, IsRetryable(NewValidationError("bad email")))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))

	// retryability survives wrapping
	wrapped := fmt.Errorf("persist: %w", NewStorageError(errors.New("redis down")))
	assert.True(t, IsRetryable(wrapped))
}

func TestWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return NewStorageError(errors.New("transient"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_NonRetryableReturnsImmediately(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return NewValidationError("bad input")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return NewStorageError(errors.New("still down"))
	})

	assert.Error(t, err)
	assert.Equal(t, MaxRetries+1, calls)
}

func TestWithRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := WithRetry(ctx, func() error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}
