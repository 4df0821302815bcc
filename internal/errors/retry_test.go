package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetry_SucceedsAfterLockContention(t *testing.T) {
	// Given: a function that reports a locked repository twice then succeeds
	attempts := 0
	fn := func() error {
		attempts++
		if attempts < 3 {
			return New(ErrCodeRepoLocked, "repository is locked", nil)
		}
		return nil
	}

	// When: retrying
	err := Retry(context.Background(), fastRetryConfig(), fn)

	// Then: succeeds on the third attempt
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_FailsAfterMaxRetries(t *testing.T) {
	// Given: a lock that is never released
	attempts := 0
	fn := func() error {
		attempts++
		return New(ErrCodeRepoLocked, "repository is locked", nil)
	}

	// When: retrying
	err := Retry(context.Background(), fastRetryConfig(), fn)

	// Then: fails with the wrapped last error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, ErrCodeRepoLocked, GetCode(err))
	assert.Equal(t, 3, attempts)
}

func TestRetry_DoesNotRetryPermanentErrors(t *testing.T) {
	// Given: a function failing with a non-retryable error
	attempts := 0
	permanent := New(ErrCodeAnchorNotFound, "no such anchor", nil)
	fn := func() error {
		attempts++
		return permanent
	}

	// When: retrying
	err := Retry(context.Background(), fastRetryConfig(), fn)

	// Then: the error is returned after one attempt
	assert.Same(t, permanent, err)
	assert.Equal(t, 1, attempts)
}

func TestRetry_DoesNotRetryPlainErrors(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return errors.New("boom")
	})

	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, attempts)
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	// Given: an already cancelled context
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Retry(ctx, fastRetryConfig(), func() error {
		called = true
		return nil
	})

	// Then: fn never runs
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestDefaultRetryConfig_HasSensibleDefaults(t *testing.T) {
	cfg := DefaultRetryConfig()

	assert.Greater(t, cfg.MaxRetries, 0)
	assert.Greater(t, cfg.InitialDelay, time.Duration(0))
	assert.GreaterOrEqual(t, cfg.MaxDelay, cfg.InitialDelay)
	assert.Greater(t, cfg.Multiplier, 1.0)
}
