package agentscope

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		Timeout:           time.Second,
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		BackoffMultiplier: 1.5,
	}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	result, err := WithRetry(context.Background(), fastExecutionConfig(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", NewKernelError("call", ErrProviderError, nil)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	_, err := WithRetry(context.Background(), fastExecutionConfig(), func(ctx context.Context) (string, error) {
		attempts++
		return "", NewKernelError("call", ErrProviderError, nil)
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts, "must not exceed MaxAttempts")
}

// TestWithRetryDoesNotRetryPermanentErrors covers §4.10/§7: only
// PROVIDER_ERROR and TIMEOUT are retryable; everything else fails fast.
func TestWithRetryDoesNotRetryPermanentErrors(t *testing.T) {
	attempts := 0
	sentinel := NewKernelError("call", ErrInvalidInput, nil)
	_, err := WithRetry(context.Background(), fastExecutionConfig(), func(ctx context.Context) (string, error) {
		attempts++
		return "", sentinel
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "non-retryable errors must not be retried")
}

// TestWithRetryRetriesOnTimeout pins down §4.10's timeout-is-retryable
// rule at the one call site that builds a KernelError with both a Kind
// and a non-nil wrapped Err: the per-attempt deadline firing must still
// classify as retryable via Kind, not be masked by the wrapped cause.
func TestWithRetryRetriesOnTimeout(t *testing.T) {
	attempts := 0
	cfg := ExecutionConfig{
		Timeout:           5 * time.Millisecond,
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		BackoffMultiplier: 1.5,
	}
	_, err := WithRetry(context.Background(), cfg, func(ctx context.Context) (string, error) {
		attempts++
		<-ctx.Done()
		return "", errors.New("boom")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts, "a timed-out attempt must be retried, not treated as permanent")
}

func TestIsRetryableClassification(t *testing.T) {
	assert.True(t, IsRetryable(NewKernelError("call", ErrProviderError, nil)))
	assert.True(t, IsRetryable(NewKernelError("call", ErrTimeout, nil)))
	assert.False(t, IsRetryable(NewKernelError("call", ErrInvalidInput, nil)))
	assert.False(t, IsRetryable(nil))
}
